package dispatchsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal dispatch HTTP API client.
type Client struct {
	BaseURL    string
	BasePath   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "v1",
		Timeout:  10 * time.Second,
	}
}

// Job represents the API job model (partial).
type Job struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	StartTime   string   `json:"start_time,omitempty"`
	Status      string   `json:"status"`
	EmployeeIDs []string `json:"employee_ids"`
}

// Employee represents a roster member (partial).
type Employee struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Classification string   `json:"classification"`
	Status         string   `json:"status"`
	CantWorkDays   []string `json:"cant_work_days"`
}

// DayGroup is one board group.
type DayGroup struct {
	DateKey string `json:"date_key"`
	Label   string `json:"label"`
	Today   bool   `json:"today"`
	Jobs    []Job  `json:"jobs"`
}

// Board is the dispatch board view.
type Board struct {
	Groups        []DayGroup `json:"groups"`
	Inactive      []Job      `json:"inactive"`
	ActiveCount   int        `json:"active_count"`
	InactiveCount int        `json:"inactive_count"`
}

// PickerEntry is one assignment candidate.
type PickerEntry struct {
	Employee Employee `json:"employee"`
	Conflict *struct {
		JobID   string `json:"job_id"`
		JobName string `json:"job_name"`
		DateKey string `json:"date_key"`
	} `json:"conflict,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsConflict reports whether the error is an assignment conflict (HTTP 409).
func IsConflict(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusConflict
}

// Board fetches the grouped dispatch board.
func (c *Client) Board(ctx context.Context) (Board, error) {
	var resp Board
	err := c.do(ctx, http.MethodGet, c.path("board"), nil, &resp)
	return resp, err
}

// CreateJob creates a job.
func (c *Client) CreateJob(ctx context.Context, name, startTime string) (Job, error) {
	body := map[string]any{"name": name}
	if startTime != "" {
		body["start_time"] = startTime
	}
	var resp Job
	err := c.do(ctx, http.MethodPost, c.path("jobs"), body, &resp)
	return resp, err
}

// Assign assigns an employee to a job. A 409 means the employee already
// works another job that date; retry with confirm=true to move them.
func (c *Client) Assign(ctx context.Context, jobID, employeeID string, confirm bool) (Job, error) {
	body := map[string]any{"employee_id": employeeID, "confirm": confirm}
	var resp Job
	endpoint := c.path(fmt.Sprintf("jobs/%s/assignments", url.PathEscape(jobID)))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Unassign removes an employee from a job.
func (c *Client) Unassign(ctx context.Context, jobID, employeeID string) (Job, error) {
	var resp Job
	endpoint := c.path(fmt.Sprintf("jobs/%s/assignments/%s", url.PathEscape(jobID), url.PathEscape(employeeID)))
	err := c.do(ctx, http.MethodDelete, endpoint, nil, &resp)
	return resp, err
}

// Picker lists eligible employees for a job.
func (c *Client) Picker(ctx context.Context, jobID, query string) ([]PickerEntry, error) {
	var resp struct {
		Entries []PickerEntry `json:"entries"`
	}
	endpoint := c.path(fmt.Sprintf("jobs/%s/picker", url.PathEscape(jobID)))
	if query != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Entries, err
}

// SetJobStatus toggles a job between active and inactive.
func (c *Client) SetJobStatus(ctx context.Context, jobID, status string) (Job, error) {
	var resp Job
	endpoint := c.path(fmt.Sprintf("jobs/%s/status", url.PathEscape(jobID)))
	err := c.do(ctx, http.MethodPut, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// Employees lists the roster.
func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	var resp struct {
		Employees []Employee `json:"employees"`
	}
	err := c.do(ctx, http.MethodGet, c.path("employees"), nil, &resp)
	return resp.Employees, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) path(p string) string {
	return fmt.Sprintf("%s/%s", strings.Trim(c.BasePath, "/"), strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
