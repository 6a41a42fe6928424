package domain

// NoDateKey is the sentinel group key for jobs without a scheduled start.
const NoDateKey = "no-date"

// Job and employee statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Classifications recognized for employees.
var Classifications = []string{"APP-1", "APP-2", "APP-3", "APP-4", "APP-5", "APP-6", "JM", "FM"}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Client struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Job struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	Scope       string    `json:"scope,omitempty"`
	StartTime   string    `json:"start_time,omitempty"` // datetime-local style, YYYY-MM-DDTHH:MM; empty means unscheduled
	Client      Client    `json:"client"`
	EmployeeIDs []string  `json:"employee_ids"`
	Status      string    `json:"status" enum:"active,inactive"`
	Location    *Location `json:"location,omitempty"`
	CreatedAt   string    `json:"created_at" format:"date-time"`
	UpdatedAt   string    `json:"updated_at" format:"date-time"`

	// LegacyEmployees carries assignee names from snapshots written before
	// assignments referenced employee IDs. It is resolved against the roster
	// on load and never written back.
	LegacyEmployees []string `json:"employees,omitempty"`
}

// DateKey returns the calendar-date portion of the job's start time, or
// NoDateKey when the job is unscheduled. The start time format is fixed-width,
// so a substring is sufficient.
func (j Job) DateKey() string {
	return DateKeyFromStart(j.StartTime)
}

func DateKeyFromStart(startTime string) string {
	if len(startTime) > 10 && startTime[10] == 'T' {
		return startTime[:10]
	}
	return NoDateKey
}

type EmergencyContact struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Relation string `json:"relation,omitempty"`
}

type Employee struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Classification string           `json:"classification"`
	Status         string           `json:"status" enum:"active,inactive"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	Address        string           `json:"address,omitempty"`
	Emergency      EmergencyContact `json:"emergency"`
	CantWorkDays   []string         `json:"cant_work_days"` // full weekday names
	Skills         []string         `json:"skills,omitempty"`
	Certs          []string         `json:"certs,omitempty"`
	CreatedAt      string           `json:"created_at" format:"date-time"`
	UpdatedAt      string           `json:"updated_at" format:"date-time"`
}

func ValidClassification(c string) bool {
	for _, k := range Classifications {
		if k == c {
			return true
		}
	}
	return false
}
