package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/UFUNY/LiUNA-Dispatch/internal/activity"
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
	"github.com/UFUNY/LiUNA-Dispatch/internal/engine"
	"github.com/UFUNY/LiUNA-Dispatch/internal/geo"
	"github.com/UFUNY/LiUNA-Dispatch/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
	Log      zerolog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"assignment_conflict"`
	Message string         `json:"message" example:"Ada is already assigned to \"North pour\" on 2025-03-12"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the dispatch API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Dispatch API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerBoard(group, cfg.Engine)
	registerJobs(group, cfg.Engine, cfg.Log)
	registerAssignments(group, cfg.Engine)
	registerEmployees(group, cfg.Engine)
	registerActivity(group, cfg.Engine)
	registerRoutesAPI(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var conflict *engine.ConflictError
	if errors.As(err, &conflict) {
		return newAPIError(http.StatusConflict, "assignment_conflict", err.Error(), map[string]any{
			"employee_id":   conflict.EmployeeID,
			"employee_name": conflict.EmployeeName,
			"job_id":        conflict.JobID,
			"job_name":      conflict.JobName,
			"date_key":      conflict.DateKey,
		})
	}
	var ge *geo.Error
	if errors.As(err, &ge) {
		return newAPIError(http.StatusBadGateway, "geocode_"+string(ge.Reason), err.Error(), nil)
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid"),
		strings.Contains(lowered, "required"),
		strings.Contains(lowered, "unknown classification"),
		strings.Contains(lowered, "out of range"),
		strings.Contains(lowered, "unknown weekday"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusBadGateway:
		return "upstream_error"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Dispatch API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerBoard(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "board",
		Method:      http.MethodGet,
		Path:        "/board",
		Summary:     "Dispatch board",
		Description: "Active jobs grouped by calendar date, today first, plus the inactive list.",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.BoardView `json:"body"`
	}, error) {
		return &struct {
			Body engine.BoardView `json:"body"`
		}{Body: e.Board()}, nil
	})
}

func registerJobs(api huma.API, e *engine.Engine, log zerolog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-job",
		Method:        http.MethodPost,
		Path:          "/jobs",
		Summary:       "Create job",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateJobRequest `json:"body"`
	}) (*struct {
		Body domain.Job `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		job, err := e.CreateJob(ctx, engine.JobCreateOptions{
			Name:        input.Body.Name,
			Description: stringOrEmpty(input.Body.Description),
			Address:     stringOrEmpty(input.Body.Address),
			Scope:       stringOrEmpty(input.Body.Scope),
			StartTime:   stringOrEmpty(input.Body.StartTime),
			Client:      clientFromPayload(input.Body.Client),
			EmployeeIDs: input.Body.EmployeeIDs,
			Location:    locationFromPayload(input.Body.Location),
		})
		if err != nil {
			return nil, handleError(err)
		}
		// resolve coordinates in the background so create stays fast
		if job.Address != "" && job.Location == nil && e.Geocoder != nil {
			go func(id string) {
				if _, _, err := e.LocateJob(context.Background(), id); err != nil {
					log.Warn().Err(err).Str("job", id).Msg("background geocode failed")
				}
			}(job.ID)
		}
		return &struct {
			Body domain.Job `json:"body"`
		}{Body: job}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "List jobs",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"active,inactive,"`
		Query  string `query:"q"`
	}) (*struct {
		Body JobListResponse `json:"body"`
	}, error) {
		jobs := e.ListJobs(engine.JobFilters{Status: input.Status, Query: input.Query})
		if jobs == nil {
			jobs = []domain.Job{}
		}
		return &struct {
			Body JobListResponse `json:"body"`
		}{Body: JobListResponse{Jobs: jobs}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-job",
		Method:      http.MethodGet,
		Path:        "/jobs/{job_id}",
		Summary:     "Get job",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JobID string `path:"job_id"`
	}) (*struct {
		Body domain.Job `json:"body"`
	}, error) {
		job, err := e.GetJob(input.JobID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Job `json:"body"`
		}{Body: job}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-job",
		Method:      http.MethodPatch,
		Path:        "/jobs/{job_id}",
		Summary:     "Update job",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JobID string           `path:"job_id"`
		Body  UpdateJobRequest `json:"body"`
	}) (*struct {
		Body domain.Job `json:"body"`
	}, error) {
		opts := engine.JobUpdateOptions{
			ID:          input.JobID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Address:     input.Body.Address,
			Scope:       input.Body.Scope,
			StartTime:   input.Body.StartTime,
			Location:    locationFromPayload(input.Body.Location),
			EmployeeIDs: input.Body.EmployeeIDs,
		}
		if input.Body.Client != nil {
			c := clientFromPayload(input.Body.Client)
			opts.Client = &c
		}
		job, err := e.UpdateJob(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Job `json:"body"`
		}{Body: job}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-job-status",
		Method:      http.MethodPut,
		Path:        "/jobs/{job_id}/status",
		Summary:     "Set job status",
		Description: "Deactivating clears the start time and all assignments.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JobID string              `path:"job_id"`
		Body  SetJobStatusRequest `json:"body"`
	}) (*struct {
		Body domain.Job `json:"body"`
	}, error) {
		job, err := e.SetJobStatus(ctx, input.JobID, input.Body.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Job `json:"body"`
		}{Body: job}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-job",
		Method:      http.MethodDelete,
		Path:        "/jobs/{job_id}",
		Summary:     "Delete job",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JobID string `path:"job_id"`
	}) (*struct{}, error) {
		if err := e.DeleteJob(ctx, input.JobID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "locate-job",
		Method:      http.MethodPost,
		Path:        "/jobs/{job_id}/locate",
		Summary:     "Geocode job address",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		JobID string `path:"job_id"`
	}) (*struct {
		Body LocateResponse `json:"body"`
	}, error) {
		job, notice, err := e.LocateJob(ctx, input.JobID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LocateResponse `json:"body"`
		}{Body: LocateResponse{Job: job, Notice: notice}}, nil
	})
}

func registerAssignments(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "job-picker",
		Method:      http.MethodGet,
		Path:        "/jobs/{job_id}/picker",
		Summary:     "Assignment picker",
		Description: "Eligible employees for the job's date, conflict-annotated; unconflicted candidates sort first.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JobID string `path:"job_id"`
		Query string `query:"q"`
	}) (*struct {
		Body PickerResponse `json:"body"`
	}, error) {
		entries, err := e.Picker(engine.PickerOptions{JobID: input.JobID, Query: input.Query})
		if err != nil {
			return nil, handleError(err)
		}
		if entries == nil {
			entries = []engine.PickerEntry{}
		}
		return &struct {
			Body PickerResponse `json:"body"`
		}{Body: PickerResponse{Entries: entries}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "assign-employee",
		Method:        http.MethodPost,
		Path:          "/jobs/{job_id}/assignments",
		Summary:       "Assign employee",
		Description:   "Returns 409 with conflict details when the employee already works another job that date; retry with confirm to move them.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		JobID string        `path:"job_id"`
		Body  AssignRequest `json:"body"`
	}) (*struct {
		Body domain.Job `json:"body"`
	}, error) {
		if input.Body.EmployeeID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "employee_id is required", nil)
		}
		job, err := e.Assign(ctx, engine.AssignOptions{
			JobID:      input.JobID,
			EmployeeID: input.Body.EmployeeID,
			Confirm:    input.Body.Confirm,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Job `json:"body"`
		}{Body: job}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unassign-employee",
		Method:      http.MethodDelete,
		Path:        "/jobs/{job_id}/assignments/{employee_id}",
		Summary:     "Unassign employee",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JobID      string `path:"job_id"`
		EmployeeID string `path:"employee_id"`
	}) (*struct {
		Body domain.Job `json:"body"`
	}, error) {
		job, err := e.Unassign(ctx, input.JobID, input.EmployeeID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Job `json:"body"`
		}{Body: job}, nil
	})
}

func registerEmployees(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-employee",
		Method:        http.MethodPost,
		Path:          "/employees",
		Summary:       "Create employee",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateEmployeeRequest `json:"body"`
	}) (*struct {
		Body domain.Employee `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		emp, err := e.CreateEmployee(ctx, engine.EmployeeCreateOptions{
			Name:           input.Body.Name,
			Classification: stringOrEmpty(input.Body.Classification),
			Status:         stringOrEmpty(input.Body.Status),
			Email:          stringOrEmpty(input.Body.Email),
			Phone:          stringOrEmpty(input.Body.Phone),
			Address:        stringOrEmpty(input.Body.Address),
			Emergency:      emergencyFromPayload(input.Body.Emergency),
			CantWorkDays:   input.Body.CantWorkDays,
			Skills:         input.Body.Skills,
			Certs:          input.Body.Certs,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Employee `json:"body"`
		}{Body: emp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-employees",
		Method:      http.MethodGet,
		Path:        "/employees",
		Summary:     "List employees",
	}, func(ctx context.Context, input *struct {
		Classification []string `query:"classification"`
		Status         []string `query:"status"`
		Query          string   `query:"q"`
	}) (*struct {
		Body EmployeeListResponse `json:"body"`
	}, error) {
		emps := e.ListEmployees(engine.EmployeeFilters{
			Classifications: input.Classification,
			Statuses:        input.Status,
			Query:           input.Query,
		})
		if emps == nil {
			emps = []domain.Employee{}
		}
		return &struct {
			Body EmployeeListResponse `json:"body"`
		}{Body: EmployeeListResponse{Employees: emps}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-employee",
		Method:      http.MethodGet,
		Path:        "/employees/{employee_id}",
		Summary:     "Get employee",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string `path:"employee_id"`
	}) (*struct {
		Body domain.Employee `json:"body"`
	}, error) {
		emp, err := e.GetEmployee(input.EmployeeID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Employee `json:"body"`
		}{Body: emp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-employee",
		Method:      http.MethodPatch,
		Path:        "/employees/{employee_id}",
		Summary:     "Update employee",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string                `path:"employee_id"`
		Body       UpdateEmployeeRequest `json:"body"`
	}) (*struct {
		Body domain.Employee `json:"body"`
	}, error) {
		opts := engine.EmployeeUpdateOptions{
			ID:             input.EmployeeID,
			Name:           input.Body.Name,
			Classification: input.Body.Classification,
			Status:         input.Body.Status,
			Email:          input.Body.Email,
			Phone:          input.Body.Phone,
			Address:        input.Body.Address,
			CantWorkDays:   input.Body.CantWorkDays,
			Skills:         input.Body.Skills,
			Certs:          input.Body.Certs,
		}
		if input.Body.Emergency != nil {
			em := emergencyFromPayload(input.Body.Emergency)
			opts.Emergency = &em
		}
		emp, err := e.UpdateEmployee(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Employee `json:"body"`
		}{Body: emp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-employee",
		Method:      http.MethodDelete,
		Path:        "/employees/{employee_id}",
		Summary:     "Delete employee",
		Description: "Also removes the employee from every job's assignment list.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string `path:"employee_id"`
	}) (*struct{}, error) {
		if err := e.DeleteEmployee(ctx, input.EmployeeID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "employee-assignments",
		Method:      http.MethodGet,
		Path:        "/employees/{employee_id}/assignments",
		Summary:     "Employee assignments",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string `path:"employee_id"`
	}) (*struct {
		Body []engine.Assignment `json:"body"`
	}, error) {
		out, err := e.EmployeeAssignments(input.EmployeeID)
		if err != nil {
			return nil, handleError(err)
		}
		if out == nil {
			out = []engine.Assignment{}
		}
		return &struct {
			Body []engine.Assignment `json:"body"`
		}{Body: out}, nil
	})
}

func registerActivity(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "activity-log",
		Method:      http.MethodGet,
		Path:        "/activity",
		Summary:     "Activity log",
		Description: "Newest entries first.",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" minimum:"0"`
	}) (*struct {
		Body []activity.Entry `json:"body"`
	}, error) {
		entries, err := e.Activity.Tail(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if entries == nil {
			entries = []activity.Entry{}
		}
		return &struct {
			Body []activity.Entry `json:"body"`
		}{Body: entries}, nil
	})
}

func registerRoutesAPI(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "route",
		Method:      http.MethodPost,
		Path:        "/routes",
		Summary:     "Driving route",
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Body RouteRequest `json:"body"`
	}) (*struct {
		Body geo.Route `json:"body"`
	}, error) {
		if e.Router == nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "routing not configured", nil)
		}
		route, err := e.Router.Route(ctx,
			domain.Location{Lat: input.Body.Origin.Lat, Lng: input.Body.Origin.Lng},
			domain.Location{Lat: input.Body.Destination.Lat, Lng: input.Body.Destination.Lng},
		)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body geo.Route `json:"body"`
		}{Body: route}, nil
	})
}
