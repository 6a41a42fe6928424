package server

import (
	"github.com/UFUNY/LiUNA-Dispatch/internal/domain"
	"github.com/UFUNY/LiUNA-Dispatch/internal/engine"
)

// Request payloads

type LocationPayload struct {
	Lat float64 `json:"lat" minimum:"-90" maximum:"90"`
	Lng float64 `json:"lng" minimum:"-180" maximum:"180"`
}

type ClientPayload struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type EmergencyContactPayload struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Relation string `json:"relation,omitempty"`
}

type CreateJobRequest struct {
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Address     *string          `json:"address,omitempty"`
	Scope       *string          `json:"scope,omitempty"`
	StartTime   *string          `json:"start_time,omitempty"`
	Client      *ClientPayload   `json:"client,omitempty"`
	EmployeeIDs []string         `json:"employee_ids,omitempty"`
	Location    *LocationPayload `json:"location,omitempty"`
}

type UpdateJobRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Address     *string          `json:"address,omitempty"`
	Scope       *string          `json:"scope,omitempty"`
	StartTime   *string          `json:"start_time,omitempty"`
	Client      *ClientPayload   `json:"client,omitempty"`
	EmployeeIDs *[]string        `json:"employee_ids,omitempty"`
	Location    *LocationPayload `json:"location,omitempty"`
}

type SetJobStatusRequest struct {
	Status string `json:"status" enum:"active,inactive"`
}

type AssignRequest struct {
	EmployeeID string `json:"employee_id"`
	Confirm    bool   `json:"confirm,omitempty"`
}

type CreateEmployeeRequest struct {
	Name           string                   `json:"name"`
	Classification *string                  `json:"classification,omitempty" enum:"APP-1,APP-2,APP-3,APP-4,APP-5,APP-6,JM,FM"`
	Status         *string                  `json:"status,omitempty" enum:"active,inactive"`
	Email          *string                  `json:"email,omitempty"`
	Phone          *string                  `json:"phone,omitempty"`
	Address        *string                  `json:"address,omitempty"`
	Emergency      *EmergencyContactPayload `json:"emergency,omitempty"`
	CantWorkDays   []string                 `json:"cant_work_days,omitempty"`
	Skills         []string                 `json:"skills,omitempty"`
	Certs          []string                 `json:"certs,omitempty"`
}

type UpdateEmployeeRequest struct {
	Name           *string                  `json:"name,omitempty"`
	Classification *string                  `json:"classification,omitempty" enum:"APP-1,APP-2,APP-3,APP-4,APP-5,APP-6,JM,FM"`
	Status         *string                  `json:"status,omitempty" enum:"active,inactive"`
	Email          *string                  `json:"email,omitempty"`
	Phone          *string                  `json:"phone,omitempty"`
	Address        *string                  `json:"address,omitempty"`
	Emergency      *EmergencyContactPayload `json:"emergency,omitempty"`
	CantWorkDays   *[]string                `json:"cant_work_days,omitempty"`
	Skills         *[]string                `json:"skills,omitempty"`
	Certs          *[]string                `json:"certs,omitempty"`
}

type RouteRequest struct {
	Origin      LocationPayload `json:"origin"`
	Destination LocationPayload `json:"destination"`
}

// Response payloads

type LocateResponse struct {
	Job    domain.Job `json:"job"`
	Notice string     `json:"notice,omitempty"`
}

type JobListResponse struct {
	Jobs []domain.Job `json:"jobs"`
}

type EmployeeListResponse struct {
	Employees []domain.Employee `json:"employees"`
}

type PickerResponse struct {
	Entries []engine.PickerEntry `json:"entries"`
}

func locationFromPayload(p *LocationPayload) *domain.Location {
	if p == nil {
		return nil
	}
	return &domain.Location{Lat: p.Lat, Lng: p.Lng}
}

func clientFromPayload(p *ClientPayload) domain.Client {
	if p == nil {
		return domain.Client{}
	}
	return domain.Client{Name: p.Name, Phone: p.Phone, Email: p.Email}
}

func emergencyFromPayload(p *EmergencyContactPayload) domain.EmergencyContact {
	if p == nil {
		return domain.EmergencyContact{}
	}
	return domain.EmergencyContact{Name: p.Name, Phone: p.Phone, Relation: p.Relation}
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
