package dto

import "github.com/noah-isme/siiau-planner-api/internal/models"

// OfferingQueryRequest captures POST /siiau/offerings/query payload. Field
// names follow the portal form.
type OfferingQueryRequest struct {
	Cycle     string `json:"ciclop" validate:"required"`
	Campus    string `json:"cup" validate:"required"`
	Major     string `json:"majrp" validate:"required"`
	Subject   string `json:"materiap"`
	Course    string `json:"crsep"`
	StartHour string `json:"horaip" validate:"omitempty,numeric,len=4"`
	EndHour   string `json:"horafp" validate:"omitempty,numeric,len=4"`
	Building  string `json:"edifp"`
	Classroom string `json:"aulap"`
}

// Query converts the request into the portal query model.
func (r OfferingQueryRequest) Query() models.OfferingQuery {
	return models.OfferingQuery{
		Cycle:     r.Cycle,
		Campus:    r.Campus,
		Major:     r.Major,
		Subject:   r.Subject,
		Course:    r.Course,
		StartHour: r.StartHour,
		EndHour:   r.EndHour,
		Building:  r.Building,
		Classroom: r.Classroom,
	}
}

// OfferingQueryResponse carries the flat records and two derived views.
type OfferingQueryResponse struct {
	Records  []models.SessionRecord `json:"records"`
	Sections []models.Section       `json:"sections"`
	Subjects []models.Subject       `json:"subjects"`
}

// ConflictCheckRequest carries candidate sessions, optionally narrowed to a
// set of selected NRCs.
type ConflictCheckRequest struct {
	Records      []models.SessionRecord `json:"records" validate:"required"`
	SelectedNRCs []string               `json:"selectedNrcs"`
}
