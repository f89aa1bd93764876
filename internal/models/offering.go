package models

// Weekday is the portal's weekday name for a session.
type Weekday string

const (
	Monday    Weekday = "Lunes"
	Tuesday   Weekday = "Martes"
	Wednesday Weekday = "Miércoles"
	Thursday  Weekday = "Jueves"
	Friday    Weekday = "Viernes"
	Saturday  Weekday = "Sábado"
)

// Weekdays lists the teaching days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// UnassignedProfessor is reported when a section has no instructor name.
const UnassignedProfessor = "No asignado"

// SessionRecord is one weekday occurrence of one course section.
// Schedule fields are nil when the section has no meeting information.
type SessionRecord struct {
	NRC         string   `json:"nrc"`
	Clave       string   `json:"clave"`
	Materia     string   `json:"materia"`
	Seccion     string   `json:"seccion"`
	Creditos    string   `json:"creditos"`
	Cupos       string   `json:"cupos"`
	Disponibles string   `json:"disponibles"`
	Profesor    string   `json:"profesor"`
	Dia         *Weekday `json:"dia"`
	HoraInicio  *string  `json:"hora_inicio"`
	HoraFin     *string  `json:"hora_fin"`
	Edificio    *string  `json:"edificio"`
	Aula        *string  `json:"aula"`
}

// Scheduled reports whether the record carries a day and both times.
func (r SessionRecord) Scheduled() bool {
	return r.Dia != nil && *r.Dia != "" &&
		r.HoraInicio != nil && *r.HoraInicio != "" &&
		r.HoraFin != nil && *r.HoraFin != ""
}

// ConflictPair is two sessions of different sections overlapping on the same day.
type ConflictPair struct {
	First  SessionRecord `json:"first"`
	Second SessionRecord `json:"second"`
}

// Meeting is the schedule part of a session record.
type Meeting struct {
	Dia        *Weekday `json:"dia"`
	HoraInicio *string  `json:"hora_inicio"`
	HoraFin    *string  `json:"hora_fin"`
	Edificio   *string  `json:"edificio"`
	Aula       *string  `json:"aula"`
}

// Section groups every meeting of one NRC.
type Section struct {
	NRC         string    `json:"nrc"`
	Clave       string    `json:"clave"`
	Materia     string    `json:"materia"`
	Seccion     string    `json:"seccion"`
	Creditos    string    `json:"creditos"`
	Cupos       string    `json:"cupos"`
	Disponibles string    `json:"disponibles"`
	Profesor    string    `json:"profesor"`
	Meetings    []Meeting `json:"meetings"`
}

// Subject is one entry of the subject catalog derived from an offering.
type Subject struct {
	Clave   string `json:"clave"`
	Materia string `json:"materia"`
}

// OfferingQuery holds the portal query parameters.
type OfferingQuery struct {
	Cycle     string
	Campus    string
	Major     string
	Subject   string
	Course    string
	StartHour string
	EndHour   string
	Building  string
	Classroom string
}

// ConflictSummary is the outcome of checking a selection for overlaps.
type ConflictSummary struct {
	Pairs           []ConflictPair `json:"pairs"`
	Messages        []string       `json:"messages"`
	ConflictingNRCs []string       `json:"conflictingNrcs"`
	HasSaturday     bool           `json:"hasSaturday"`
}
