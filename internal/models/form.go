package models

// FormOption is one selectable value of a portal query form field.
type FormOption struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Portal form field names.
const (
	FieldCycle  = "ciclop"
	FieldCampus = "cup"
)

// FormOptions maps a form field name to its options.
type FormOptions map[string][]FormOption

// Majors maps a major code to its display name.
type Majors map[string]string
