package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultScheduleName is used when a schedule is saved without a name.
const DefaultScheduleName = "Horario Sin Título"

// SavedSchedule is a user's persisted selection of sections.
type SavedSchedule struct {
	ID        string       `db:"id" json:"id"`
	OwnerID   string       `db:"owner_id" json:"ownerId"`
	Name      string       `db:"name" json:"name"`
	Data      ScheduleData `db:"data" json:"data"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

// ScheduleData is the JSONB payload of a saved schedule.
type ScheduleData struct {
	SelectedNRCs  []string        `json:"selectedNrcs"`
	Sessions      []SessionRecord `json:"sessions"`
	FormParams    ScheduleParams  `json:"formParams"`
	CalendarLabel string          `json:"calendarLabel,omitempty"`
}

// ScheduleParams records the portal query that produced the sessions.
type ScheduleParams struct {
	Cycle  string `json:"ciclop"`
	Campus string `json:"cup"`
	Major  string `json:"majrp"`
}

// Value marshals the payload for persistence.
func (d ScheduleData) Value() (driver.Value, error) {
	if d.SelectedNRCs == nil {
		d.SelectedNRCs = []string{}
	}
	if d.Sessions == nil {
		d.Sessions = []SessionRecord{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule data: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON column into the payload.
func (d *ScheduleData) Scan(value interface{}) error {
	if value == nil {
		*d = ScheduleData{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ScheduleData", value)
	}
	if len(data) == 0 {
		*d = ScheduleData{}
		return nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return fmt.Errorf("unmarshal schedule data: %w", err)
	}
	return nil
}

// SavedScheduleFilter narrows schedule listings.
type SavedScheduleFilter struct {
	OwnerID  string
	Page     int
	PageSize int
}

// SavedScheduleDetail is a schedule together with its current conflicts.
type SavedScheduleDetail struct {
	SavedSchedule
	Conflicts ConflictSummary `json:"conflicts"`
}
