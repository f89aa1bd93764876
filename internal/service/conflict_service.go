package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/siiau-planner-api/internal/models"
)

// DetectConflicts returns every pair of sessions of different sections that
// overlap on the same weekday, in input order. Intervals are half open, so a
// class ending at 10:00 does not clash with one starting at 10:00.
func DetectConflicts(records []models.SessionRecord) []models.ConflictPair {
	pairs := make([]models.ConflictPair, 0)
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if overlaps(records[i], records[j]) {
				pairs = append(pairs, models.ConflictPair{First: records[i], Second: records[j]})
			}
		}
	}
	return pairs
}

func overlaps(a, b models.SessionRecord) bool {
	if a.NRC == b.NRC {
		return false
	}
	if !a.Scheduled() || !b.Scheduled() || *a.Dia != *b.Dia {
		return false
	}
	startA, okA := minutesOf(*a.HoraInicio)
	endA, okEndA := minutesOf(*a.HoraFin)
	startB, okB := minutesOf(*b.HoraInicio)
	endB, okEndB := minutesOf(*b.HoraFin)
	if !okA || !okEndA || !okB || !okEndB {
		return false
	}
	return startA < endB && startB < endA
}

// minutesOf converts "HH:MM" into minutes since midnight.
func minutesOf(clock string) (int, bool) {
	hh, mm, found := strings.Cut(clock, ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

// FormatConflictMessages renders one warning per pair, dropping repeated text.
func FormatConflictMessages(pairs []models.ConflictPair) []string {
	seen := make(map[string]struct{}, len(pairs))
	messages := make([]string, 0, len(pairs))
	for _, p := range pairs {
		msg := fmt.Sprintf("El día %s, la materia \"%s\" (%s - %s) se cruza con \"%s\" (%s - %s).",
			deref((*string)(p.First.Dia)),
			p.First.Materia, deref(p.First.HoraInicio), deref(p.First.HoraFin),
			p.Second.Materia, deref(p.Second.HoraInicio), deref(p.Second.HoraFin),
		)
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		messages = append(messages, msg)
	}
	return messages
}

// ConflictingNRCs lists, sorted, every NRC that takes part in a conflict.
func ConflictingNRCs(pairs []models.ConflictPair) []string {
	set := make(map[string]struct{})
	for _, p := range pairs {
		set[p.First.NRC] = struct{}{}
		set[p.Second.NRC] = struct{}{}
	}
	nrcs := make([]string, 0, len(set))
	for nrc := range set {
		nrcs = append(nrcs, nrc)
	}
	sort.Strings(nrcs)
	return nrcs
}

// SelectByNRC keeps the records whose NRC is in the selection, preserving order.
func SelectByNRC(records []models.SessionRecord, nrcs []string) []models.SessionRecord {
	wanted := make(map[string]struct{}, len(nrcs))
	for _, nrc := range nrcs {
		wanted[strings.TrimSpace(nrc)] = struct{}{}
	}
	selected := make([]models.SessionRecord, 0)
	for _, r := range records {
		if _, ok := wanted[r.NRC]; ok {
			selected = append(selected, r)
		}
	}
	return selected
}

// HasSaturday reports whether any session meets on Saturday.
func HasSaturday(records []models.SessionRecord) bool {
	for _, r := range records {
		if r.Dia != nil && *r.Dia == models.Saturday {
			return true
		}
	}
	return false
}

// SummarizeConflicts runs detection and formatting over a selection.
func SummarizeConflicts(records []models.SessionRecord) models.ConflictSummary {
	pairs := DetectConflicts(records)
	return models.ConflictSummary{
		Pairs:           pairs,
		Messages:        FormatConflictMessages(pairs),
		ConflictingNRCs: ConflictingNRCs(pairs),
		HasSaturday:     HasSaturday(records),
	}
}

// GroupSections folds session records into sections keyed by NRC, in the
// order each NRC first appears.
func GroupSections(records []models.SessionRecord) []models.Section {
	index := make(map[string]int)
	sections := make([]models.Section, 0)
	for _, r := range records {
		pos, ok := index[r.NRC]
		if !ok {
			pos = len(sections)
			index[r.NRC] = pos
			sections = append(sections, models.Section{
				NRC:         r.NRC,
				Clave:       r.Clave,
				Materia:     r.Materia,
				Seccion:     r.Seccion,
				Creditos:    r.Creditos,
				Cupos:       r.Cupos,
				Disponibles: r.Disponibles,
				Profesor:    r.Profesor,
				Meetings:    make([]models.Meeting, 0, 1),
			})
		}
		if r.Dia == nil && r.HoraInicio == nil && r.HoraFin == nil && r.Edificio == nil && r.Aula == nil {
			continue
		}
		sections[pos].Meetings = append(sections[pos].Meetings, models.Meeting{
			Dia:        r.Dia,
			HoraInicio: r.HoraInicio,
			HoraFin:    r.HoraFin,
			Edificio:   r.Edificio,
			Aula:       r.Aula,
		})
	}
	return sections
}

// UniqueSubjects lists each subject code once with its name, in first-seen order.
func UniqueSubjects(records []models.SessionRecord) []models.Subject {
	seen := make(map[string]struct{})
	subjects := make([]models.Subject, 0)
	for _, r := range records {
		if _, ok := seen[r.Clave]; ok {
			continue
		}
		seen[r.Clave] = struct{}{}
		subjects = append(subjects, models.Subject{Clave: r.Clave, Materia: r.Materia})
	}
	return subjects
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
