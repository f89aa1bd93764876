package siiau

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/noah-isme/siiau-planner-api/internal/models"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
)

const (
	// noDataMarker is the Oracle error the portal prints for an empty query.
	noDataMarker = "ORA-01403"

	minSectionCells = 8
	scheduleCell    = 7
	professorCell   = 8
	professorClass  = ".tdprofesor"
)

var numericPattern = regexp.MustCompile(`^[0-9]+$`)

// meetingBlock is one row of the nested schedule table of a section.
type meetingBlock struct {
	hours    string
	days     string
	building string
	room     string
}

// ParseOffering converts an offering results page into session records, one
// per section and weekday. It returns ErrNoResults when the page holds no
// sections and ErrUpstreamShapeChanged when it holds no table at all.
func ParseOffering(html string) ([]models.SessionRecord, error) {
	if strings.Contains(html, noDataMarker) {
		return nil, appErrors.Clone(appErrors.ErrNoResults, "no classes found for the given parameters")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamShapeChanged.Code, appErrors.ErrUpstreamShapeChanged.Status, "failed to parse offering page")
	}
	if doc.Find("table").Length() == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstreamShapeChanged, "offering page has no results table")
	}

	records := make([]models.SessionRecord, 0)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < minSectionCells {
			return
		}
		nrc := cellText(cells, 0)
		if !numericPattern.MatchString(nrc) {
			return
		}
		base := models.SessionRecord{
			NRC:         nrc,
			Clave:       cellText(cells, 1),
			Materia:     cellText(cells, 2),
			Seccion:     cellText(cells, 3),
			Creditos:    cellText(cells, 4),
			Cupos:       cellText(cells, 5),
			Disponibles: cellText(cells, 6),
			Profesor:    extractProfessor(cells.Eq(professorCell)),
		}
		records = append(records, expandSection(base, extractMeetings(cells.Eq(scheduleCell)))...)
	})

	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoResults, "no classes found for the given parameters")
	}
	return records, nil
}

func extractProfessor(cell *goquery.Selection) string {
	if marked := cell.Find(professorClass); marked.Length() > 0 {
		if name := strings.TrimSpace(marked.Last().Text()); name != "" {
			return name
		}
	}
	text := strings.TrimSpace(cell.Text())
	if text != "" && !numericPattern.MatchString(text) {
		return text
	}
	return models.UnassignedProfessor
}

func extractMeetings(cell *goquery.Selection) []meetingBlock {
	blocks := make([]meetingBlock, 0)
	cell.Find("table").Find("tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 2 {
			return
		}
		blocks = append(blocks, meetingBlock{
			hours:    cellText(cols, 1),
			days:     cellText(cols, 2),
			building: cellText(cols, 3),
			room:     cellText(cols, 4),
		})
	})
	return blocks
}

// expandSection fans a section out into one record per meeting day. A section
// without meetings still yields one record with an empty schedule, and so
// does a block whose day codes are not recognised.
func expandSection(base models.SessionRecord, blocks []meetingBlock) []models.SessionRecord {
	if len(blocks) == 0 {
		return []models.SessionRecord{base}
	}
	out := make([]models.SessionRecord, 0, len(blocks))
	for _, block := range blocks {
		start, end := splitHours(block.hours)
		rec := base
		rec.HoraInicio = start
		rec.HoraFin = end
		rec.Edificio = stringPtr(block.building)
		rec.Aula = stringPtr(block.room)

		days := DecodeDays(block.days)
		if len(days) == 0 {
			out = append(out, rec)
			continue
		}
		for _, day := range days {
			d := day
			withDay := rec
			withDay.Dia = &d
			out = append(out, withDay)
		}
	}
	return out
}

func splitHours(raw string) (start, end *string) {
	parts := strings.Split(raw, "-")
	start = decodedTime(parts[0])
	if len(parts) > 1 {
		end = decodedTime(parts[1])
	}
	return start, end
}

func decodedTime(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v := DecodeTime(raw)
	return &v
}

func cellText(cells *goquery.Selection, idx int) string {
	return strings.TrimSpace(cells.Eq(idx).Text())
}

func stringPtr(v string) *string {
	return &v
}
