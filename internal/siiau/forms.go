package siiau

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/noah-isme/siiau-planner-api/internal/models"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
)

// ExtractFormOptions reads the options of each named <select> of the query
// form page. Options with an empty value are skipped. A missing select yields
// ErrUpstreamShapeChanged.
func ExtractFormOptions(html string, fields ...string) (models.FormOptions, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamShapeChanged.Code, appErrors.ErrUpstreamShapeChanged.Status, "failed to parse form page")
	}

	result := make(models.FormOptions, len(fields))
	for _, field := range fields {
		sel := doc.Find(fmt.Sprintf("select[name=%q]", field))
		if sel.Length() == 0 {
			return nil, appErrors.Clone(appErrors.ErrUpstreamShapeChanged, fmt.Sprintf("form field %s not found", field))
		}
		options := make([]models.FormOption, 0)
		sel.First().Find("option").Each(func(_ int, opt *goquery.Selection) {
			value, _ := opt.Attr("value")
			value = strings.TrimSpace(value)
			if value == "" {
				return
			}
			options = append(options, models.FormOption{
				Value:       value,
				Description: optionDescription(opt.Text()),
			})
		})
		result[field] = options
	}
	return result, nil
}

// optionDescription drops the "CODE - " prefix the portal puts in front of
// option labels.
func optionDescription(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if _, rest, found := strings.Cut(text, "-"); found {
		return strings.TrimSpace(rest)
	}
	return text
}

// ExtractMajors reads the code to name table of the majors page, skipping
// the header row.
func ExtractMajors(html string) (models.Majors, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamShapeChanged.Code, appErrors.ErrUpstreamShapeChanged.Status, "failed to parse majors page")
	}
	if doc.Find("table").Length() == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstreamShapeChanged, "majors table not found")
	}

	majors := make(models.Majors)
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		code := cellText(cells, 0)
		if code == "" {
			return
		}
		majors[code] = cellText(cells, 1)
	})

	if len(majors) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoResults, "no majors found for the given campus")
	}
	return majors, nil
}
