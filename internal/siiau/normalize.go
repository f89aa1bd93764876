package siiau

import "github.com/noah-isme/siiau-planner-api/internal/models"

// dayCodes maps the portal's single-letter day codes. Wednesday is "I"
// because "M" already means Tuesday.
var dayCodes = map[rune]models.Weekday{
	'L': models.Monday,
	'M': models.Tuesday,
	'I': models.Wednesday,
	'J': models.Thursday,
	'V': models.Friday,
	'S': models.Saturday,
}

// DecodeDays returns the weekdays named by a day-code string in calendar
// order. Unknown characters (the portal pads with dots and spaces) are ignored.
func DecodeDays(codes string) []models.Weekday {
	seen := make(map[models.Weekday]struct{}, len(models.Weekdays))
	for _, r := range codes {
		if day, ok := dayCodes[r]; ok {
			seen[day] = struct{}{}
		}
	}
	days := make([]models.Weekday, 0, len(seen))
	for _, day := range models.Weekdays {
		if _, ok := seen[day]; ok {
			days = append(days, day)
		}
	}
	return days
}

// DecodeTime turns a four digit time code ("0730") into "07:30". Anything
// else is returned unchanged.
func DecodeTime(code string) string {
	if len(code) != 4 {
		return code
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return code
		}
	}
	return code[:2] + ":" + code[2:]
}
