package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is the layout every normalized date is rendered with.
const ISODate = "2006-01-02"

var dateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"2006/1/2",
	"2-1-2006",
}

var longFormDate = regexp.MustCompile(`(?i)^(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{4})$`)

var spanishMonths = map[string]int{
	"enero":      1,
	"febrero":    2,
	"marzo":      3,
	"abril":      4,
	"mayo":       5,
	"junio":      6,
	"julio":      7,
	"agosto":     8,
	"septiembre": 9,
	"octubre":    10,
	"noviembre":  11,
	"diciembre":  12,
}

// Date returns text as YYYY-MM-DD. The second result is false when no
// supported format matches.
func Date(text string) (string, bool) {
	t, ok := ParseDate(text)
	if !ok {
		return "", false
	}
	return t.Format(ISODate), true
}

// ParseDate is Date returning a UTC midnight time.
func ParseDate(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	m := longFormDate.FindStringSubmatch(strings.Join(strings.Fields(s), " "))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := spanishMonths[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	iso := fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
	t, err := time.Parse(ISODate, iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
