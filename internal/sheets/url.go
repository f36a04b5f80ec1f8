package sheets

import (
	"regexp"
	"strings"
)

var sheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ExtractSheetID returns the spreadsheet id embedded in a Google Sheets URL.
// ok is false when the URL does not contain one.
func ExtractSheetID(url string) (id string, ok bool) {
	m := sheetURLPattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", false
	}
	return m[1], true
}
