package freight

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reNonID      = regexp.MustCompile(`[^A-Za-z0-9-]`)
	reNonNumeric = regexp.MustCompile(`[^0-9.-]`)
	reStateToken = regexp.MustCompile(`\b[A-Z]{2}\b`)
	reReference  = regexp.MustCompile(`^[A-Z0-9-]{3,}$`)
)

// JavaScript-style epoch milliseconds are only meaningful within ±100M days.
const maxEpochMillis = 8.64e15

// dateLayouts are tried in order. Layouts without a zone keep the calendar
// date as written; layouts with a zone are converted to UTC first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
	"01/02/2006 15:04",
	"1/2/2006 3:04 PM",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan. 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
}

// text returns the usable string payload of a raw field. Numbers are rendered
// the way they would print; bool, object and array kinds carry no text.
func text(v Value) (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return "", false
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64), true
	default:
		return "", false
	}
}

// TextOrNil trims a raw field; blank input becomes nil.
func TextOrNil(v Value) *string {
	s, ok := text(v)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SanitizeID keeps only letters, digits and hyphens and upper-cases the
// result. Used for BOL, PRO and PO numbers.
func SanitizeID(v Value) *string {
	s := TextOrNil(v)
	if s == nil {
		return nil
	}
	id := strings.ToUpper(reNonID.ReplaceAllString(*s, ""))
	if id == "" {
		return nil
	}
	return &id
}

// ToISODate parses a date string or an epoch-milliseconds number into
// YYYY-MM-DD. Anything unparsable, or outside years 0001-9999, is nil.
func ToISODate(v Value) *string {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) || math.Abs(v.Num) > maxEpochMillis {
			return nil
		}
		t := time.UnixMilli(int64(v.Num)).UTC()
		if t.Year() < 1 || t.Year() > 9999 {
			return nil
		}
		iso := t.Format(time.DateOnly)
		return &iso
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return nil
		}
		t, ok := parseDate(s)
		if !ok {
			return nil
		}
		iso := t.Format(time.DateOnly)
		return &iso
	default:
		return nil
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ToNumber strips currency symbols, separators and units and parses what is
// left. Empty or non-finite results are nil.
func ToNumber(v Value) *float64 {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return nil
		}
		n := v.Num
		return &n
	case KindString:
		s := reNonNumeric.ReplaceAllString(v.Str, "")
		if s == "" {
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// NormalizeDocumentType maps a raw type tag onto the known set. Case,
// surrounding space and space/hyphen separators are forgiven; anything
// else is UNKNOWN.
func NormalizeDocumentType(v Value) DocumentType {
	s, ok := text(v)
	if !ok {
		return DocumentTypeUnknown
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch DocumentType(s) {
	case DocumentTypeBOL, DocumentTypePOD, DocumentTypeRateConfirmation:
		return DocumentType(s)
	default:
		return DocumentTypeUnknown
	}
}

// CheckAddress returns a warning when an address has no two-letter
// state-code token. A nil address is not checked.
func CheckAddress(address *string, field string) []ValidationIssue {
	if address == nil || reStateToken.MatchString(*address) {
		return nil
	}
	return []ValidationIssue{{
		Field:    field,
		Severity: SeverityWarning,
		Reason:   ReasonFormat,
		Message:  "Address is missing a recognizable state or city.",
	}}
}

// PickPrimaryPage returns the earliest page that asserts a concrete document
// type, falling back to the first page. It returns nil for no pages.
// Tags are compared after NormalizeDocumentType, so a page tagged "bol" or
// "Rate-Confirmation" counts as concrete.
func PickPrimaryPage(pages []RawPageExtraction) *RawPageExtraction {
	if len(pages) == 0 {
		return nil
	}
	for i := range pages {
		if NormalizeDocumentType(pages[i].DocumentType) != DocumentTypeUnknown {
			return &pages[i]
		}
	}
	return &pages[0]
}
