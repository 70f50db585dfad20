package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-openapi/strfmt"
	"github.com/sosodev/duration"
)

var (
	// OData v2 legacy date format: /Date(milliseconds[+/-offset])/
	odataLegacyDateRegex = regexp.MustCompile(`^/Date\((-?\d+)([\+\-]\d{4})?\)/$`)

	// OData v2 Edm.Time: PT{h}H{m}M{s}[.fraction]S with every part optional
	odataLegacyTimeRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.(\d{1,9}))?S)?$`)

	// ISO layouts accepted from services that skip the legacy format
	isoDateTimeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
	}
)

// IsODataLegacyDate checks if a string is in OData v2 legacy date format
func IsODataLegacyDate(s string) bool {
	return odataLegacyDateRegex.MatchString(s)
}

// ParseODataLegacyDate reads /Date(ms)/ and /Date(ms±mmmm)/. The
// milliseconds are the wall clock read as if it were UTC and the optional
// offset is in minutes, so /Date(694224000000-0240)/ is midnight on
// 1992-01-01 at -04:00.
func ParseODataLegacyDate(s string) (time.Time, bool) {
	matches := odataLegacyDateRegex.FindStringSubmatch(s)
	if len(matches) < 2 {
		return time.Time{}, false
	}

	ms, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	wall := time.UnixMilli(ms).UTC()
	if len(matches) < 3 || matches[2] == "" {
		return wall, true
	}

	minutes, err := strconv.Atoi(matches[2][1:])
	if err != nil {
		return time.Time{}, false
	}
	if matches[2][0] == '-' {
		minutes = -minutes
	}
	loc := time.FixedZone("", minutes*60)
	return time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc), true
}

// FormatODataLegacyDate renders t as /Date(ms)/, or /Date(ms±mmmm)/ when
// withOffset is set. The milliseconds always carry t's wall clock.
func FormatODataLegacyDate(t time.Time, withOffset bool) string {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	if !withOffset {
		return fmt.Sprintf("/Date(%d)/", wall.UnixMilli())
	}
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("/Date(%d%s%04d)/", wall.UnixMilli(), sign, offset/60)
}

func parseISODateTime(s string) (time.Time, bool) {
	for _, layout := range isoDateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func wireString(raw any, target string) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", formatErr(raw, target, nil)
	}
	return strings.TrimSpace(s), nil
}

// dateTimeOffsetCodec handles v4 Edm.DateTimeOffset as RFC 3339 with
// fractional seconds.
type dateTimeOffsetCodec struct{}

func (dateTimeOffsetCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := wireString(raw, "time.Time")
	if err != nil {
		return nil, err
	}
	if t, ok := parseISODateTime(s); ok {
		return t, nil
	}
	if t, ok := ParseODataLegacyDate(s); ok {
		return t, nil
	}
	return nil, formatErr(raw, "time.Time", nil)
}

func (dateTimeOffsetCodec) Encode(value any) (any, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, formatErr(value, "time.Time", errUnexpectedType(value))
	}
	return t.Format(time.RFC3339Nano), nil
}

// legacyDateTimeCodec handles the v2 Edm.DateTime and Edm.DateTimeOffset
// /Date(...)/ formats.
type legacyDateTimeCodec struct {
	withOffset bool
}

func (legacyDateTimeCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := wireString(raw, "time.Time")
	if err != nil {
		return nil, err
	}
	if t, ok := ParseODataLegacyDate(s); ok {
		return t, nil
	}
	if t, ok := parseISODateTime(s); ok {
		return t, nil
	}
	return nil, formatErr(raw, "time.Time", nil)
}

func (c legacyDateTimeCodec) Encode(value any) (any, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, formatErr(value, "time.Time", errUnexpectedType(value))
	}
	return FormatODataLegacyDate(t, c.withOffset), nil
}

// dateCodec handles Edm.Date as YYYY-MM-DD. v2 has no date-only type, so
// there the value travels as a midnight /Date(ms)/.
type dateCodec struct {
	legacy bool
}

func decodeDate(raw any, target string) (civil.Date, error) {
	s, err := wireString(raw, target)
	if err != nil {
		return civil.Date{}, err
	}
	if t, ok := ParseODataLegacyDate(s); ok {
		return civil.DateOf(t), nil
	}
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		s = s[:10]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, formatErr(raw, target, err)
	}
	return d, nil
}

func (dateCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := decodeDate(raw, "civil.Date")
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (c dateCodec) Encode(value any) (any, error) {
	d, ok := value.(civil.Date)
	if !ok {
		return nil, formatErr(value, "civil.Date", errUnexpectedType(value))
	}
	if c.legacy {
		return FormatODataLegacyDate(d.In(time.UTC), false), nil
	}
	return d.String(), nil
}

// timeOfDayCodec handles v4 Edm.TimeOfDay as HH:MM:SS with the fraction
// written in groups of three digits.
type timeOfDayCodec struct{}

func (timeOfDayCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := wireString(raw, "civil.Time")
	if err != nil {
		return nil, err
	}
	if len(s) == 5 {
		s += ":00"
	}
	t, err := civil.ParseTime(s)
	if err != nil {
		return nil, formatErr(raw, "civil.Time", err)
	}
	return t, nil
}

func (timeOfDayCodec) Encode(value any) (any, error) {
	t, ok := value.(civil.Time)
	if !ok {
		return nil, formatErr(value, "civil.Time", errUnexpectedType(value))
	}
	return fmt.Sprintf("%02d:%02d:%02d%s", t.Hour, t.Minute, t.Second, fraction(t.Nanosecond)), nil
}

// fraction renders nanoseconds as ".mmm", ".mmmuuu" or ".mmmuuunnn", or
// nothing for zero.
func fraction(nanos int) string {
	if nanos == 0 {
		return ""
	}
	digits := fmt.Sprintf("%09d", nanos)
	for len(digits) > 3 && strings.HasSuffix(digits, "000") {
		digits = digits[:len(digits)-3]
	}
	return "." + digits
}

// legacyTimeCodec handles v2 Edm.Time, written PT{h}H{m}M{s}S.
type legacyTimeCodec struct{}

func (legacyTimeCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := wireString(raw, "civil.Time")
	if err != nil {
		return nil, err
	}
	m := odataLegacyTimeRegex.FindStringSubmatch(s)
	if m == nil || s == "PT" {
		return nil, formatErr(raw, "civil.Time", nil)
	}
	part := func(i int) int {
		n, _ := strconv.Atoi(m[i])
		return n
	}
	t := civil.Time{Hour: part(1), Minute: part(2), Second: part(3)}
	if m[4] != "" {
		frac := m[4] + strings.Repeat("0", 9-len(m[4]))
		t.Nanosecond, _ = strconv.Atoi(frac)
	}
	if !t.IsValid() {
		return nil, formatErr(raw, "civil.Time", fmt.Errorf("time of day out of range"))
	}
	return t, nil
}

func (legacyTimeCodec) Encode(value any) (any, error) {
	t, ok := value.(civil.Time)
	if !ok {
		return nil, formatErr(value, "civil.Time", errUnexpectedType(value))
	}
	if t.Nanosecond != 0 {
		return fmt.Sprintf("PT%dH%dM%d%sS", t.Hour, t.Minute, t.Second, fraction(t.Nanosecond)), nil
	}
	return fmt.Sprintf("PT%dH%dM%dS", t.Hour, t.Minute, t.Second), nil
}

// durationCodec handles Edm.Duration as an ISO 8601 duration.
type durationCodec struct{}

func (durationCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := wireString(raw, "time.Duration")
	if err != nil {
		return nil, err
	}
	d, err := duration.Parse(s)
	if err != nil {
		return nil, formatErr(raw, "time.Duration", err)
	}
	return d.ToTimeDuration(), nil
}

func (durationCodec) Encode(value any) (any, error) {
	d, ok := value.(time.Duration)
	if !ok {
		return nil, formatErr(value, "time.Duration", errUnexpectedType(value))
	}
	return duration.FromTimeDuration(d).String(), nil
}

// strfmtDateCodec handles strfmt.Date with the Edm.Date wire format.
type strfmtDateCodec struct {
	legacy bool
}

func (strfmtDateCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := decodeDate(raw, "strfmt.Date")
	if err != nil {
		return nil, err
	}
	return strfmt.Date(d.In(time.UTC)), nil
}

func (c strfmtDateCodec) Encode(value any) (any, error) {
	d, ok := value.(strfmt.Date)
	if !ok {
		return nil, formatErr(value, "strfmt.Date", errUnexpectedType(value))
	}
	if c.legacy {
		return FormatODataLegacyDate(time.Time(d), false), nil
	}
	return d.String(), nil
}
