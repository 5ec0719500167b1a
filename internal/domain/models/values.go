package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day. The zero value means "unset".
type Date struct {
	time.Time
}

// NewDate builds a Date; the result is always normalized to midnight UTC so two
// dates for the same day compare equal.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the local calendar date of now.
func Today(now time.Time) Date {
	return DateOf(now.Local())
}

// ParseDate accepts YYYY-MM-DD as well as full timestamps, keeping only the
// leading date part.
func ParseDate(value string) (Date, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return Date{}, nil
	}
	if len(str) > len(DateLayout) {
		str = str[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, str)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return DateOf(t), nil
}

// MustDate parses value and panics on failure. Used by fixtures and tests.
func MustDate(value string) Date {
	d, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Equal reports whether both values denote the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.String() == other.String()
}

// Within reports whether d lies in the inclusive range [start, end].
func (d Date) Within(start, end Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalBSONValue stores dates as YYYY-MM-DD strings.
func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.String())
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateLayout,
}

// ParseTimestamp reads the datetime shapes a form may submit. Values without a
// zone are interpreted in local time.
func ParseTimestamp(value string) (time.Time, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, str, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported layout", value)
}

// Timestamp is a datetime input that tolerates form-style layouts.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// FlexInt decodes integers sent either as JSON numbers or numeric strings.
// Empty strings decode to zero.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	str, err := flexString(data)
	if err != nil {
		return err
	}
	if str == "" {
		*f = 0
		return nil
	}
	n, err := ParseInt(str)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// FlexFloat decodes decimals sent either as JSON numbers or numeric strings.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	str, err := flexString(data)
	if err != nil {
		return err
	}
	if str == "" {
		*f = 0
		return nil
	}
	v, err := ParseFloat(str)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// ParseInt converts a foreign key or count arriving as text.
func ParseInt(value string) (int, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	if n, err := strconv.Atoi(str); err == nil {
		return n, nil
	}
	// "3.0" style values coming from spreadsheets or number inputs.
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", value, err)
	}
	return int(v), nil
}

// ParseFloat converts an amount arriving as text.
func ParseFloat(value string) (float64, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", value, err)
	}
	return v, nil
}

// Int is a convenience constructor for optional FlexInt fields.
func Int(v int) *FlexInt {
	f := FlexInt(v)
	return &f
}

// Float is a convenience constructor for optional FlexFloat fields.
func Float(v float64) *FlexFloat {
	f := FlexFloat(v)
	return &f
}

// String is a convenience constructor for optional string fields.
func String(v string) *string {
	return &v
}

func flexString(data []byte) (string, error) {
	if isJSONNull(data) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("expected number or numeric string: %w", err)
	}
	return n.String(), nil
}

func isJSONNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
