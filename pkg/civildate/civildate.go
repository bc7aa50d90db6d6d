// Package civildate handles calendar dates (year, month, day) that carry no
// time of day and no time zone.
//
// A recuerdo's fecha is a pure calendar date. Parsing "2024-01-15" as an
// instant and reading the day back in another zone can yield the 14th or the
// 16th, so every code path that needs a date goes through this package. Date
// wraps civil.Date and adds the encodings the stores and the API need: empty
// JSON for the zero date and a DATE-safe sql.Scanner/driver.Valuer.
package civildate

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Layout is the only accepted textual form.
const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid calendar date")

// Date is a calendar date. The zero value is "no date".
type Date struct {
	civil.Date
}

// New builds a Date and reports whether it names a real day.
func New(year int, month time.Month, day int) (Date, error) {
	d := Date{civil.Date{Year: year, Month: month, Day: day}}
	if !d.valid() {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return d, nil
}

// Parse reads a YYYY-MM-DD string. Surrounding whitespace is ignored and a
// trailing time component ("2024-01-15T00:00:00Z") is dropped without being
// interpreted, since some stores hand dates back that way.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	cd, err := civil.ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d := Date{cd}
	if !d.valid() {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Of takes the calendar date of t as seen in t's own location.
func Of(t time.Time) Date {
	return Date{civil.DateOf(t)}
}

// Today is the current calendar date in loc. A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return Of(now.In(loc))
}

func (d Date) IsZero() bool {
	return d.Date == civil.Date{}
}

func (d Date) valid() bool {
	return d.Year >= 1 && d.Year <= 9999 && d.Date.IsValid()
}

// In returns midnight of d in loc. A nil loc means time.Local.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return d.Date.In(loc)
}

// Local is d.In(time.Local).
func (d Date) Local() time.Time {
	return d.In(time.Local)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Date.String()
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Date.Before(o.Date):
		return -1
	case d.Date.After(o.Date):
		return 1
	default:
		return 0
	}
}

func (d Date) Before(o Date) bool { return d.Date.Before(o.Date) }
func (d Date) After(o Date) bool  { return d.Date.After(o.Date) }
func (d Date) Equal(o Date) bool  { return d.Date == o.Date }

// SameMonth reports whether d falls in the given year and month.
func (d Date) SameMonth(year int, month time.Month) bool {
	return d.Year == year && d.Month == month
}

// MonthKey is "YYYY-MM", used for per-month aggregates.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	return d.UnmarshalText([]byte(s))
}

// Value stores the date as its YYYY-MM-DD text so DATE columns never see a
// time zone.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan accepts the text, []byte and time.Time forms drivers return for DATE
// columns. A time.Time is read in its own location without conversion.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = Of(v)
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidDate, src)
	}
}
