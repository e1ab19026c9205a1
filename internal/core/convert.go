package core

// convert.go canonicalizes single cell values.
//
// Herd spreadsheets mix Brazilian day-first dates, ISO dates and raw
// spreadsheet serials in the same column, write decimals with either comma
// or dot, and spell sex codes a dozen ways. Every function here takes the
// cleaned cell text and either returns a typed value or a reason.

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidNumber = errors.New("invalid number")
)

// SpreadsheetEpoch is day zero of spreadsheet serial dates.
var SpreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// TwoDigitYearWindow is added to the reference year's last two digits to
// get the rollover threshold: two-digit years above it belong to the
// previous century.
const TwoDigitYearWindow = 10

// DaysPerMonth is the average month length used for derived ages.
const DaysPerMonth = 30.44

const maxSerialDate = 2958465 // 9999-12-31

var (
	isoDate     = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	dayFirst    = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{2}|\d{4})$`)
	compactDate = regexp.MustCompile(`^(19|20)(\d{2})(\d{2})(\d{2})$`)
	serialDate  = regexp.MustCompile(`^\d{1,7}(\.\d+)?$`)
)

// Date is a calendar date without time of day.
type Date struct {
	t time.Time
}

// NewDate returns the date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) Time() time.Time { return d.t }
func (d Date) IsZero() bool    { return d.t.IsZero() }
func (d Date) String() string  { return d.t.Format(time.DateOnly) }
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// DayFirst formats the date as DD/MM/YYYY.
func (d Date) DayFirst() string { return d.t.Format("02/01/2006") }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("%w %q", ErrInvalidDate, s)
	}
	d.t = t
	return nil
}

// ParseDate accepts ISO dates, day-first dates with two or four digit
// years, compact YYYYMMDD and spreadsheet serial numbers. A trailing time
// of day is ignored. ref supplies the current century for two-digit years.
func ParseDate(raw string, ref time.Time) (Date, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	invalid := fmt.Errorf("%w %q", ErrInvalidDate, raw)
	if s == "" {
		return Date{}, invalid
	}

	if m := compactDate.FindStringSubmatch(s); m != nil {
		return calendarDate(atoi(m[1]+m[2]), atoi(m[3]), atoi(m[4]), invalid)
	}
	if serialDate.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 1 || f > maxSerialDate {
			return Date{}, invalid
		}
		return DateOf(SpreadsheetEpoch.AddDate(0, 0, int(math.Floor(f)))), nil
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		return calendarDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), invalid)
	}
	if m := dayFirst.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year = expandTwoDigitYear(year, ref.Year())
		}
		return calendarDate(year, atoi(m[2]), atoi(m[1]), invalid)
	}
	return Date{}, invalid
}

// expandTwoDigitYear maps yy into the reference century, or the previous
// one when yy is above (refYear%100)+TwoDigitYearWindow.
func expandTwoDigitYear(yy, refYear int) int {
	century := refYear - refYear%100
	if yy > refYear%100+TwoDigitYearWindow {
		return century - 100 + yy
	}
	return century + yy
}

func calendarDate(year, month, day int, invalid error) (Date, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, invalid
	}
	d := NewDate(year, time.Month(month), day)
	if d.t.Day() != day || int(d.t.Month()) != month {
		return Date{}, invalid
	}
	return d, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Sex is the canonical sex of an animal.
type Sex string

const (
	SexMale   Sex = "Macho"
	SexFemale Sex = "Fêmea"
)

var sexCodes = map[string]Sex{
	"m": SexMale, "macho": SexMale, "male": SexMale, "1": SexMale, "boi": SexMale, "touro": SexMale,
	"f": SexFemale, "femea": SexFemale, "female": SexFemale, "2": SexFemale, "vaca": SexFemale, "novilha": SexFemale,
}

// ParseSex maps single letter codes and free text to a canonical Sex.
func ParseSex(raw string) (Sex, bool) {
	s, ok := sexCodes[NormalizeHeader(raw)]
	return s, ok
}

var (
	currencyNoise = strings.NewReplacer("R$", "", "$", "", "€", "", "kg", "", "KG", "", " ", "", "\u00a0", "")
	numericShape  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
)

// ParseDecimal parses comma or dot decimals with optional thousands
// separators and accounting parentheses. Values that parse but are
// negative or above limit (when limit > 0) come back null without an error:
// they are usually a date or an identifier that landed in the wrong column.
func ParseDecimal(raw string, limit float64) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = normalizeSeparators(currencyNoise.Replace(s))
	if !numericShape.MatchString(s) {
		return decimal.NullDecimal{}, fmt.Errorf("%w %q", ErrInvalidNumber, raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w %q", ErrInvalidNumber, raw)
	}
	if negative {
		d = d.Neg()
	}
	if d.IsNegative() || (limit > 0 && d.GreaterThan(decimal.NewFromFloat(limit))) {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// normalizeSeparators rewrites "1.234,56", "1,234.56" and "12,5" to a dot
// decimal without thousands separators.
func normalizeSeparators(s string) string {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") == 1 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// ParseInteger parses a whole number with the same domain rules as
// ParseDecimal. Fractions are rejected.
func ParseInteger(raw string, limit float64) (*int, error) {
	d, err := ParseDecimal(raw, limit)
	if err != nil || !d.Valid {
		return nil, err
	}
	if !d.Decimal.Equal(d.Decimal.Truncate(0)) {
		return nil, fmt.Errorf("%w %q", ErrInvalidNumber, raw)
	}
	n := int(d.Decimal.IntPart())
	return &n, nil
}

// DeriveAgeMonths returns ceil(days since birth / 30.44). Births after ref
// have no age.
func DeriveAgeMonths(birth Date, ref time.Time) (int, bool) {
	days := DateOf(ref).t.Sub(birth.t).Hours() / 24
	if days < 0 {
		return 0, false
	}
	return int(math.Ceil(days / DaysPerMonth)), true
}
