package validation

import (
	"regexp"
	"strconv"
	"strings"
)

// Violation is one failed rule. Field is a dotted path relative to Section
// (e.g. "firstName" or "dependants.0.dateOfBirth").
type Violation struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Code    string `json:"code"`
}

// Key returns "section.field".
func (v Violation) Key() string { return v.Section + "." + v.Field }

// Violations keeps rule failures in evaluation order.
type Violations []Violation

func (v Violations) Empty() bool { return len(v) == 0 }

// Add appends a violation.
func (v *Violations) Add(section, field, code string) {
	*v = append(*v, Violation{Section: section, Field: field, Code: code})
}

// InSection returns the violations that belong to section, in order.
func (v Violations) InSection(section string) Violations {
	var out Violations
	for _, x := range v {
		if x.Section == section {
			out = append(out, x)
		}
	}
	return out
}

// ByKey maps "section.field" to the first code reported for it.
func (v Violations) ByKey() map[string]string {
	m := make(map[string]string, len(v))
	for _, x := range v {
		if _, ok := m[x.Key()]; !ok {
			m[x.Key()] = x.Code
		}
	}
	return m
}

// Checker appends violations for a single section.
type Checker struct {
	section string
	out     *Violations
}

// For returns a Checker that writes section violations into v.
func For(section string, v *Violations) Checker {
	return Checker{section: section, out: v}
}

// Section returns the section the checker reports for.
func (c Checker) Section() string { return c.section }

// Fail records code for field unconditionally.
func (c Checker) Fail(field, code string) { c.out.Add(c.section, field, code) }

// Required fails on blank values and reports whether value was present.
func (c Checker) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		c.Fail(field, "required")
		return false
	}
	return true
}

// Year requires a 4-digit year in [2000, 2100].
func (c Checker) Year(field, value string) {
	if !c.Required(field, value) {
		return
	}
	if !IsYear(value) {
		c.Fail(field, "invalid_year")
	}
}

// SIN requires a national id of exactly 9 digits once separators are stripped.
func (c Checker) SIN(field, value string) {
	if !c.Required(field, value) {
		return
	}
	if !IsSIN(value) {
		c.Fail(field, "invalid_sin")
	}
}

// OptionalSIN validates the format only when a value is present.
func (c Checker) OptionalSIN(field, value string) {
	if strings.TrimSpace(value) != "" && !IsSIN(value) {
		c.Fail(field, "invalid_sin")
	}
}

// Date requires DD/MM/YYYY that exists on the calendar.
func (c Checker) Date(field, value string) {
	if !c.Required(field, value) {
		return
	}
	if !IsDate(value) {
		c.Fail(field, "invalid_date")
	}
}

// PostalCode requires 6 alphanumerics once separators are stripped.
func (c Checker) PostalCode(field, value string) {
	if !c.Required(field, value) {
		return
	}
	if !IsPostalCode(value) {
		c.Fail(field, "invalid_postal_code")
	}
}

// Email requires a syntactically plausible address.
func (c Checker) Email(field, value string) {
	if !c.Required(field, value) {
		return
	}
	if !IsEmail(value) {
		c.Fail(field, "invalid_email")
	}
}

// OneOf requires value to be one of allowed.
func (c Checker) OneOf(field, value, code string, allowed []string) {
	if !c.Required(field, value) {
		return
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(value), a) {
			return
		}
	}
	c.Fail(field, code)
}

// Amount requires a non-negative decimal.
func (c Checker) Amount(field, value string) {
	if !c.Required(field, value) {
		return
	}
	if _, ok := ParseAmount(value); !ok {
		c.Fail(field, "invalid_amount")
	}
}

// OptionalAmount validates the format only when a value is present.
func (c Checker) OptionalAmount(field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if _, ok := ParseAmount(value); !ok {
		c.Fail(field, "invalid_amount")
	}
}

// DigitsExactly requires n digits once separators are stripped.
func (c Checker) DigitsExactly(field, value string, n int, code string) {
	if !c.Required(field, value) {
		return
	}
	if len(Digits(value)) != n || strings.IndexFunc(value, isLetter) >= 0 {
		c.Fail(field, code)
	}
}

// AtLeastOne requires one of the values to be present. The violation is
// reported against field.
func (c Checker) AtLeastOne(field, code string, values ...string) {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return
		}
	}
	c.Fail(field, code)
}

// Checked requires a confirmation box to be ticked.
func (c Checker) Checked(field string, value bool) {
	if !value {
		c.Fail(field, "must_confirm")
	}
}

var (
	yearRe  = regexp.MustCompile(`^\d{4}$`)
	dateRe  = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// IsYear reports whether s is a 4-digit year between 2000 and 2100.
func IsYear(s string) bool {
	s = strings.TrimSpace(s)
	if !yearRe.MatchString(s) {
		return false
	}
	y, _ := strconv.Atoi(s)
	return y >= 2000 && y <= 2100
}

// IsSIN reports whether s holds exactly 9 digits once separators are removed.
func IsSIN(s string) bool {
	return len(Digits(s)) == 9 && strings.IndexFunc(s, isLetter) < 0
}

// IsDate reports whether s is a real DD/MM/YYYY date with a year in [1900, 2100].
func IsDate(s string) bool {
	m := dateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return false
	}
	d, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	y, _ := strconv.Atoi(m[3])
	if y < 1900 || y > 2100 || mo < 1 || mo > 12 {
		return false
	}
	return d >= 1 && d <= DaysInMonth(y, mo)
}

// DaysInMonth returns the number of days in month (1-12) of year.
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// IsPostalCode reports whether s holds 6 letters or digits once separators are removed.
func IsPostalCode(s string) bool {
	return len(Alnum(s)) == 6
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ParseAmount accepts "1234", "1234.56", "1 234,56" and "$1,234.56".
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

// Digits keeps only ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Alnum keeps only ASCII letters and digits, uppercased.
func Alnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
