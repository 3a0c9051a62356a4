package intake

import (
	"strings"

	"github.com/diewo77/go-intake/validation"
)

func capLen(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// NormalizeSIN keeps at most 9 digits.
func NormalizeSIN(s string) string { return capLen(validation.Digits(s), 9) }

// NormalizePostalCode keeps at most 6 uppercase letters or digits.
func NormalizePostalCode(s string) string { return capLen(validation.Alnum(s), 6) }

// NormalizePhone keeps at most 10 digits.
func NormalizePhone(s string) string { return capLen(validation.Digits(s), 10) }

// NormalizeEmail trims and lowercases.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// NormalizeNEQ keeps at most 10 digits.
func NormalizeNEQ(s string) string { return capLen(validation.Digits(s), 10) }

// NormalizeBusinessNumber keeps at most 9 digits.
func NormalizeBusinessNumber(s string) string { return capLen(validation.Digits(s), 9) }

// NormalizeProvince uppercases a two-letter province code.
func NormalizeProvince(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// group joins digits in chunks of the given sizes, as far as the input goes.
func group(d string, sep string, sizes ...int) string {
	var parts []string
	for _, n := range sizes {
		if d == "" {
			break
		}
		if len(d) < n {
			n = len(d)
		}
		parts = append(parts, d[:n])
		d = d[n:]
	}
	return strings.Join(parts, sep)
}

// FormatSIN renders 123456789 as 123-456-789. Partial input is grouped as far as it goes.
func FormatSIN(s string) string { return group(NormalizeSIN(s), "-", 3, 3, 3) }

// FormatPhone renders 5145550100 as 514-555-0100.
func FormatPhone(s string) string { return group(NormalizePhone(s), "-", 3, 3, 4) }

// FormatPostalCode renders H2X1Y4 as H2X 1Y4.
func FormatPostalCode(s string) string { return group(NormalizePostalCode(s), " ", 3, 3) }

// FormatDateInput masks digit input as DD/MM/YYYY ("31022024" -> "31/02/2024").
// Values containing anything but digits and slashes are returned trimmed and untouched.
func FormatDateInput(s string) string {
	s = strings.TrimSpace(s)
	if strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '/' }) >= 0 {
		return s
	}
	return group(capLen(validation.Digits(s), 8), "/", 2, 2, 4)
}

// Normalize returns the storage form: identifiers stripped to their canonical
// characters, email lowercased, collections never nil.
func Normalize(f Form) Form {
	f = f.Clone().withDefaults()
	f.Identity.SIN = NormalizeSIN(f.Identity.SIN)
	f.Spouse.SIN = NormalizeSIN(f.Spouse.SIN)
	for i := range f.Household.Dependants {
		f.Household.Dependants[i].SIN = NormalizeSIN(f.Household.Dependants[i].SIN)
	}
	f.Contact.Email = NormalizeEmail(f.Contact.Email)
	f.Contact.Phone = NormalizePhone(f.Contact.Phone)
	f.Contact.Mobile = NormalizePhone(f.Contact.Mobile)
	f.Contact.PostalCode = NormalizePostalCode(f.Contact.PostalCode)
	f.Contact.Province = NormalizeProvince(f.Contact.Province)
	f.Company.NEQ = NormalizeNEQ(f.Company.NEQ)
	f.Company.BusinessNumber = NormalizeBusinessNumber(f.Company.BusinessNumber)
	return f
}

// Mask applies the input masks shown while editing. It is idempotent.
func Mask(f Form) Form {
	f = f.Clone().withDefaults()
	f.Identity.SIN = FormatSIN(f.Identity.SIN)
	f.Identity.DateOfBirth = FormatDateInput(f.Identity.DateOfBirth)
	f.Spouse.SIN = FormatSIN(f.Spouse.SIN)
	f.Spouse.DateOfBirth = FormatDateInput(f.Spouse.DateOfBirth)
	for i := range f.Household.Dependants {
		d := &f.Household.Dependants[i]
		d.SIN = FormatSIN(d.SIN)
		d.DateOfBirth = FormatDateInput(d.DateOfBirth)
	}
	f.Contact.Phone = FormatPhone(f.Contact.Phone)
	f.Contact.Mobile = FormatPhone(f.Contact.Mobile)
	f.Contact.PostalCode = FormatPostalCode(f.Contact.PostalCode)
	f.Insurance.Start = FormatDateInput(f.Insurance.Start)
	f.Insurance.End = FormatDateInput(f.Insurance.End)
	f.Company.FiscalYearEnd = FormatDateInput(f.Company.FiscalYearEnd)
	return f
}
