package intake

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/validation"
)

// Section names. A step validates one or more sections.
const (
	SectionIdentity      = "identity"
	SectionContact       = "contact"
	SectionFiscal        = "fiscal"
	SectionSpouse        = "spouse"
	SectionHousehold     = "household"
	SectionInsurance     = "insurance"
	SectionBusiness      = "business"
	SectionCompany       = "company"
	SectionFinancials    = "financials"
	SectionConfirmations = "confirmations"
)

// Provinces are the accepted province and territory codes.
var Provinces = []string{"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE", "QC", "SK", "YT"}

type sectionRules func(c validation.Checker, f Form)

var sectionTable = map[string]sectionRules{
	SectionIdentity:      identityRules,
	SectionContact:       contactRules,
	SectionFiscal:        fiscalRules,
	SectionSpouse:        spouseRules,
	SectionHousehold:     householdRules,
	SectionInsurance:     insuranceRules,
	SectionBusiness:      businessRules,
	SectionCompany:       companyRules,
	SectionFinancials:    financialsRules,
	SectionConfirmations: confirmationRules,
}

// KnownSection reports whether name has rules.
func KnownSection(name string) bool {
	_, ok := sectionTable[name]
	return ok
}

// Validate runs every rule of the given sections, in order, without stopping at
// the first failure. It has no side effects.
func Validate(sections []string, f Form) validation.Violations {
	var v validation.Violations
	for _, s := range sections {
		if rules, ok := sectionTable[s]; ok {
			rules(validation.For(s, &v), f)
		}
	}
	return v
}

// SectionStatus is one line of the per-section checklist.
type SectionStatus struct {
	Section string `json:"section"`
	OK      bool   `json:"ok"`
}

// Summary evaluates each section on its own. A section is OK exactly when
// Validate reports no violation for it.
func Summary(sections []string, f Form) []SectionStatus {
	out := make([]SectionStatus, 0, len(sections))
	for _, s := range sections {
		out = append(out, SectionStatus{Section: s, OK: Validate([]string{s}, f).Empty()})
	}
	return out
}

func identityRules(c validation.Checker, f Form) {
	c.Required("firstName", f.Identity.FirstName)
	c.Required("lastName", f.Identity.LastName)
	c.SIN("sin", f.Identity.SIN)
	c.Date("dateOfBirth", f.Identity.DateOfBirth)
}

func contactRules(c validation.Checker, f Form) {
	c.Email("email", f.Contact.Email)
	c.AtLeastOne("phone", "phone_or_mobile", f.Contact.Phone, f.Contact.Mobile)
	c.Required("street", f.Contact.Street)
	c.Required("city", f.Contact.City)
	c.OneOf("province", f.Contact.Province, "invalid_province", Provinces)
	c.PostalCode("postalCode", f.Contact.PostalCode)
}

func fiscalRules(c validation.Checker, f Form) {
	c.Year("year", f.Fiscal.Year)
}

func spouseRules(c validation.Checker, f Form) {
	s := f.Spouse
	c.Required("hasSpouse", string(s.HasSpouse))
	if s.HasSpouse.IsYes() {
		c.Required("includeSpouseReturn", string(s.IncludeSpouseReturn))
	}
	if !s.Filed() {
		return
	}
	c.Required("firstName", s.FirstName)
	c.Required("lastName", s.LastName)
	c.SIN("sin", s.SIN)
	c.Date("dateOfBirth", s.DateOfBirth)
}

func householdRules(c validation.Checker, f Form) {
	h := f.Household
	count := 0
	if v := strings.TrimSpace(h.DependantCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.Fail("dependantCount", "invalid_count")
		} else {
			count = n
		}
	}
	if count > 0 && len(h.Dependants) == 0 {
		c.Fail("dependants", "dependants_required")
	}
	for i, d := range h.Dependants {
		p := fmt.Sprintf("dependants.%d.", i)
		c.Required(p+"firstName", d.FirstName)
		c.Required(p+"lastName", d.LastName)
		c.Date(p+"dateOfBirth", d.DateOfBirth)
		c.OptionalSIN(p+"sin", d.SIN)
	}
}

func insuranceRules(c validation.Checker, f Form) {
	if NormalizeProvince(f.Contact.Province) != "QC" {
		return
	}
	c.Date("start", f.Insurance.Start)
	c.Date("end", f.Insurance.End)
}

func businessRules(c validation.Checker, f Form) {
	b := f.Business
	c.Required("name", b.Name)
	c.Required("activity", b.Activity)
	c.Amount("grossRevenue", b.GrossRevenue)
	cats := make([]string, 0, len(b.Expenses))
	for k := range b.Expenses {
		cats = append(cats, k)
	}
	sort.Strings(cats)
	for _, k := range cats {
		c.OptionalAmount("expenses."+k, b.Expenses[k])
	}
	c.Required("homeOffice", string(b.HomeOffice))
	if b.HomeOffice.IsYes() {
		c.Amount("homeOfficeArea", b.HomeOfficeArea)
	}
}

func companyRules(c validation.Checker, f Form) {
	co := f.Company
	c.Required("name", co.Name)
	c.DigitsExactly("neq", co.NEQ, 10, "invalid_neq")
	if strings.TrimSpace(co.BusinessNumber) != "" {
		c.DigitsExactly("businessNumber", co.BusinessNumber, 9, "invalid_business_number")
	}
	c.Date("fiscalYearEnd", co.FiscalYearEnd)
}

func financialsRules(c validation.Checker, f Form) {
	fi := f.Financials
	c.Amount("revenue", fi.Revenue)
	c.Required("hasEmployees", string(fi.HasEmployees))
	if fi.HasEmployees.IsYes() {
		c.Amount("payroll", fi.Payroll)
	}
}

func confirmationRules(c validation.Checker, f Form) {
	c.Checked("accuracy", f.Confirmations.Accuracy)
	c.Checked("documents", f.Confirmations.Documents)
	c.Checked("authorization", f.Confirmations.Authorization)
	c.Checked("terms", f.Confirmations.Terms)
}

// Label returns the localized label of the field a violation points at.
func Label(lang string, v validation.Violation) string {
	if rest, ok := strings.CutPrefix(v.Field, "dependants."); ok {
		idx, name, found := strings.Cut(rest, ".")
		if n, err := strconv.Atoi(idx); found && err == nil {
			return fmt.Sprintf("%s #%d", i18n.T(lang, "field.dependant."+name), n+1)
		}
	}
	if cat, ok := strings.CutPrefix(v.Field, "expenses."); ok {
		return fmt.Sprintf("%s (%s)", i18n.T(lang, "field.business.expenses"), cat)
	}
	return i18n.T(lang, "field."+v.Section+"."+v.Field)
}

// Message renders a violation as "Label: reason" in lang.
func Message(lang string, v validation.Violation) string {
	sep := ": "
	if i18n.Normalize(lang) == "fr" {
		sep = " : "
	}
	return Label(lang, v) + sep + i18n.T(lang, v.Code)
}

// LocalizedViolation is a violation with its rendered message.
type LocalizedViolation struct {
	validation.Violation
	Message string `json:"message"`
}

// Localize renders every violation in lang, preserving order.
func Localize(lang string, vs validation.Violations) []LocalizedViolation {
	out := make([]LocalizedViolation, 0, len(vs))
	for _, v := range vs {
		out = append(out, LocalizedViolation{Violation: v, Message: Message(lang, v)})
	}
	return out
}
