package intake

// Form is the in-memory field model of a case. It holds the sections of
// every kind; sections a kind does not use stay at their zero value.
type Form struct {
	Identity      Identity      `json:"identity"`
	Contact       Contact       `json:"contact"`
	Fiscal        Fiscal        `json:"fiscal"`
	Spouse        Spouse        `json:"spouse"`
	Household     Household     `json:"household"`
	Insurance     Insurance     `json:"insurance"`
	Business      Business      `json:"business"`
	Company       Company       `json:"company"`
	Financials    Financials    `json:"financials"`
	Confirmations Confirmations `json:"confirmations"`
}

type Identity struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	SIN         string `json:"sin"`
	DateOfBirth string `json:"dateOfBirth"`
}

type Contact struct {
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Mobile     string `json:"mobile"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
}

type Fiscal struct {
	Year string `json:"year"`
}

type Spouse struct {
	HasSpouse           Answer `json:"hasSpouse"`
	IncludeSpouseReturn Answer `json:"includeSpouseReturn"`
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	SIN                 string `json:"sin"`
	DateOfBirth         string `json:"dateOfBirth"`
}

// Filed reports whether the spouse's return is prepared with this case.
func (s Spouse) Filed() bool {
	return s.HasSpouse.IsYes() && s.IncludeSpouseReturn.IsYes()
}

type Household struct {
	DependantCount string      `json:"dependantCount"`
	Dependants     []Dependant `json:"dependants"`
}

// Dependant is a person in the household other than the spouse.
type Dependant struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth"`
	SIN          string `json:"sin"`
	Relationship string `json:"relationship"`
}

// Insurance is the Québec prescription drug coverage period.
type Insurance struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Business struct {
	Name           string            `json:"name"`
	Activity       string            `json:"activity"`
	GrossRevenue   string            `json:"grossRevenue"`
	Expenses       map[string]string `json:"expenses"`
	HomeOffice     Answer            `json:"homeOffice"`
	HomeOfficeArea string            `json:"homeOfficeArea"`
}

type Company struct {
	Name           string `json:"name"`
	NEQ            string `json:"neq"`
	BusinessNumber string `json:"businessNumber"`
	FiscalYearEnd  string `json:"fiscalYearEnd"`
}

type Financials struct {
	Revenue      string `json:"revenue"`
	HasEmployees Answer `json:"hasEmployees"`
	Payroll      string `json:"payroll"`
}

type Confirmations struct {
	Accuracy      bool `json:"accuracy"`
	Documents     bool `json:"documents"`
	Authorization bool `json:"authorization"`
	Terms         bool `json:"terms"`
}

// Clone returns a deep copy.
func (f Form) Clone() Form {
	out := f
	out.Household.Dependants = append([]Dependant{}, f.Household.Dependants...)
	out.Business.Expenses = make(map[string]string, len(f.Business.Expenses))
	for k, v := range f.Business.Expenses {
		out.Business.Expenses[k] = v
	}
	return out
}

// withDefaults replaces nil collections so they encode as [] and {}.
func (f Form) withDefaults() Form {
	if f.Household.Dependants == nil {
		f.Household.Dependants = []Dependant{}
	}
	if f.Business.Expenses == nil {
		f.Business.Expenses = map[string]string{}
	}
	return f
}
