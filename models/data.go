package models

import "time"

// View names produced by the extraction pipeline. These are the keys of
// ScrapeResult.Views and the fixed execution order.
const (
	ViewDashboard = "dashboard"
	ViewAccounts  = "accounts"
	ViewBalances  = "balances"
	ViewDebits    = "debit_authorizations"
	ViewLoans     = "loans"
)

// Account is one account row from the accounts view.
type Account struct {
	Number string `json:"number"`
	Label  string `json:"label,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Balance is the balance line of one account.
type Balance struct {
	AccountNumber string  `json:"account_number"`
	Current       float64 `json:"current"`
	Available     float64 `json:"available,omitempty"`
	Currency      string  `json:"currency"`
}

// DebitAuthorization is one standing debit authorization row.
type DebitAuthorization struct {
	Beneficiary   string  `json:"beneficiary"`
	InstitutionID string  `json:"institution_id,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Frequency     string  `json:"frequency,omitempty"`
	LastCharge    string  `json:"last_charge,omitempty"`
}

// Loan is one loan row from the loans view.
type Loan struct {
	Number         string  `json:"number"`
	Principal      float64 `json:"principal,omitempty"`
	Outstanding    float64 `json:"outstanding"`
	MonthlyPayment float64 `json:"monthly_payment,omitempty"`
	NextPayment    string  `json:"next_payment,omitempty"`
}

// DashboardSummary is the rendered account-dashboard overview.
type DashboardSummary struct {
	TotalBalance float64 `json:"total_balance,omitempty"`
	Currency     string  `json:"currency,omitempty"`

	// Summary is the dashboard panel rendered as markdown, kept alongside
	// the parsed figures because the panel's free-form notices (fees,
	// holds, messages from the bank) have no stable schema.
	Summary string `json:"summary,omitempty"`
}

// ViewResult is one data view's outcome: either Data or Error is set.
type ViewResult struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ScrapeResult is the aggregated, partial-success-tolerant output of one
// authenticated session.
type ScrapeResult struct {
	Success   bool                  `json:"success"`
	Timestamp time.Time             `json:"timestamp"`
	Views     map[string]ViewResult `json:"views"`
}

// ViewOrder is the fixed execution order of the pipeline. Order does not
// affect correctness (steps are independent) but keeps logs and diffs stable.
var ViewOrder = []string{ViewDashboard, ViewAccounts, ViewBalances, ViewDebits, ViewLoans}
