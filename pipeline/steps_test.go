package pipeline

import (
	"errors"
	"testing"

	"github.com/Suleiman700/mercantile-scraper/bank"
	"github.com/Suleiman700/mercantile-scraper/models"
)

const accountsHTML = `
<table id="accounts-table">
  <thead><tr><th>Account</th><th>Label</th><th>Branch</th></tr></thead>
  <tbody>
    <tr><td>104-123456</td><td>Private account</td><td>104</td></tr>
    <tr><td>104-654321</td><td>Savings</td><td>104</td></tr>
  </tbody>
</table>`

const balancesHTML = `
<table id="balances-table">
  <tr><th>Account</th><th>Current</th><th>Available</th><th>Currency</th></tr>
  <tr><td>104-123456</td><td>12,345.67</td><td>15,345.67</td><td>ILS</td></tr>
  <tr><td>104-654321</td><td>(250.00)</td><td>0</td><td>ILS</td></tr>
</table>`

const debitsHTML = `
<table id="debit-authorizations">
  <tr><th>Beneficiary</th><th>Institution</th><th>Amount</th><th>Frequency</th><th>Last charge</th></tr>
  <tr><td>Electric Corp</td><td>11223</td><td>₪ 412.30</td><td>monthly</td><td>01/08/2026</td></tr>
  <tr><td>Water Authority</td><td>44556</td><td>89.90</td><td>bi-monthly</td><td>15/07/2026</td></tr>
</table>`

const loansHTML = `
<table id="loans-table">
  <tr><th>Loan</th><th>Principal</th><th>Outstanding</th><th>Monthly</th><th>Next payment</th></tr>
  <tr><td>L-778899</td><td>100,000.00</td><td>64,210.55</td><td>1,850.00</td><td>10/09/2026</td></tr>
</table>`

const dashboardHTML = `
<div id="osh-dashboard">
  <h2>Account overview</h2>
  <span id="total-balance">12,095.67</span>
  <span id="total-balance-currency">ILS</span>
  <p>Welcome back.</p>
</div>`

func TestStepsOrder(t *testing.T) {
	steps := Steps(bank.Mercantile())
	want := []string{
		models.ViewDashboard,
		models.ViewAccounts,
		models.ViewBalances,
		models.ViewDebits,
		models.ViewLoans,
	}
	if len(steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.Name() != want[i] {
			t.Errorf("step %d = %q, want %q", i, step.Name(), want[i])
		}
	}
	if steps[0].url != "" {
		t.Errorf("dashboard step should read the current page, got url %q", steps[0].url)
	}
	for _, step := range steps[1:] {
		if step.url == "" {
			t.Errorf("step %s should navigate to a sub-page", step.Name())
		}
	}
}

func TestParseAccounts(t *testing.T) {
	v, err := parseAccounts(accountsHTML)
	if err != nil {
		t.Fatalf("parseAccounts: %v", err)
	}
	accounts := v.([]models.Account)
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	first := models.Account{Number: "104-123456", Label: "Private account", Branch: "104"}
	if accounts[0] != first {
		t.Errorf("accounts[0] = %+v, want %+v", accounts[0], first)
	}
}

func TestParseBalances(t *testing.T) {
	v, err := parseBalances(balancesHTML)
	if err != nil {
		t.Fatalf("parseBalances: %v", err)
	}
	balances := v.([]models.Balance)
	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	if balances[0].Current != 12345.67 || balances[0].Available != 15345.67 {
		t.Errorf("balances[0] = %+v", balances[0])
	}
	if balances[1].Current != -250 {
		t.Errorf("parenthesised balance = %v, want -250", balances[1].Current)
	}
	if balances[0].Currency != "ILS" {
		t.Errorf("currency = %q, want ILS", balances[0].Currency)
	}
}

func TestParseBalances_BadAmounts(t *testing.T) {
	bad := `<table><tr><td>104-1</td><td>not a number</td></tr></table>`
	if _, err := parseBalances(bad); err == nil {
		t.Fatal("expected error for unparsable balance amount")
	}
}

func TestParseDebits(t *testing.T) {
	v, err := parseDebits(debitsHTML)
	if err != nil {
		t.Fatalf("parseDebits: %v", err)
	}
	debits := v.([]models.DebitAuthorization)
	if len(debits) != 2 {
		t.Fatalf("got %d debits, want 2", len(debits))
	}
	want := models.DebitAuthorization{
		Beneficiary:   "Electric Corp",
		InstitutionID: "11223",
		Amount:        412.30,
		Frequency:     "monthly",
		LastCharge:    "01/08/2026",
	}
	if debits[0] != want {
		t.Errorf("debits[0] = %+v, want %+v", debits[0], want)
	}
}

func TestParseLoans(t *testing.T) {
	v, err := parseLoans(loansHTML)
	if err != nil {
		t.Fatalf("parseLoans: %v", err)
	}
	loans := v.([]models.Loan)
	if len(loans) != 1 {
		t.Fatalf("got %d loans, want 1", len(loans))
	}
	l := loans[0]
	if l.Number != "L-778899" || l.Principal != 100000 || l.Outstanding != 64210.55 ||
		l.MonthlyPayment != 1850 || l.NextPayment != "10/09/2026" {
		t.Errorf("loans[0] = %+v", l)
	}
}

func TestTableRows(t *testing.T) {
	rows, err := tableRows(accountsHTML)
	if err != nil {
		t.Fatalf("tableRows: %v", err)
	}
	// Header row is th-only and must be skipped.
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0][0] != "104-123456" {
		t.Errorf("rows[0][0] = %q", rows[0][0])
	}
}

func TestTableRows_NoTable(t *testing.T) {
	if _, err := tableRows(`<div>maintenance notice</div>`); err == nil {
		t.Fatal("expected error for fragment without a table")
	}
}

func TestParseDashboard(t *testing.T) {
	portal := bank.Mercantile()
	parse := parseDashboard(portal, newMarkdownConverter())

	v, err := parse(dashboardHTML)
	if err != nil {
		t.Fatalf("parseDashboard: %v", err)
	}
	summary := v.(models.DashboardSummary)
	if summary.TotalBalance != 12095.67 {
		t.Errorf("TotalBalance = %v, want 12095.67", summary.TotalBalance)
	}
	if summary.Currency != "ILS" {
		t.Errorf("Currency = %q, want ILS", summary.Currency)
	}
	if summary.Summary == "" {
		t.Error("markdown summary is empty")
	}
}

func TestStepParse_WrapsUntypedErrors(t *testing.T) {
	step := &Step{
		name:  "loans",
		parse: func(string) (any, error) { return nil, errors.New("boom") },
	}
	_, err := step.Parse("<html></html>")
	if err == nil {
		t.Fatal("expected error")
	}
	se := models.AsScrapeError(err)
	if se.Code != models.ErrCodeParse {
		t.Errorf("code = %q, want %q", se.Code, models.ErrCodeParse)
	}
}

func TestNarrow(t *testing.T) {
	raw := `<div id="a"><span class="x">one</span><span class="x">two</span></div>`

	got, err := narrow(raw, "span.x")
	if err != nil {
		t.Fatalf("narrow: %v", err)
	}
	if got != `<span class="x">one</span><span class="x">two</span>` {
		t.Errorf("narrow = %q", got)
	}

	// No match falls back to the input so callers still have content.
	got, err = narrow(raw, "table#missing")
	if err != nil {
		t.Fatalf("narrow: %v", err)
	}
	if got != raw {
		t.Errorf("no-match narrow should return input unchanged, got %q", got)
	}
}
