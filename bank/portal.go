// Package bank pins down every URL and CSS selector used against the
// Mercantile online-banking portal. The portal has no API and no stable
// markup contract, so when it changes, this file is where the fix goes.
package bank

// Portal describes one bank portal: where to log in, how to recognise the
// authenticated area, and where each data view lives.
type Portal struct {
	// LoginURL is the fixed login entry point.
	LoginURL string

	// Login form fields, in fill order.
	IdentifierField   string
	PasswordField     string
	SecurityCodeField string
	SubmitButton      string

	// LoginForm matches the login form container. Its presence after
	// submit means we are still (or again) on the login page.
	LoginForm string

	// LoginError matches the portal's inline rejection message.
	LoginError string

	// DashboardMarker is present only inside the authenticated area.
	// This is the login success signal; "the page navigated" is not,
	// because a rejected login also navigates.
	DashboardMarker string

	// Sub-pages of the authenticated area. Empty means the view is read
	// off the dashboard without navigating.
	AccountsURL string
	DebitsURL   string
	LoansURL    string

	// View containers, one per extraction step.
	DashboardPanel string
	AccountsTable  string
	BalancesTable  string
	DebitsTable    string
	LoansTable     string

	// TotalBalance and its currency inside the dashboard panel.
	TotalBalanceCell string
	CurrencyCell     string
}

// Mercantile returns the selector map for the Mercantile online portal.
// Discovered by probing the rendered frames; keep entries in sync with the
// portal, not with what its HTML source claims.
func Mercantile() *Portal {
	return &Portal{
		LoginURL: "https://online.mercantile.co.il/login",

		IdentifierField:   `input#tzId`,
		PasswordField:     `input#tzPassword`,
		SecurityCodeField: `input#aidvCode`,
		SubmitButton:      `button#proceed`,

		LoginForm:       `form#login-form`,
		LoginError:      `div.login-error, span#error-message`,
		DashboardMarker: `div#osh-dashboard`,

		AccountsURL: "https://online.mercantile.co.il/accounts",
		DebitsURL:   "https://online.mercantile.co.il/debits/authorizations",
		LoansURL:    "https://online.mercantile.co.il/loans",

		DashboardPanel: `div#osh-dashboard`,
		AccountsTable:  `table#accounts-table`,
		BalancesTable:  `table#balances-table`,
		DebitsTable:    `table#debit-authorizations`,
		LoansTable:     `table#loans-table`,

		TotalBalanceCell: `span#total-balance`,
		CurrencyCell:     `span#total-balance-currency`,
	}
}
