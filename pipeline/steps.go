package pipeline

import (
	"errors"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"

	"github.com/Suleiman700/mercantile-scraper/bank"
	"github.com/Suleiman700/mercantile-scraper/models"
)

// Steps builds the portal's extraction steps in their fixed order:
// dashboard first (it is the page login lands on), then the sub-pages.
func Steps(portal *bank.Portal) []*Step {
	md := newMarkdownConverter()

	return []*Step{
		{
			name:     models.ViewDashboard,
			selector: portal.DashboardPanel,
			parse:    parseDashboard(portal, md),
		},
		{
			name:     models.ViewAccounts,
			url:      portal.AccountsURL,
			selector: portal.AccountsTable,
			parse:    parseAccounts,
		},
		{
			name:     models.ViewBalances,
			url:      portal.AccountsURL,
			selector: portal.BalancesTable,
			parse:    parseBalances,
		},
		{
			name:     models.ViewDebits,
			url:      portal.DebitsURL,
			selector: portal.DebitsTable,
			parse:    parseDebits,
		},
		{
			name:     models.ViewLoans,
			url:      portal.LoansURL,
			selector: portal.LoansTable,
			parse:    parseLoans,
		},
	}
}

// newMarkdownConverter creates a reusable, goroutine-safe converter for the
// dashboard summary: base plugin strips scripts/styles/head noise, commonmark
// renders the text, and the table plugin keeps the dashboard's figures
// tabular instead of flattening them into word soup.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// parseDashboard reads the headline total balance plus a markdown rendering
// of the whole panel. The panel's free-form notices have no stable schema,
// so the markdown keeps them without committing to one.
func parseDashboard(portal *bank.Portal, md *converter.Converter) func(string) (any, error) {
	return func(raw string) (any, error) {
		summary := models.DashboardSummary{}

		if cell, err := narrow(raw, portal.TotalBalanceCell); err == nil && cell != raw {
			if text, err := fragmentText(cell); err == nil {
				if v, err := parseAmount(text); err == nil {
					summary.TotalBalance = v
				}
			}
		}
		if cell, err := narrow(raw, portal.CurrencyCell); err == nil && cell != raw {
			if text, err := fragmentText(cell); err == nil {
				summary.Currency = cellText(text)
			}
		}

		rendered, err := md.ConvertString(raw)
		if err != nil {
			return nil, err
		}
		summary.Summary = strings.TrimSpace(rendered)

		if summary.Summary == "" && summary.TotalBalance == 0 {
			return nil, errors.New("dashboard panel is empty")
		}
		return summary, nil
	}
}

// parseAccounts reads the accounts table: number | label | branch.
func parseAccounts(raw string) (any, error) {
	rows, err := tableRows(raw)
	if err != nil {
		return nil, err
	}

	accounts := make([]models.Account, 0, len(rows))
	for _, cells := range rows {
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		acc := models.Account{Number: cells[0]}
		if len(cells) > 1 {
			acc.Label = cells[1]
		}
		if len(cells) > 2 {
			acc.Branch = cells[2]
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// parseBalances reads the balances table: account | current | available | currency.
func parseBalances(raw string) (any, error) {
	rows, err := tableRows(raw)
	if err != nil {
		return nil, err
	}

	balances := make([]models.Balance, 0, len(rows))
	for _, cells := range rows {
		if len(cells) < 2 || cells[0] == "" {
			continue
		}
		current, err := parseAmount(cells[1])
		if err != nil {
			return nil, errors.New("balance row for " + cells[0] + ": " + err.Error())
		}
		b := models.Balance{AccountNumber: cells[0], Current: current, Currency: "ILS"}
		if len(cells) > 2 {
			if v, err := parseAmount(cells[2]); err == nil {
				b.Available = v
			}
		}
		if len(cells) > 3 && cells[3] != "" {
			b.Currency = cells[3]
		}
		balances = append(balances, b)
	}
	if len(balances) == 0 && len(rows) > 0 {
		return nil, errors.New("balances table had rows but none parsed")
	}
	return balances, nil
}

// parseDebits reads the standing-debit-authorizations table:
// beneficiary | institution | amount | frequency | last charge.
func parseDebits(raw string) (any, error) {
	rows, err := tableRows(raw)
	if err != nil {
		return nil, err
	}

	debits := make([]models.DebitAuthorization, 0, len(rows))
	for _, cells := range rows {
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		d := models.DebitAuthorization{Beneficiary: cells[0]}
		if len(cells) > 1 {
			d.InstitutionID = cells[1]
		}
		if len(cells) > 2 {
			if v, err := parseAmount(cells[2]); err == nil {
				d.Amount = v
			}
		}
		if len(cells) > 3 {
			d.Frequency = cells[3]
		}
		if len(cells) > 4 {
			d.LastCharge = cells[4]
		}
		debits = append(debits, d)
	}
	return debits, nil
}

// parseLoans reads the loans table:
// number | principal | outstanding | monthly payment | next payment date.
func parseLoans(raw string) (any, error) {
	rows, err := tableRows(raw)
	if err != nil {
		return nil, err
	}

	loans := make([]models.Loan, 0, len(rows))
	for _, cells := range rows {
		if len(cells) < 3 || cells[0] == "" {
			continue
		}
		outstanding, err := parseAmount(cells[2])
		if err != nil {
			return nil, errors.New("loan row " + cells[0] + ": " + err.Error())
		}
		l := models.Loan{Number: cells[0], Outstanding: outstanding}
		if v, err := parseAmount(cells[1]); err == nil {
			l.Principal = v
		}
		if len(cells) > 3 {
			if v, err := parseAmount(cells[3]); err == nil {
				l.MonthlyPayment = v
			}
		}
		if len(cells) > 4 {
			l.NextPayment = cells[4]
		}
		loans = append(loans, l)
	}
	return loans, nil
}

// tableRows parses an HTML table fragment into trimmed cell texts, one slice
// per body row. Header rows (th-only) are skipped. A fragment without a
// table element is the "content found but wrong shape" case.
func tableRows(raw string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if doc.Find("table").Length() == 0 {
		return nil, errors.New("no table element in fragment")
	}

	var rows [][]string
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return // header row
		}
		cells := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cellText(td.Text()))
		})
		rows = append(rows, cells)
	})
	return rows, nil
}

// fragmentText returns the concatenated text content of an HTML fragment.
func fragmentText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}
