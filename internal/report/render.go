package report

import (
	"fmt"
	"strings"

	txdomain "github.com/smallbiznis/paysignal/internal/transaction/domain"
)

// Render formats a daily summary as the plain-text report sent to a group.
func Render(summary *txdomain.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily Report - %s\n\n", summary.Date)
	if summary.Count == 0 {
		fmt.Fprintf(&b, "No transactions recorded for %s.", summary.Date)
		return b.String()
	}

	fmt.Fprintf(&b, "Total Amount: $%s USD\n", summary.Total.StringFixed(2))
	fmt.Fprintf(&b, "Transaction Count: %d\n\n", summary.Count)
	b.WriteString("Transactions:\n")
	for i, tx := range summary.Transactions {
		fmt.Fprintf(&b, "%d. $%s - %s\n", i+1, tx.Amount.StringFixed(2), tx.Payer)
	}
	return strings.TrimRight(b.String(), "\n")
}
