package google

import (
	"strings"

	"finbook/internal/core"
)

// sheetRange builds an A1 range, quoting tab names that need it.
func sheetRange(sheet, cols string) string {
	if strings.ContainsAny(sheet, " '!:") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + cols
}

// Text cells carry exactly what was recorded; amounts go as numbers so the
// sheet can sum them.
func transactionRow(t core.Transaction) []interface{} {
	return []interface{}{t.Timestamp, t.Kind.String(), t.Amount, t.Remark}
}

func expenseRow(e core.Expense) []interface{} {
	return []interface{}{e.Date, e.AmountSpent}
}
