package schema

import (
	"github.com/JonMunkholm/herdbook/internal/core"
	"github.com/JonMunkholm/herdbook/internal/core/entities"
)

// FinancialColumns are the columns of the financial_documents table.
var FinancialColumns = []Column{
	{Name: "document_number", Type: ColText, Key: true},
	{Name: "issue_date", Type: ColDate, Key: true},
	{Name: "supplier", Type: ColText},
	{Name: "description", Type: ColText},
	{Name: "category", Type: ColText},
	{Name: "amount", Type: ColNumeric},
	{Name: "due_date", Type: ColDate},
	{Name: "paid_date", Type: ColDate},
	{Name: "kind", Type: ColText},
	{Name: "extras", Type: ColJSON},
}

func financialArgs(rec core.Record) ([]any, error) {
	f, ok := rec.(*entities.FinancialEntry)
	if !ok {
		return nil, wrongRecord(core.EntityFinancial, rec)
	}
	return []any{
		key(f.DocumentNumber), date(&f.IssueDate),
		text(f.Supplier), text(f.Description), text(f.Category),
		numeric(f.Amount), date(f.DueDate), date(f.PaidDate), text(f.Kind),
		extras(f.Extras),
	}, nil
}

func init() {
	Register(&Table{Entity: core.EntityFinancial, Name: "financial_documents", Columns: FinancialColumns, Args: financialArgs})
}
