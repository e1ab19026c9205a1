package entities

import (
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// FinancialEntry is one payable or receivable document line.
type FinancialEntry struct {
	DocumentNumber string              `json:"documentNumber"`
	IssueDate      core.Date           `json:"issueDate"`
	Supplier       *string             `json:"supplier,omitempty"`
	Description    *string             `json:"description,omitempty"`
	Category       *string             `json:"category,omitempty"`
	Amount         decimal.NullDecimal `json:"amount"`
	DueDate        *core.Date          `json:"dueDate,omitempty"`
	PaidDate       *core.Date          `json:"paidDate,omitempty"`
	Kind           *string             `json:"kind,omitempty"`
	Extras         map[string]string   `json:"extras,omitempty"`
}

func (f *FinancialEntry) Entity() core.EntityType { return core.EntityFinancial }
func (f *FinancialEntry) NaturalKey() string {
	return core.NaturalKey(f.DocumentNumber, dateKey(f.IssueDate))
}

var entryKinds = map[string]string{
	"despesa": "expense",
	"pagar":   "expense",
	"d":       "expense",
	"receita": "income",
	"receber": "income",
	"r":       "income",
}

func registerFinancial() {
	core.Register(&core.EntityDefinition{
		Type:  core.EntityFinancial,
		Label: "Financial",
		Fields: []core.FieldSpec{
			{Name: "document_number", Label: "Document", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"documento", "nota fiscal", "nf", "numero documento", "doc"}},
			{Name: "issue_date", Label: "Issue date", Type: core.FieldDate, Identity: true,
				Synonyms: []string{"emissao", "data emissao", "data"}},
			{Name: "supplier", Label: "Supplier", Type: core.FieldText,
				Synonyms: []string{"fornecedor", "cliente", "favorecido"}},
			{Name: "description", Label: "Description", Type: core.FieldText,
				Synonyms: []string{"descricao", "historico"}},
			{Name: "category", Label: "Category", Type: core.FieldText,
				Synonyms: []string{"categoria", "centro de custo", "conta"}},
			{Name: "amount", Label: "Amount", Type: core.FieldDecimal, Max: 1e9,
				Synonyms: []string{"valor", "valor total", "total"}},
			{Name: "due_date", Label: "Due date", Type: core.FieldDate,
				Synonyms: []string{"vencimento", "data vencimento"}},
			{Name: "paid_date", Label: "Paid date", Type: core.FieldDate,
				Synonyms: []string{"pagamento", "data pagamento", "baixa"}},
			{Name: "kind", Label: "Kind", Type: core.FieldEnum, EnumValues: entryKinds,
				Synonyms: []string{"tipo", "natureza"}},
		},
		Layout: []string{"document_number", "issue_date", "supplier", "description", "amount", "due_date"},
		Required: map[core.Mode][]string{
			core.ModeCreate:    {"amount"},
			core.ModeOverwrite: {"amount"},
		},
		MinColumns: 3,
		Splitter:   core.TailJoinSplitter{},
		Rules: []core.RuleFunc{
			core.NotBefore("due_date", "issue_date"),
		},
		Build: func(row *core.RowValues) core.Record {
			v := row.Fields
			return &FinancialEntry{
				DocumentNumber: v.Text("document_number"),
				IssueDate:      dateOrZero(v, "issue_date"),
				Supplier:       v.String("supplier"),
				Description:    v.String("description"),
				Category:       v.String("category"),
				Amount:         v.Decimal("amount"),
				DueDate:        v.Date("due_date"),
				PaidDate:       v.Date("paid_date"),
				Kind:           v.String("kind"),
				Extras:         extras(row),
			}
		},
	})
}
