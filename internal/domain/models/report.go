package models

import "time"

// Period selects the span of a financial report.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// CategoryTotal is one line of a ranked category breakdown.
type CategoryTotal struct {
	Category string  `bson:"category" json:"category"`
	Label    string  `bson:"label" json:"label"`
	Total    float64 `bson:"total" json:"total"`
	Count    int     `bson:"count" json:"count"`
}

// MonthSummary is one month of a year breakdown.
type MonthSummary struct {
	Month    string  `bson:"month" json:"month"`
	Income   float64 `bson:"income" json:"income"`
	Expenses float64 `bson:"expenses" json:"expenses"`
	Profit   float64 `bson:"profit" json:"profit"`
}

// FinancialReport is the Reports page payload; scheduled copies are archived.
type FinancialReport struct {
	Period           Period          `bson:"period" json:"period"`
	Start            Date            `bson:"start" json:"start"`
	End              Date            `bson:"end" json:"end"`
	TotalIncome      float64         `bson:"total_income" json:"totalIncome"`
	TotalExpenses    float64         `bson:"total_expenses" json:"totalExpenses"`
	ProfitLoss       float64         `bson:"profit_loss" json:"profitLoss"`
	MonthlyData      []MonthSummary  `bson:"monthly_data,omitempty" json:"monthlyData"`
	IncomeBreakdown  []CategoryTotal `bson:"income_breakdown" json:"incomeBreakdown"`
	ExpenseBreakdown []CategoryTotal `bson:"expense_breakdown" json:"expenseBreakdown"`
	GeneratedAt      time.Time       `bson:"generated_at" json:"generatedAt"`
}
