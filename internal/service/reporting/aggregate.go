package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/farmboard/internal/domain/models"
)

// CategorySummary is the category -> total mapping of a ledger, with counts.
type CategorySummary struct {
	Totals map[string]float64 `json:"totals"`
	Counts map[string]int     `json:"counts"`
	Total  float64            `json:"total"`
}

// CategoryTotals groups items by category and sums their amounts.
func CategoryTotals[V models.LedgerEntry](items []V) CategorySummary {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	total := decimal.Zero
	for _, item := range items {
		category := item.LedgerCategory()
		if category == "" {
			category = "other"
		}
		amount := decimal.NewFromFloat(item.LedgerAmount())
		sums[category] = sums[category].Add(amount)
		counts[category]++
		total = total.Add(amount)
	}

	out := CategorySummary{
		Totals: make(map[string]float64, len(sums)),
		Counts: counts,
		Total:  total.InexactFloat64(),
	}
	for category, sum := range sums {
		out.Totals[category] = sum.InexactFloat64()
	}
	return out
}

// Ranked presents a summary as a breakdown sorted by descending total. Labels
// come from options; ties are ordered by category.
func (c CategorySummary) Ranked(options []models.Option) []models.CategoryTotal {
	out := make([]models.CategoryTotal, 0, len(c.Totals))
	for category, total := range c.Totals {
		out = append(out, models.CategoryTotal{
			Category: category,
			Label:    models.LabelFor(options, category),
			Total:    total,
			Count:    c.Counts[category],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// InRange keeps the items dated within [start, end].
func InRange[V models.LedgerEntry](items []V, start, end models.Date) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		if item.LedgerDate().Within(start, end) {
			out = append(out, item)
		}
	}
	return out
}

// ByFarm keeps the items attributed to farmID; zero keeps everything.
func ByFarm[V models.LedgerEntry](items []V, farmID int) []V {
	if farmID == 0 {
		return items
	}
	out := make([]V, 0, len(items))
	for _, item := range items {
		if item.LedgerFarm() == farmID {
			out = append(out, item)
		}
	}
	return out
}

// Sum adds the amounts of items.
func Sum[V models.LedgerEntry](items []V) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.LedgerAmount()))
	}
	return total.InexactFloat64()
}

// RangeTotal sums the items dated within [start, end].
func RangeTotal[V models.LedgerEntry](items []V, start, end models.Date) float64 {
	return Sum(InRange(items, start, end))
}

// Granularity selects the trend bucket size.
type Granularity string

const (
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// TrendBucket is one observed period of a trend series.
type TrendBucket struct {
	Period     string             `json:"period"`
	Total      float64            `json:"total"`
	Categories map[string]float64 `json:"categories"`
}

func periodKey(d models.Date, g Granularity) string {
	if g == Yearly {
		return d.Format("2006")
	}
	return d.Format("2006-01")
}

// Trend buckets items by "YYYY-MM" (or "YYYY") in ascending order. Periods with
// no records are not synthesized.
func Trend[V models.LedgerEntry](items []V, g Granularity) []TrendBucket {
	grouped := make(map[string][]V)
	for _, item := range items {
		if item.LedgerDate().IsZero() {
			continue
		}
		key := periodKey(item.LedgerDate(), g)
		grouped[key] = append(grouped[key], item)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]TrendBucket, 0, len(keys))
	for _, key := range keys {
		summary := CategoryTotals(grouped[key])
		out = append(out, TrendBucket{Period: key, Total: summary.Total, Categories: summary.Totals})
	}
	return out
}

// FarmTotal is one farm's share of a ledger.
type FarmTotal struct {
	FarmID     int                `json:"farmId"`
	FarmName   string             `json:"farmName"`
	Total      float64            `json:"total"`
	Categories map[string]float64 `json:"categories"`
}

// FarmComparison groups items by farm, ordered by farm Id. Farms without
// records are absent; unattributed items are skipped.
func FarmComparison[V models.LedgerEntry](items []V) []FarmTotal {
	grouped := make(map[int][]V)
	for _, item := range items {
		if farmID := item.LedgerFarm(); farmID != 0 {
			grouped[farmID] = append(grouped[farmID], item)
		}
	}

	farmIDs := make([]int, 0, len(grouped))
	for farmID := range grouped {
		farmIDs = append(farmIDs, farmID)
	}
	sort.Ints(farmIDs)

	out := make([]FarmTotal, 0, len(farmIDs))
	for _, farmID := range farmIDs {
		summary := CategoryTotals(grouped[farmID])
		out = append(out, FarmTotal{FarmID: farmID, Total: summary.Total, Categories: summary.Totals})
	}
	return out
}

// MonthlyBreakdown returns all twelve months of year, zero-filled.
func MonthlyBreakdown(income []models.Income, expenses []models.Expense, year int) []models.MonthSummary {
	out := make([]models.MonthSummary, 0, 12)
	for month := time.January; month <= time.December; month++ {
		start, end := MonthBounds(year, month)
		in := decimal.NewFromFloat(RangeTotal(income, start, end))
		ex := decimal.NewFromFloat(RangeTotal(expenses, start, end))
		out = append(out, models.MonthSummary{
			Month:    month.String()[:3],
			Income:   in.InexactFloat64(),
			Expenses: ex.InexactFloat64(),
			Profit:   in.Sub(ex).InexactFloat64(),
		})
	}
	return out
}

// MonthBounds returns the first and last day of a month.
func MonthBounds(year int, month time.Month) (models.Date, models.Date) {
	start := models.NewDate(year, month, 1)
	end := models.DateOf(start.AddDate(0, 1, -1))
	return start, end
}

// PeriodBounds returns the month or year containing day.
func PeriodBounds(period models.Period, day models.Date) (models.Date, models.Date) {
	if period == models.PeriodYear {
		return models.NewDate(day.Year(), time.January, 1), models.NewDate(day.Year(), time.December, 31)
	}
	return MonthBounds(day.Year(), day.Month())
}
