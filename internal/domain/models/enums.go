package models

// SizeUnit is the unit of a farm's surface.
type SizeUnit string

const (
	SizeAcres    SizeUnit = "acres"
	SizeHectares SizeUnit = "hectares"
	SizeSqFt     SizeUnit = "sq-ft"
	SizeSqM      SizeUnit = "sq-m"
)

// CropStatus follows planted -> growing -> mature -> ready -> harvested.
type CropStatus string

const (
	CropPlanted   CropStatus = "planted"
	CropGrowing   CropStatus = "growing"
	CropMature    CropStatus = "mature"
	CropReady     CropStatus = "ready"
	CropHarvested CropStatus = "harvested"
)

// Active reports whether the crop is in the field and not yet harvestable-done.
func (s CropStatus) Active() bool {
	return s == CropGrowing || s == CropMature || s == CropReady
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ExpenseCategory enumerates the ten expense buckets.
type ExpenseCategory string

const (
	ExpenseSeeds       ExpenseCategory = "seeds"
	ExpenseFertilizer  ExpenseCategory = "fertilizer"
	ExpenseEquipment   ExpenseCategory = "equipment"
	ExpenseLabor       ExpenseCategory = "labor"
	ExpenseFuel        ExpenseCategory = "fuel"
	ExpenseSupplies    ExpenseCategory = "supplies"
	ExpenseMaintenance ExpenseCategory = "maintenance"
	ExpenseInsurance   ExpenseCategory = "insurance"
	ExpenseUtilities   ExpenseCategory = "utilities"
	ExpenseOther       ExpenseCategory = "other"
)

// IncomeCategory enumerates the six income buckets.
type IncomeCategory string

const (
	IncomeSales     IncomeCategory = "sales"
	IncomeMarket    IncomeCategory = "market"
	IncomeContract  IncomeCategory = "contract"
	IncomeDirect    IncomeCategory = "direct"
	IncomeWholesale IncomeCategory = "wholesale"
	IncomeOther     IncomeCategory = "other"
)

// Option is a value/label pair used by selects and breakdown legends.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var (
	SizeUnitOptions = []Option{
		{Value: string(SizeAcres), Label: "Acres"},
		{Value: string(SizeHectares), Label: "Hectares"},
		{Value: string(SizeSqFt), Label: "Square Feet"},
		{Value: string(SizeSqM), Label: "Square Meters"},
	}

	CropStatusOptions = []Option{
		{Value: string(CropPlanted), Label: "Planted"},
		{Value: string(CropGrowing), Label: "Growing"},
		{Value: string(CropMature), Label: "Mature"},
		{Value: string(CropReady), Label: "Ready to Harvest"},
		{Value: string(CropHarvested), Label: "Harvested"},
	}

	PriorityOptions = []Option{
		{Value: string(PriorityLow), Label: "Low Priority"},
		{Value: string(PriorityMedium), Label: "Medium Priority"},
		{Value: string(PriorityHigh), Label: "High Priority"},
	}

	ExpenseCategoryOptions = []Option{
		{Value: string(ExpenseSeeds), Label: "Seeds & Plants"},
		{Value: string(ExpenseFertilizer), Label: "Fertilizer & Nutrients"},
		{Value: string(ExpenseEquipment), Label: "Equipment & Tools"},
		{Value: string(ExpenseLabor), Label: "Labor & Services"},
		{Value: string(ExpenseFuel), Label: "Fuel & Energy"},
		{Value: string(ExpenseSupplies), Label: "Supplies & Materials"},
		{Value: string(ExpenseMaintenance), Label: "Maintenance & Repairs"},
		{Value: string(ExpenseInsurance), Label: "Insurance"},
		{Value: string(ExpenseUtilities), Label: "Utilities"},
		{Value: string(ExpenseOther), Label: "Other Expenses"},
	}

	IncomeCategoryOptions = []Option{
		{Value: string(IncomeSales), Label: "Crop Sales"},
		{Value: string(IncomeMarket), Label: "Farmers Market"},
		{Value: string(IncomeContract), Label: "Contract Sales"},
		{Value: string(IncomeDirect), Label: "Direct Sales"},
		{Value: string(IncomeWholesale), Label: "Wholesale"},
		{Value: string(IncomeOther), Label: "Other"},
	}
)

// LabelFor returns the human label of value, or value itself when unknown.
func LabelFor(options []Option, value string) string {
	for _, opt := range options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}
