package models

// UnknownFarm is shown when a record points at a farm that no longer exists.
const UnknownFarm = "Unknown Farm"

// TaskView is a task annotated with its farm and crop labels.
type TaskView struct {
	Task
	FarmName string `json:"farmName"`
	CropName string `json:"cropName,omitempty"`
}

// CropView is a crop annotated with its farm label.
type CropView struct {
	Crop
	FarmName string `json:"farmName"`
}

// ExpenseView is an expense annotated with its farm label.
type ExpenseView struct {
	Expense
	FarmName string `json:"farmName"`
}

// IncomeView is an income record annotated with optional farm and crop labels.
type IncomeView struct {
	Income
	FarmName string `json:"farmName,omitempty"`
	CropName string `json:"cropName,omitempty"`
}
