package models

// Weather is one forecast day.
type Weather struct {
	Date          Date    `json:"date"`
	Condition     string  `json:"condition"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Precipitation int     `json:"precipitation"`
	Humidity      int     `json:"humidity"`
	WindSpeed     float64 `json:"windSpeed"`
}

// AdviceLevel classifies a weather advice line.
type AdviceLevel string

const (
	AdviceInfo    AdviceLevel = "info"
	AdviceWarning AdviceLevel = "warning"
	AdviceCaution AdviceLevel = "caution"
)

// WeatherAdvice is a field-work recommendation derived from a forecast day.
type WeatherAdvice struct {
	Level   AdviceLevel `json:"type"`
	Icon    string      `json:"icon"`
	Message string      `json:"message"`
}
