package models

type RainPrediction struct {
	Day         string  `json:"day"`
	Date        string  `json:"date,omitempty"`
	Probability float64 `json:"probability"`
	Condition   string  `json:"condition"`
}

// WeatherReport is what the dashboard receives for one lookup.
type WeatherReport struct {
	Current     *CurrentWeather  `json:"current"`
	Forecast    *Forecast        `json:"forecast"`
	Predictions []RainPrediction `json:"predictions"`
}
