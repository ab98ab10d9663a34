package models

// Condition is one entry of the "weather" array returned by OpenWeatherMap.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CurrentWeather mirrors the /weather payload of OpenWeatherMap.
type CurrentWeather struct {
	Name  string      `json:"name"`
	Dt    int64       `json:"dt"`
	Coord Coordinates `json:"coord"`
	Sys   struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main    MainReadings `json:"main"`
	Wind    Wind         `json:"wind"`
	Weather []Condition  `json:"weather"`
}

type ForecastItem struct {
	Dt      int64        `json:"dt"`
	DtTxt   string       `json:"dt_txt"`
	Main    MainReadings `json:"main"`
	Weather []Condition  `json:"weather"`
	Wind    Wind         `json:"wind"`
}

// Forecast mirrors the 5 day / 3 hour /forecast payload of OpenWeatherMap.
type Forecast struct {
	Cnt  int            `json:"cnt"`
	List []ForecastItem `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

type CityMatch struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
}
