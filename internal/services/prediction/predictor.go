package prediction

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

const (
	todayLabel = "Today"
	dateLayout = "2006-01-02"

	// list[0] of the forecast overlaps the current observation.
	forecastWindow = 5
	skippedIndex   = 0

	todayRain         = 80.0
	todayCloudCap     = 60.0
	todayCloudFactor  = 0.6
	todayHumidLimit   = 70
	todayHumidCap     = 40.0
	todayHumidFactor  = 0.4
	todayDefault      = 10.0
	forecastRainBase  = 75.0
	forecastRainPivot = 50
	forecastRainSlope = 0.3
	forecastCloudCap  = 55.0
	forecastCloudFac  = 0.55
	forecastHumidLim  = 65
	forecastHumidCap  = 35.0
	forecastHumidFac  = 0.35
	forecastDefault   = 5.0
	forecastFloor     = 5.0
	forecastCeiling   = 95.0
)

// Predictor turns raw weather payloads into per-day rain probabilities.
// It holds no mutable state and is safe for concurrent use.
type Predictor struct {
	loc *time.Location
}

// NewPredictor returns a Predictor that derives weekday and date labels in loc.
// A nil loc means time.Local.
func NewPredictor(loc *time.Location) *Predictor {
	if loc == nil {
		loc = time.Local
	}
	return &Predictor{loc: loc}
}

// Predict never fails: absent or malformed inputs contribute no entries.
func (p *Predictor) Predict(current *models.CurrentWeather, forecast *models.Forecast) []models.RainPrediction {
	predictions := make([]models.RainPrediction, 0, forecastWindow)

	if current != nil && len(current.Weather) > 0 {
		cond := current.Weather[0]
		predictions = append(predictions, models.RainPrediction{
			Day:         todayLabel,
			Probability: TodayProbability(cond.Main, current.Main.Humidity),
			Condition:   titleCase(cond.Description),
		})
	}

	if forecast == nil || len(forecast.List) == 0 {
		return predictions
	}

	items := forecast.List
	if len(items) > forecastWindow {
		items = items[:forecastWindow]
	}

	for i, item := range items {
		if i == skippedIndex || len(item.Weather) == 0 {
			continue
		}
		cond := item.Weather[0]
		at := time.Unix(item.Dt, 0).In(p.loc)

		predictions = append(predictions, models.RainPrediction{
			Day:         at.Weekday().String(),
			Date:        at.Format(dateLayout),
			Probability: ForecastProbability(cond.Main, item.Main.Humidity),
			Condition:   titleCase(cond.Description),
		})
	}

	return predictions
}

// TodayProbability scores the current observation. Rain wins over cloud,
// cloud over humidity. The result is never floored.
func TodayProbability(condition string, humidity int) float64 {
	c := strings.ToLower(condition)
	h := float64(humidity)

	switch {
	case strings.Contains(c, "rain"):
		return todayRain
	case strings.Contains(c, "cloud"):
		return math.Min(todayCloudCap, h*todayCloudFactor)
	case humidity > todayHumidLimit:
		return math.Min(todayHumidCap, h*todayHumidFactor)
	default:
		return todayDefault
	}
}

// ForecastProbability scores one forecast step and clamps it to [5, 95].
func ForecastProbability(condition string, humidity int) float64 {
	c := strings.ToLower(condition)
	h := float64(humidity)

	var raw float64
	switch {
	case strings.Contains(c, "rain"):
		raw = forecastRainBase + float64(humidity-forecastRainPivot)*forecastRainSlope
	case strings.Contains(c, "cloud"):
		raw = math.Min(forecastCloudCap, h*forecastCloudFac)
	case humidity > forecastHumidLim:
		raw = math.Min(forecastHumidCap, h*forecastHumidFac)
	default:
		raw = forecastDefault
	}

	return math.Min(forecastCeiling, math.Max(forecastFloor, raw))
}

func titleCase(s string) string {
	// cases.Caser is stateful, so each call gets its own.
	return cases.Title(language.Und).String(s)
}
