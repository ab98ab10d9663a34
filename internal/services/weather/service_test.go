//go:build unit

package weather_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/prediction"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/weather"
)

type recorderStub struct {
	mu          sync.Mutex
	lookups     map[string]int
	failures    map[string]int
	predictions int
}

func newRecorder() *recorderStub {
	return &recorderStub{lookups: map[string]int{}, failures: map[string]int{}}
}

func (r *recorderStub) RecordLookup(source string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := source + "/ok"
	if err != nil {
		key = source + "/error"
	}
	r.lookups[key]++
}

func (r *recorderStub) RecordUpstreamFailure(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[endpoint]++
}

func (r *recorderStub) RecordPredictions(p []models.RainPrediction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predictions += len(p)
}

var base = time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)

func rainyCurrent() *models.CurrentWeather {
	return &models.CurrentWeather{
		Name:    "London",
		Main:    models.MainReadings{Humidity: 82},
		Weather: []models.Condition{{Main: "Rain", Description: "light rain"}},
	}
}

func fiveStepForecast() *models.Forecast {
	f := &models.Forecast{}
	for i := 0; i < 6; i++ {
		f.List = append(f.List, models.ForecastItem{
			Dt:      base.Add(time.Duration(i*24) * time.Hour).Unix(),
			Main:    models.MainReadings{Humidity: 50},
			Weather: []models.Condition{{Main: "Clear", Description: "clear sky"}},
		})
	}
	return f
}

func newService(c *mockClient, r *recorderStub) *weather.Service {
	return weather.NewService(c, prediction.NewPredictor(time.UTC), r, zerolog.Nop())
}

func TestService_GetByCity(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := new(mockClient)
		rec := newRecorder()
		c.On("FetchCurrent", mock.Anything, "London").Return(rainyCurrent(), nil).Once()
		c.On("FetchForecast", mock.Anything, "London").Return(fiveStepForecast(), nil).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		report, err := newService(c, rec).GetByCity(context.Background(), "  London ")
		require.NoError(t, err)

		require.Len(t, report.Predictions, 5)
		assert.Equal(t, "Today", report.Predictions[0].Day)
		assert.InDelta(t, 80.0, report.Predictions[0].Probability, 1e-9)
		assert.Equal(t, "Light Rain", report.Predictions[0].Condition)
		assert.Equal(t, "Tuesday", report.Predictions[1].Day)
		assert.Equal(t, "2024-06-04", report.Predictions[1].Date)
		assert.NotNil(t, report.Forecast)
		assert.Equal(t, 1, rec.lookups["city/ok"])
		assert.Equal(t, 5, rec.predictions)
	})

	t.Run("EmptyCity", func(t *testing.T) {
		c := new(mockClient)
		t.Cleanup(func() { c.AssertNotCalled(t, "FetchCurrent", mock.Anything, mock.Anything) })

		report, err := newService(c, newRecorder()).GetByCity(context.Background(), "   ")
		assert.ErrorIs(t, err, weather.ErrCityRequired)
		assert.EqualError(t, err, "City name is required")
		assert.Nil(t, report)
	})

	t.Run("CurrentMissing", func(t *testing.T) {
		c := new(mockClient)
		rec := newRecorder()
		c.On("FetchCurrent", mock.Anything, "Atlantis").Return(nil, errors.New("status 404")).Once()
		c.On("FetchForecast", mock.Anything, "Atlantis").Return(fiveStepForecast(), nil).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		report, err := newService(c, rec).GetByCity(context.Background(), "Atlantis")
		assert.ErrorIs(t, err, weather.ErrCityNotFound)
		assert.EqualError(t, err, "City not found or API error")
		assert.Nil(t, report)
		assert.Equal(t, 1, rec.failures["current"])
		assert.Equal(t, 1, rec.lookups["city/error"])
	})

	t.Run("CurrentMissingCancelsForecast", func(t *testing.T) {
		c := new(mockClient)
		rec := newRecorder()
		c.On("FetchCurrent", mock.Anything, "Atlantis").Return(nil, errors.New("status 404")).Once()
		c.On("FetchForecast", mock.Anything, "Atlantis").
			Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
			Return(nil, context.Canceled).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := newService(c, rec).GetByCity(ctx, "Atlantis")
		assert.ErrorIs(t, err, weather.ErrCityNotFound)
		require.NoError(t, ctx.Err())
		assert.Zero(t, rec.failures["forecast"])
	})

	t.Run("ForecastMissing", func(t *testing.T) {
		c := new(mockClient)
		rec := newRecorder()
		c.On("FetchCurrent", mock.Anything, "London").Return(rainyCurrent(), nil).Once()
		c.On("FetchForecast", mock.Anything, "London").Return(nil, errors.New("timeout")).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		report, err := newService(c, rec).GetByCity(context.Background(), "London")
		require.NoError(t, err)
		assert.Nil(t, report.Forecast)
		require.Len(t, report.Predictions, 1)
		assert.Equal(t, "Today", report.Predictions[0].Day)
		assert.Equal(t, 1, rec.failures["forecast"])
	})

	t.Run("CurrentWithoutConditions", func(t *testing.T) {
		c := new(mockClient)
		current := &models.CurrentWeather{Name: "London"}
		c.On("FetchCurrent", mock.Anything, "London").Return(current, nil).Once()
		c.On("FetchForecast", mock.Anything, "London").Return(fiveStepForecast(), nil).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		report, err := newService(c, newRecorder()).GetByCity(context.Background(), "London")
		require.NoError(t, err)
		require.Len(t, report.Predictions, 4)
		assert.Equal(t, "Tuesday", report.Predictions[0].Day)
	})
}

func TestService_GetByCoordinates(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := new(mockClient)
		rec := newRecorder()
		c.On("FetchCurrentByCoords", mock.Anything, 49.84, 24.03).Return(rainyCurrent(), nil).Once()
		c.On("FetchForecastByCoords", mock.Anything, 49.84, 24.03).Return(fiveStepForecast(), nil).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		report, err := newService(c, rec).GetByCoordinates(context.Background(), 49.84, 24.03)
		require.NoError(t, err)
		assert.Len(t, report.Predictions, 5)
		assert.Equal(t, 1, rec.lookups["coordinates/ok"])
	})

	t.Run("OutOfRange", func(t *testing.T) {
		for _, tc := range []struct{ lat, lon float64 }{{91, 0}, {-90.5, 0}, {0, 180.1}, {0, -181}} {
			c := new(mockClient)
			_, err := newService(c, newRecorder()).GetByCoordinates(context.Background(), tc.lat, tc.lon)
			assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
			c.AssertNotCalled(t, "FetchCurrentByCoords", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("Unavailable", func(t *testing.T) {
		c := new(mockClient)
		c.On("FetchCurrentByCoords", mock.Anything, 0.0, 0.0).Return(nil, errors.New("down")).Once()
		c.On("FetchForecastByCoords", mock.Anything, 0.0, 0.0).Return(nil, errors.New("down")).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		_, err := newService(c, newRecorder()).GetByCoordinates(context.Background(), 0, 0)
		assert.ErrorIs(t, err, weather.ErrCityNotFound)
	})
}

func TestService_SearchCities(t *testing.T) {
	t.Run("ShortQuery", func(t *testing.T) {
		c := new(mockClient)
		got := newService(c, newRecorder()).SearchCities(context.Background(), "L")
		assert.NotNil(t, got)
		assert.Empty(t, got)
		c.AssertNotCalled(t, "SearchCities", mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		c := new(mockClient)
		matches := []models.CityMatch{{Name: "Lviv", Country: "UA"}}
		c.On("SearchCities", mock.Anything, "Lv").Return(matches, nil).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		assert.Equal(t, matches, newService(c, newRecorder()).SearchCities(context.Background(), "Lv"))
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		c := new(mockClient)
		rec := newRecorder()
		c.On("SearchCities", mock.Anything, "Lviv").Return(nil, errors.New("down")).Once()
		t.Cleanup(func() { c.AssertExpectations(t) })

		got := newService(c, rec).SearchCities(context.Background(), "Lviv")
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, 1, rec.failures["geocoding"])
	})
}
