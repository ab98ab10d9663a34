//go:build unit

package weather_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) FetchCurrent(ctx context.Context, city string) (*models.CurrentWeather, error) {
	args := m.Called(ctx, city)
	data, _ := args.Get(0).(*models.CurrentWeather)
	return data, args.Error(1)
}

func (m *mockClient) FetchForecast(ctx context.Context, city string) (*models.Forecast, error) {
	args := m.Called(ctx, city)
	data, _ := args.Get(0).(*models.Forecast)
	return data, args.Error(1)
}

func (m *mockClient) FetchCurrentByCoords(ctx context.Context, lat, lon float64) (*models.CurrentWeather, error) {
	args := m.Called(ctx, lat, lon)
	data, _ := args.Get(0).(*models.CurrentWeather)
	return data, args.Error(1)
}

func (m *mockClient) FetchForecastByCoords(ctx context.Context, lat, lon float64) (*models.Forecast, error) {
	args := m.Called(ctx, lat, lon)
	data, _ := args.Get(0).(*models.Forecast)
	return data, args.Error(1)
}

func (m *mockClient) SearchCities(ctx context.Context, query string) ([]models.CityMatch, error) {
	args := m.Called(ctx, query)
	data, _ := args.Get(0).([]models.CityMatch)
	return data, args.Error(1)
}
