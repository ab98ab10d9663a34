package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

const (
	endpointCurrent  = "current"
	endpointForecast = "forecast"
	endpointGeo      = "geocoding"
)

type client interface {
	FetchCurrent(ctx context.Context, city string) (*models.CurrentWeather, error)
	FetchForecast(ctx context.Context, city string) (*models.Forecast, error)
	FetchCurrentByCoords(ctx context.Context, lat, lon float64) (*models.CurrentWeather, error)
	FetchForecastByCoords(ctx context.Context, lat, lon float64) (*models.Forecast, error)
	SearchCities(ctx context.Context, query string) ([]models.CityMatch, error)
}

type BreakerSettings struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxFailures uint32
}

// BreakerClient keeps one circuit per upstream endpoint so a failing
// forecast API does not block current conditions.
type BreakerClient struct {
	name     string
	wrapped  client
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewBreakerClient(name string, wrapped client, s BreakerSettings) *BreakerClient {
	b := &BreakerClient{
		name:     name,
		wrapped:  wrapped,
		breakers: make(map[string]*gobreaker.CircuitBreaker, 3),
	}
	for _, endpoint := range []string{endpointCurrent, endpointForecast, endpointGeo} {
		b.breakers[endpoint] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name + "/" + endpoint,
			MaxRequests: 1,
			Interval:    s.Interval,
			Timeout:     s.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= s.MaxFailures
			},
			IsSuccessful: countsAsHealthy,
		})
	}
	return b
}

// countsAsHealthy keeps per-request failures (unknown city, cancelled caller)
// from tripping a circuit shared by every request.
func countsAsHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, models.ErrUpstreamRejected) ||
		errors.Is(err, context.Canceled)
}

// State reports the circuit state of one endpoint.
func (b *BreakerClient) State(endpoint string) gobreaker.State {
	return b.breakers[endpoint].State()
}

func (b *BreakerClient) FetchCurrent(ctx context.Context, city string) (*models.CurrentWeather, error) {
	return execute(b, endpointCurrent, func() (*models.CurrentWeather, error) {
		return b.wrapped.FetchCurrent(ctx, city)
	})
}

func (b *BreakerClient) FetchForecast(ctx context.Context, city string) (*models.Forecast, error) {
	return execute(b, endpointForecast, func() (*models.Forecast, error) {
		return b.wrapped.FetchForecast(ctx, city)
	})
}

func (b *BreakerClient) FetchCurrentByCoords(ctx context.Context, lat, lon float64) (*models.CurrentWeather, error) {
	return execute(b, endpointCurrent, func() (*models.CurrentWeather, error) {
		return b.wrapped.FetchCurrentByCoords(ctx, lat, lon)
	})
}

func (b *BreakerClient) FetchForecastByCoords(ctx context.Context, lat, lon float64) (*models.Forecast, error) {
	return execute(b, endpointForecast, func() (*models.Forecast, error) {
		return b.wrapped.FetchForecastByCoords(ctx, lat, lon)
	})
}

func (b *BreakerClient) SearchCities(ctx context.Context, query string) ([]models.CityMatch, error) {
	return execute(b, endpointGeo, func() ([]models.CityMatch, error) {
		return b.wrapped.SearchCities(ctx, query)
	})
}

func execute[T any](b *BreakerClient, endpoint string, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.breakers[endpoint].Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, fmt.Errorf("%s %s unavailable: %w", b.name, endpoint, err)
	}
	res, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%s %s unavailable: unexpected result %T", b.name, endpoint, result)
	}
	return res, nil
}
