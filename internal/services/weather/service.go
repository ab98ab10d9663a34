package weather

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

const (
	minSearchLen = 2

	sourceCity   = "city"
	sourceCoords = "coordinates"
)

var (
	ErrCityRequired       = errors.New("City name is required")
	ErrCityNotFound       = errors.New("City not found or API error")
	ErrInvalidCoordinates = errors.New("Invalid coordinates")
)

type predictor interface {
	Predict(current *models.CurrentWeather, forecast *models.Forecast) []models.RainPrediction
}

type recorder interface {
	RecordLookup(source string, err error)
	RecordUpstreamFailure(endpoint string)
	RecordPredictions(predictions []models.RainPrediction)
}

type Service struct {
	client    client
	predictor predictor
	metrics   recorder
	logger    zerolog.Logger
}

func NewService(c client, p predictor, m recorder, logger zerolog.Logger) *Service {
	return &Service{
		client:    c,
		predictor: p,
		metrics:   m,
		logger:    logger.With().Str("component", "WeatherService").Logger(),
	}
}

func (s *Service) GetByCity(ctx context.Context, city string) (*models.WeatherReport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrCityRequired
	}

	report, err := s.build(ctx,
		func(ctx context.Context) (*models.CurrentWeather, error) { return s.client.FetchCurrent(ctx, city) },
		func(ctx context.Context) (*models.Forecast, error) { return s.client.FetchForecast(ctx, city) },
	)
	s.metrics.RecordLookup(sourceCity, err)
	if err != nil {
		s.logger.Info().Ctx(ctx).Str("city", city).Msg("no current conditions for city")
		return nil, err
	}
	return report, nil
}

func (s *Service) GetByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherReport, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrInvalidCoordinates
	}

	report, err := s.build(ctx,
		func(ctx context.Context) (*models.CurrentWeather, error) {
			return s.client.FetchCurrentByCoords(ctx, lat, lon)
		},
		func(ctx context.Context) (*models.Forecast, error) {
			return s.client.FetchForecastByCoords(ctx, lat, lon)
		},
	)
	s.metrics.RecordLookup(sourceCoords, err)
	if err != nil {
		s.logger.Info().Ctx(ctx).Float64("lat", lat).Float64("lon", lon).Msg("no current conditions for coordinates")
		return nil, err
	}
	return report, nil
}

// SearchCities never fails: short queries and upstream errors give an empty list.
func (s *Service) SearchCities(ctx context.Context, query string) []models.CityMatch {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchLen {
		return []models.CityMatch{}
	}

	matches, err := s.client.SearchCities(ctx, query)
	if err != nil {
		s.metrics.RecordUpstreamFailure(endpointGeo)
		s.logger.Warn().Ctx(ctx).Err(err).Str("query", query).Msg("city search failed")
		return []models.CityMatch{}
	}
	if matches == nil {
		return []models.CityMatch{}
	}
	return matches
}

// build runs both fetches concurrently. A missing current observation fails the
// request and cancels the forecast fetch; a missing forecast is logged and
// treated as an absent payload.
func (s *Service) build(
	ctx context.Context,
	fetchCurrent func(context.Context) (*models.CurrentWeather, error),
	fetchForecast func(context.Context) (*models.Forecast, error),
) (*models.WeatherReport, error) {
	var (
		current  *models.CurrentWeather
		forecast *models.Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := fetchCurrent(gctx)
		if err != nil {
			s.metrics.RecordUpstreamFailure(endpointCurrent)
			s.logger.Warn().Ctx(ctx).Err(err).Msg("current weather unavailable")
			return ErrCityNotFound
		}
		current = c
		return nil
	})
	g.Go(func() error {
		f, err := fetchForecast(gctx)
		if err != nil {
			if gctx.Err() != nil && ctx.Err() == nil {
				return nil
			}
			s.metrics.RecordUpstreamFailure(endpointForecast)
			s.logger.Warn().Ctx(ctx).Err(err).Msg("forecast unavailable")
			return nil
		}
		forecast = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrCityNotFound
	}

	predictions := s.predictor.Predict(current, forecast)
	s.metrics.RecordPredictions(predictions)

	return &models.WeatherReport{
		Current:     current,
		Forecast:    forecast,
		Predictions: predictions,
	}, nil
}
