package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

const (
	units       = "metric"
	searchLimit = 5
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOpenWeatherMap talks to the current weather, 5 day forecast and direct geocoding endpoints.
type ClientOpenWeatherMap struct {
	apiKey string
	apiURL string
	geoURL string
	client HTTPClient
	logger zerolog.Logger
}

func NewOpenWeatherMapClient(
	apiKey, apiURL, geoURL string,
	httpClient HTTPClient,
	logger zerolog.Logger,
) *ClientOpenWeatherMap {
	return &ClientOpenWeatherMap{
		apiKey: apiKey,
		apiURL: apiURL,
		geoURL: geoURL,
		client: httpClient,
		logger: logger.With().Str("component", "OpenWeatherMapClient").Logger(),
	}
}

func (c *ClientOpenWeatherMap) FetchCurrent(ctx context.Context, city string) (*models.CurrentWeather, error) {
	var out models.CurrentWeather
	if err := c.get(ctx, c.apiURL+"/weather", cityQuery(city), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ClientOpenWeatherMap) FetchForecast(ctx context.Context, city string) (*models.Forecast, error) {
	var out models.Forecast
	if err := c.get(ctx, c.apiURL+"/forecast", cityQuery(city), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ClientOpenWeatherMap) FetchCurrentByCoords(ctx context.Context, lat, lon float64) (*models.CurrentWeather, error) {
	var out models.CurrentWeather
	if err := c.get(ctx, c.apiURL+"/weather", coordsQuery(lat, lon), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ClientOpenWeatherMap) FetchForecastByCoords(ctx context.Context, lat, lon float64) (*models.Forecast, error) {
	var out models.Forecast
	if err := c.get(ctx, c.apiURL+"/forecast", coordsQuery(lat, lon), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ClientOpenWeatherMap) SearchCities(ctx context.Context, query string) ([]models.CityMatch, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(searchLimit))

	var out []models.CityMatch
	if err := c.get(ctx, c.geoURL+"/direct", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClientOpenWeatherMap) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		return fmt.Errorf("OpenWeatherMap error: status %s: %w", resp.Status, models.ErrUpstreamRejected)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenWeatherMap error: status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func cityQuery(city string) url.Values {
	q := url.Values{}
	q.Set("q", city)
	q.Set("units", units)
	return q
}

func coordsQuery(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", units)
	return q
}
