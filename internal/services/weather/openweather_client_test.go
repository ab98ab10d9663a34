//go:build unit

package weather_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/weather"
)

const (
	apiKey = "mock_api_key"

	currentBody = `{"name":"London","dt":1717405200,"coord":{"lat":51.51,"lon":-0.13},
		"sys":{"country":"GB"},"main":{"temp":15.2,"humidity":82},
		"weather":[{"id":500,"main":"Rain","description":"light rain","icon":"10d"}]}`
	forecastBody = `{"cnt":2,"city":{"name":"London","country":"GB"},"list":[
		{"dt":1717405200,"dt_txt":"2024-06-03 09:00:00","main":{"humidity":70},"weather":[{"main":"Clouds","description":"few clouds"}]},
		{"dt":1717416000,"dt_txt":"2024-06-03 12:00:00","main":{"humidity":60},"weather":[{"main":"Rain","description":"light rain"}]}]}`
	geoBody = `[{"name":"London","lat":51.5,"lon":-0.12,"country":"GB","state":"England"},
		{"name":"London","lat":42.98,"lon":-81.24,"country":"CA","state":"Ontario"}]`
)

type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func newOWMServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/2.5/weather", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		if r.URL.Query().Get("q") == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
			return
		}
		_, _ = io.WriteString(w, currentBody)
	})
	mux.HandleFunc("/data/2.5/forecast", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, forecastBody)
	})
	mux.HandleFunc("/geo/1.0/direct", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("units"))
		_, _ = io.WriteString(w, geoBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *weather.ClientOpenWeatherMap {
	return weather.NewOpenWeatherMapClient(apiKey, srv.URL+"/data/2.5", srv.URL+"/geo/1.0",
		srv.Client(), zerolog.Nop())
}

func TestClient_FetchCurrent(t *testing.T) {
	c := newClient(newOWMServer(t))

	data, err := c.FetchCurrent(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, "London", data.Name)
	assert.Equal(t, "GB", data.Sys.Country)
	assert.Equal(t, 82, data.Main.Humidity)
	require.Len(t, data.Weather, 1)
	assert.Equal(t, "Rain", data.Weather[0].Main)
}

func TestClient_FetchCurrent_NotFound(t *testing.T) {
	c := newClient(newOWMServer(t))

	data, err := c.FetchCurrent(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Nil(t, data)
	assert.Contains(t, err.Error(), "404")
	assert.ErrorIs(t, err, models.ErrUpstreamRejected)
}

func TestClient_ServerErrorIsNotRejection(t *testing.T) {
	mockClient := &mockHTTPClient{
		doFunc: func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Status:     "503 Service Unavailable",
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		},
	}
	c := weather.NewOpenWeatherMapClient(apiKey, "https://example.test/data/2.5", "https://example.test/geo/1.0",
		mockClient, zerolog.Nop())

	_, err := c.FetchCurrent(context.Background(), "London")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.NotErrorIs(t, err, models.ErrUpstreamRejected)
}

func TestClient_FetchForecast(t *testing.T) {
	c := newClient(newOWMServer(t))

	data, err := c.FetchForecast(context.Background(), "London")
	require.NoError(t, err)
	require.Len(t, data.List, 2)
	assert.Equal(t, "2024-06-03 12:00:00", data.List[1].DtTxt)
}

func TestClient_SearchCities(t *testing.T) {
	c := newClient(newOWMServer(t))

	matches, err := c.SearchCities(context.Background(), "Lon")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "CA", matches[1].Country)
	assert.Equal(t, "Ontario", matches[1].State)
}

func TestClient_EncodesQuery(t *testing.T) {
	var gotQuery string
	mockClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			gotQuery = req.URL.RawQuery
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(currentBody)),
			}, nil
		},
	}
	c := weather.NewOpenWeatherMapClient(apiKey, "https://example.test/data/2.5", "https://example.test/geo/1.0",
		mockClient, zerolog.Nop())

	_, err := c.FetchCurrent(context.Background(), "San José&x=1")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "q=San+Jos%C3%A9%26x%3D1")
	assert.NotContains(t, gotQuery, "x=1&")
}

func TestClient_ByCoordinates(t *testing.T) {
	var paths []string
	mockClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			paths = append(paths, req.URL.Path+"?"+req.URL.RawQuery)
			body := currentBody
			if strings.HasSuffix(req.URL.Path, "/forecast") {
				body = forecastBody
			}
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
		},
	}
	c := weather.NewOpenWeatherMapClient(apiKey, "https://example.test/data/2.5", "https://example.test/geo/1.0",
		mockClient, zerolog.Nop())

	_, err := c.FetchCurrentByCoords(context.Background(), 49.84, 24.03)
	require.NoError(t, err)
	_, err = c.FetchForecastByCoords(context.Background(), -33.5, 0)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "/data/2.5/weather?")
	assert.Contains(t, paths[0], "lat=49.84")
	assert.Contains(t, paths[0], "lon=24.03")
	assert.Contains(t, paths[1], "/data/2.5/forecast?")
	assert.Contains(t, paths[1], "lat=-33.5")
	assert.Contains(t, paths[1], "lon=0")
}

func TestClient_MalformedBody(t *testing.T) {
	mockClient := &mockHTTPClient{
		doFunc: func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{"))}, nil
		},
	}
	c := weather.NewOpenWeatherMapClient(apiKey, "https://example.test/data/2.5", "https://example.test/geo/1.0",
		mockClient, zerolog.Nop())

	_, err := c.FetchForecast(context.Background(), "London")
	assert.ErrorContains(t, err, "decode")
}
