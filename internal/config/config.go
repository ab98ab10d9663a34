package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Host        string `envconfig:"SERVER_HOST" default:"localhost"`
	Port        string `envconfig:"SERVER_PORT" default:"5000"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
}

type OpenWeatherMap struct {
	APIKey string `envconfig:"OPEN_WEATHER_MAP_API_KEY" required:"true"`
	URL    string `envconfig:"OPEN_WEATHER_MAP_URL" default:"https://api.openweathermap.org/data/2.5"`
	GeoURL string `envconfig:"OPEN_WEATHER_MAP_GEO_URL" default:"https://api.openweathermap.org/geo/1.0"`
	// seconds; bounds one /weather request including both upstream calls
	FetchTimeout int `envconfig:"WEATHER_FETCH_TIMEOUT" default:"10"`
}

type Breaker struct {
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"10"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type DB struct {
	Dialect string `envconfig:"DB_DIALECT" default:"sqlite"`
	Source  string `envconfig:"DB_NAME" default:"weather_app.db"`
}

type Redis struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	DbType   int    `envconfig:"REDIS_DB_TYPE" default:"0"`
	Password string `envconfig:"REDIS_PASSWORD"`
}

type Session struct {
	CookieName string `envconfig:"SESSION_COOKIE_NAME" default:"rain_session"`
	// minutes
	TTL    int  `envconfig:"SESSION_TTL" default:"1440"`
	Secure bool `envconfig:"SESSION_SECURE" default:"false"`
}

type Stats struct {
	RefreshSpec string `envconfig:"STATS_REFRESH_SPEC" default:"@every 5m"`
}

type Config struct {
	Server         Server
	OpenWeatherMap OpenWeatherMap
	Breaker        Breaker
	DB             DB
	Redis          Redis
	Session        Session
	Stats          Stats

	// "Local" reproduces the naive epoch conversion of forecast timestamps.
	PredictionTimezone string `envconfig:"PREDICTION_TIMEZONE" default:"Local"`

	LogsPath     string `envconfig:"LOGS_PATH" default:"./log/rain-forecast-app.log"`
	HTTPLogsPath string `envconfig:"HTTP_LOGS_PATH" default:"./log/outbound-http.log"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (r Redis) Address() string {
	return r.Host + ":" + r.Port
}

func (s Session) Lifetime() time.Duration {
	return time.Duration(s.TTL) * time.Minute
}

func (o OpenWeatherMap) Timeout() time.Duration {
	return time.Duration(o.FetchTimeout) * time.Second
}

// Location resolves PredictionTimezone; time.LoadLocation maps "Local" to time.Local.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.PredictionTimezone)
}
