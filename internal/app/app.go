package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerfiles "github.com/swaggo/files"
	swagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Nazarious-ucu/rain-forecast-app/docs"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/config"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/handlers/account"
	weatherhandler "github.com/Nazarious-ucu/rain-forecast-app/internal/handlers/weather"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/metrics"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/repository/session"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/repository/sqlite"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/scheduler"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/auth"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/logger"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/prediction"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/weather"
	pkglogger "github.com/Nazarious-ucu/rain-forecast-app/pkg/logger"
	"github.com/Nazarious-ucu/rain-forecast-app/web"
)

const (
	timeoutDuration = 5 * time.Second

	metricsNamespace = "rain_forecast_app"
	breakerName      = "OpenWeatherMap"
)

type ServiceContainer struct {
	WeatherService *weather.Service
	AuthService    *auth.Service
	UserRepository *sqlite.UserRepository
	StatsJob       *scheduler.StatsJob

	Router     *gin.Engine
	Srv        *http.Server
	Db         *sql.DB
	Redis      *redis.Client
	fileLogger *zap.Logger
	M          *metrics.Metrics
}

type App struct {
	cfg config.Config
	l   zerolog.Logger
}

func New(cfg config.Config, logger zerolog.Logger) *App {
	logger = logger.With().Str("component", "App").Logger()
	return &App{cfg: cfg, l: logger}
}

// Start wires the application, serves HTTP until ctx is cancelled and then shuts down.
func (a *App) Start(ctx context.Context) error {
	sc, err := a.Init()
	if err != nil {
		return err
	}

	if err := sc.StatsJob.Start(ctx); err != nil {
		a.closeResources(sc)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.l.Info().Str("http_addr", sc.Srv.Addr).Msg("HTTP server listening")
		if err := sc.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.l.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			a.l.Error().Err(err).Msg("HTTP server error")
			_ = a.Stop(sc)
			return err
		}
	}

	return a.Stop(sc)
}

func (a *App) Stop(sc ServiceContainer) error {
	a.l.Info().Msg("Stopping application")

	sc.StatsJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
	defer cancel()

	var shutdownErr error
	if err := sc.Srv.Shutdown(ctx); err != nil {
		a.l.Error().Err(err).Msg("HTTP shutdown error")
		shutdownErr = err
	} else {
		a.l.Info().Msg("HTTP server stopped")
	}

	a.closeResources(sc)
	a.l.Info().Msg("Application shutdown complete")
	return shutdownErr
}

// Init builds every dependency and registers the routes without starting anything.
func (a *App) Init() (ServiceContainer, error) {
	a.l.Info().Str("addr", a.cfg.ServerAddress()).Msg("Initializing application")

	ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
	defer cancel()

	db, err := sqlite.CreateSqliteDb(ctx, a.cfg.DB.Dialect, a.cfg.DB.Source)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.InitSqliteDb(db, a.cfg.DB.Dialect); err != nil {
		_ = db.Close()
		return ServiceContainer{}, fmt.Errorf("migrate database: %w", err)
	}

	m := metrics.NewMetrics(metricsNamespace)
	m.Registry().MustRegister(collectors.NewDBStatsCollector(db, a.cfg.DB.Source))

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Address(),
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DbType,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.l.Warn().Err(err).Str("addr", a.cfg.Redis.Address()).Msg("Redis unreachable, logins will fail until it is up")
	}

	fileLogger, err := pkglogger.NewFileLogger(a.cfg.HTTPLogsPath)
	if err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return ServiceContainer{}, fmt.Errorf("create http file logger: %w", err)
	}

	loc, err := a.cfg.Location()
	if err != nil {
		a.l.Warn().Err(err).Str("timezone", a.cfg.PredictionTimezone).Msg("unknown timezone, using local time")
		loc = time.Local
	}

	httpClient := &http.Client{
		Transport: logger.NewRoundTripper(fileLogger),
		Timeout:   a.cfg.OpenWeatherMap.Timeout(),
	}
	owmClient := weather.NewOpenWeatherMapClient(
		a.cfg.OpenWeatherMap.APIKey,
		a.cfg.OpenWeatherMap.URL,
		a.cfg.OpenWeatherMap.GeoURL,
		httpClient,
		a.l,
	)
	breaker := weather.NewBreakerClient(breakerName, owmClient, weather.BreakerSettings{
		Interval:    time.Duration(a.cfg.Breaker.TimeInterval) * time.Second,
		Timeout:     time.Duration(a.cfg.Breaker.TimeTimeOut) * time.Second,
		MaxFailures: a.cfg.Breaker.RepeatNumber,
	})
	weatherService := weather.NewService(breaker, prediction.NewPredictor(loc), m, a.l)

	users := sqlite.NewUserRepository(db, a.l)
	sessions := session.NewRedisStore(rdb, a.l, m)
	authService := auth.NewService(users, sessions, m, a.cfg.Session.Lifetime(), a.l)

	statsJob := scheduler.NewStatsJob(users, m, a.cfg.Stats.RefreshSpec, a.l)

	router, err := a.newRouter(m, weatherService, authService)
	if err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return ServiceContainer{}, err
	}

	httpSrv := &http.Server{
		Addr:        a.cfg.ServerAddress(),
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	return ServiceContainer{
		WeatherService: weatherService,
		AuthService:    authService,
		UserRepository: users,
		StatsJob:       statsJob,
		Router:         router,
		Srv:            httpSrv,
		Db:             db,
		Redis:          rdb,
		fileLogger:     fileLogger,
		M:              m,
	}, nil
}

func (a *App) newRouter(m *metrics.Metrics, ws *weather.Service, as *auth.Service) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("static files: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), m.HTTPMiddleware())
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", http.FS(static))

	accountHandler := account.NewHandler(as, account.CookieSettings{
		Name:   a.cfg.Session.CookieName,
		MaxAge: a.cfg.Session.Lifetime(),
		Secure: a.cfg.Session.Secure,
	}, a.l)
	weatherHandler := weatherhandler.NewHandler(ws, a.cfg.OpenWeatherMap.Timeout())

	router.GET("/", accountHandler.Index)
	router.GET("/register", accountHandler.RegisterPage)
	router.POST("/register", accountHandler.Register)
	router.GET("/login", accountHandler.LoginPage)
	router.POST("/login", accountHandler.Login)
	router.GET("/logout", accountHandler.Logout)
	router.GET("/dashboard", accountHandler.RequireLogin(account.RedirectToLogin), accountHandler.Dashboard)

	api := router.Group("/", accountHandler.RequireLogin(account.DenyJSON))
	{
		api.POST("/weather", weatherHandler.GetWeather)
		api.POST("/weather/coordinates", weatherHandler.GetWeatherByCoordinates)
		api.GET("/cities/search", weatherHandler.SearchCities)
	}

	router.GET("/swagger/*any", swagger.WrapHandler(swaggerfiles.Handler))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router, nil
}

func (a *App) closeResources(sc ServiceContainer) {
	if err := sc.Redis.Close(); err != nil {
		a.l.Error().Err(err).Msg("Redis close error")
	}
	if err := sc.Db.Close(); err != nil {
		a.l.Error().Err(err).Msg("Database close error")
	} else {
		a.l.Info().Msg("Database closed")
	}
	if err := sc.fileLogger.Sync(); err != nil {
		a.l.Debug().Err(err).Msg("failed to sync http file logger")
	}
}
