package weather

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
	weatherservice "github.com/Nazarious-ucu/rain-forecast-app/internal/services/weather"
)

const msgCoordinatesRequired = "Latitude and longitude are required"

type weatherGetterService interface {
	GetByCity(ctx context.Context, city string) (*models.WeatherReport, error)
	GetByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherReport, error)
	SearchCities(ctx context.Context, query string) []models.CityMatch
}

type coordinatesRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

type Handler struct {
	service weatherGetterService
	timeout time.Duration
}

func NewHandler(svc weatherGetterService, timeout time.Duration) *Handler {
	return &Handler{service: svc, timeout: timeout}
}

// GetWeather
// @Summary Rain forecast for a city
// @Description Returns current conditions, the 5 day forecast and rain predictions for a city
// @Tags weather
// @Accept x-www-form-urlencoded
// @Produce json
// @Param city formData string true "City name"
// @Success 200 {object} models.WeatherReport
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /weather [post]
func (h *Handler) GetWeather(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	report, err := h.service.GetByCity(ctx, c.PostForm("city"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetWeatherByCoordinates
// @Summary Rain forecast for coordinates
// @Description Same as /weather but keyed by latitude and longitude
// @Tags weather
// @Accept json
// @Produce json
// @Param coordinates body models.Coordinates true "Latitude and longitude"
// @Success 200 {object} models.WeatherReport
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /weather/coordinates [post]
func (h *Handler) GetWeatherByCoordinates(c *gin.Context) {
	var req coordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgCoordinatesRequired})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	report, err := h.service.GetByCoordinates(ctx, *req.Lat, *req.Lon)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// SearchCities
// @Summary City autocomplete
// @Description Up to 5 cities matching the query; queries shorter than 2 characters give an empty list
// @Tags weather
// @Produce json
// @Param q query string true "Partial city name"
// @Success 200 {array} models.CityMatch
// @Failure 401 {object} map[string]string
// @Router /cities/search [get]
func (h *Handler) SearchCities(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	c.JSON(http.StatusOK, h.service.SearchCities(ctx, c.Query("q")))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, weatherservice.ErrCityRequired),
		errors.Is(err, weatherservice.ErrInvalidCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, weatherservice.ErrCityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": weatherservice.ErrCityNotFound.Error()})
	}
}
