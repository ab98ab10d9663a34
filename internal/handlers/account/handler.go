package account

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/auth"
)

const (
	timeoutDuration = 10 * time.Second

	msgFieldsRequired  = "All fields are required!"
	msgInvalidEmail    = "Please enter a valid email address!"
	msgRegistered      = "Registration successful! Please log in."
	msgUnexpectedError = "Something went wrong, please try again."

	pageIndex     = "index.html"
	pageRegister  = "register.html"
	pageLogin     = "login.html"
	pageDashboard = "dashboard.html"
)

type authService interface {
	Register(ctx context.Context, form models.RegisterForm) error
	Login(ctx context.Context, form models.LoginForm) (models.Session, error)
	Logout(ctx context.Context, token string) error
	Identify(ctx context.Context, token string) (models.Identity, error)
}

type CookieSettings struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type Handler struct {
	auth   authService
	cookie CookieSettings
	logger zerolog.Logger
}

func NewHandler(svc authService, cookie CookieSettings, logger zerolog.Logger) *Handler {
	return &Handler{
		auth:   svc,
		cookie: cookie,
		logger: logger.With().Str("component", "AccountHandler").Logger(),
	}
}

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, pageIndex, gin.H{})
}

func (h *Handler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, pageRegister, gin.H{})
}

func (h *Handler) Register(c *gin.Context) {
	var form models.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, pageRegister, gin.H{"error": bindingMessage(err), "form": form})
		return
	}
	if strings.TrimSpace(form.Username) == "" || strings.TrimSpace(form.Email) == "" {
		c.HTML(http.StatusBadRequest, pageRegister, gin.H{"error": msgFieldsRequired, "form": form})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	if err := h.auth.Register(ctx, form); err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.HTML(http.StatusConflict, pageRegister, gin.H{"error": err.Error(), "form": form})
		case errors.Is(err, auth.ErrPasswordTooLong):
			c.HTML(http.StatusBadRequest, pageRegister, gin.H{"error": err.Error(), "form": form})
		default:
			h.logger.Error().Ctx(ctx).Err(err).Msg("registration failed")
			c.HTML(http.StatusInternalServerError, pageRegister, gin.H{"error": msgUnexpectedError, "form": form})
		}
		return
	}

	c.Redirect(http.StatusFound, "/login?registered=1")
}

func (h *Handler) LoginPage(c *gin.Context) {
	data := gin.H{}
	if c.Query("registered") != "" {
		data["message"] = msgRegistered
	}
	c.HTML(http.StatusOK, pageLogin, data)
}

func (h *Handler) Login(c *gin.Context) {
	var form models.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, pageLogin, gin.H{"error": msgFieldsRequired})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	sess, err := h.auth.Login(ctx, form)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.HTML(http.StatusUnauthorized, pageLogin, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error().Ctx(ctx).Err(err).Msg("login failed")
		c.HTML(http.StatusInternalServerError, pageLogin, gin.H{"error": msgUnexpectedError})
		return
	}

	h.setCookie(c, sess.Token, int(h.cookie.MaxAge.Seconds()))
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	if err := h.auth.Logout(ctx, token); err != nil {
		h.logger.Warn().Ctx(ctx).Err(err).Msg("failed to drop session")
	}

	h.setCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Dashboard(c *gin.Context) {
	id, _ := IdentityFrom(c)
	c.HTML(http.StatusOK, pageDashboard, gin.H{"username": id.Username})
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "email" {
				return msgInvalidEmail
			}
		}
	}
	return msgFieldsRequired
}
