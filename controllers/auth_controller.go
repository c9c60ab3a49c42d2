package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/middleware"
	"github.com/yashrajoria/restaurant-backend/models"
)

// CookieConfig controls the session cookie written at login.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

type AuthController struct {
	service AccountServiceAPI
	cookie  CookieConfig
	logger  *zap.Logger
}

func NewAuthController(s AccountServiceAPI, cookie CookieConfig, logger *zap.Logger) *AuthController {
	return &AuthController{service: s, cookie: cookie, logger: logger}
}

func (ctrl *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := ctrl.service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, ctrl.logger, "Registration failed", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login returns a bearer token and, when sessions are enabled, sets the
// session cookie as well.
func (ctrl *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := ctrl.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, ctrl.logger, "Login failed", err)
		return
	}
	if resp.SessionKey != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, resp.SessionKey, int(ctrl.cookie.MaxAge.Seconds()), "/", "", ctrl.cookie.Secure, true)
	}
	c.JSON(http.StatusOK, resp)
}

func (ctrl *AuthController) Logout(c *gin.Context) {
	key := ""
	if id, ok := middleware.CurrentIdentity(c); ok {
		key = id.SessionKey
	}
	if key == "" {
		key, _ = c.Cookie(middleware.SessionCookie)
	}
	if err := ctrl.service.Logout(c.Request.Context(), key); err != nil {
		respondError(c, ctrl.logger, "Logout failed", err)
		return
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", ctrl.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (ctrl *AuthController) SendCode(c *gin.Context) {
	var req models.SendCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := ctrl.service.SendCode(c.Request.Context(), middleware.GetUserID(c), req.Type)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to send verification code", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ctrl *AuthController) VerifyCode(c *gin.Context) {
	var req models.VerifyCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ctrl.service.VerifyCode(c.Request.Context(), middleware.GetUserID(c), req.Type, req.Code); err != nil {
		respondError(c, ctrl.logger, "Verification failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": string(req.Type) + " verified successfully"})
}

func (ctrl *AuthController) Profile(c *gin.Context) {
	profile, err := ctrl.service.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, ctrl.logger, "Failed to load profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (ctrl *AuthController) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := ctrl.service.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
