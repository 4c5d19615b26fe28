package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/service"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

const sessionKey = "helpdesk.session"

// RequireSession rejects requests without a valid bearer token and stores the session
// in the gin context for SessionFrom.
func RequireSession(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authenticated session required"})
			return
		}
		sess, err := provider.Verify(c.Request.Context(), token)
		if err != nil {
			writeError(c, err, "failed to verify session")
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// SessionFrom returns the session set by RequireSession, or nil.
func SessionFrom(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}

func bearerToken(h string) string {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

type AuthHandler struct {
	provider auth.Provider
	admins   service.AdminServicer
}

func NewAuthHandler(provider auth.Provider, admins service.AdminServicer) *AuthHandler {
	return &AuthHandler{provider: provider, admins: admins}
}

type signUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := validate.Register(req.Name, req.Email, req.Password, req.ConfirmPassword); err != nil {
		writeError(c, err, "")
		return
	}
	profile, err := h.provider.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(c, err, "registration failed")
		return
	}
	c.JSON(http.StatusCreated, profile)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := validate.Login(req.Email, req.Password); err != nil {
		writeError(c, err, "")
		return
	}
	sess, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err, "login failed")
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	sess := SessionFrom(c)
	if err := h.provider.SignOut(c.Request.Context(), sess.AccessToken); err != nil {
		writeError(c, err, "logout failed")
		return
	}
	c.Status(http.StatusNoContent)
}

type recoverRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) Recover(c *gin.Context) {
	var req recoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := validate.RecoveryEmail(req.Email); err != nil {
		writeError(c, err, "")
		return
	}
	if err := h.provider.RequestRecovery(c.Request.Context(), req.Email); err != nil {
		writeError(c, err, "failed to send recovery email")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

type updatePasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := validate.PasswordReset(req.Password, req.ConfirmPassword); err != nil {
		writeError(c, err, "")
		return
	}
	if err := h.provider.UpdatePassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeError(c, err, "failed to update password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *AuthHandler) Session(c *gin.Context) {
	sess := SessionFrom(c)
	profile, err := h.admins.Get(c.Request.Context(), sess, sess.UserID)
	if err != nil {
		writeError(c, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "profile": profile})
}
