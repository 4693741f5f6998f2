package devserver

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// validate checks the fields every auth request needs.
func (r credentialsRequest) validate() []fieldError {
	var errs []fieldError
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		errs = append(errs, fieldError{Loc: []string{"body", "email"}, Msg: "value is not a valid email address", Type: "value_error"})
	}
	if r.Password == "" {
		errs = append(errs, fieldError{Loc: []string{"body", "password"}, Msg: "field required", Type: "missing"})
	}
	return errs
}

// signUp handles POST /api/auth/sign-up/email.
func (s *Server) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid sign-up request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, invalidBody())
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, validationDetail(errs...))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, detail("Registration failed due to an unexpected error. Please try again later."))
		return
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, detail("Email already registered"))
			return
		}
		s.logger.Error("create user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, detail("Registration failed due to an unexpected error. Please try again later."))
		return
	}

	s.issue(c, user)
}

// signIn handles POST /api/auth/sign-in/email.
func (s *Server) signIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid sign-in request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, invalidBody())
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, validationDetail(errs...))
		return
	}

	user, err := s.store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("lookup user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, detail("Internal server error"))
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, detail("Incorrect email or password"))
		return
	}

	s.issue(c, user)
}

// issue signs a token for user, sets the session cookie and writes the token response.
func (s *Server) issue(c *gin.Context, user User) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, detail("could not issue token"))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, token, int(s.tokens.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// signOut handles POST /api/auth/sign-out. The token is revoked until it expires.
func (s *Server) signOut(c *gin.Context) {
	claims, ok := authClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, detail("Not authenticated"))
		return
	}
	if err := s.tokens.Revoke(c.Request.Context(), claims); err != nil {
		s.logger.Error("revoke token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, detail("Internal server error"))
		return
	}

	c.SetCookie(s.cookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// me handles GET /api/users/me.
func (s *Server) me(c *gin.Context) {
	claims, ok := authClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, detail("Not authenticated"))
		return
	}

	user, err := s.store.UserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusUnauthorized, detail("Could not validate credentials"))
			return
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, detail("Internal server error"))
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

func invalidBody() gin.H {
	return validationDetail(fieldError{Loc: []string{"body"}, Msg: "invalid JSON body", Type: "json_invalid"})
}
