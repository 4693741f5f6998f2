package devserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	authClaimsKey = "auth_claims"

	// DefaultCookieName is the cookie set at sign-in and accepted by the auth middleware.
	DefaultCookieName = "access_token"
)

// Server holds the dependencies shared by the handlers.
type Server struct {
	logger     *zap.Logger
	store      Store
	tokens     *TokenService
	cookieName string
	now        func() time.Time
}

// New creates a Server. An empty cookieName uses DefaultCookieName.
func New(logger *zap.Logger, store Store, tokens *TokenService, cookieName string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Server{
		logger:     logger,
		store:      store,
		tokens:     tokens,
		cookieName: cookieName,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Router builds the gin engine serving everything under /api.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(zapLoggerMiddleware(s.logger), gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, detail("Not Found"))
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/sign-up/email", s.signUp)
	auth.POST("/sign-in/email", s.signIn)
	auth.POST("/sign-out", s.authMiddleware(), s.signOut)

	api.GET("/users/me", s.authMiddleware(), s.me)

	tasks := api.Group("/tasks", s.authMiddleware())
	tasks.GET("", s.listTasks)
	tasks.POST("", s.createTask)
	tasks.GET("/:id", s.getTask)
	tasks.PUT("/:id", s.updateTask)
	tasks.PATCH("/:id/toggle", s.toggleTask)
	tasks.DELETE("/:id", s.deleteTask)

	return r
}

// zapLoggerMiddleware logs one line per request.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// authMiddleware accepts the token from "Authorization: Bearer" or from the session cookie.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(s.cookieName)
		}
		if raw == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, detail("Not authenticated"))
			return
		}

		claims, err := s.tokens.Parse(c.Request.Context(), raw)
		if err != nil {
			if !errors.Is(err, ErrTokenInvalid) && !errors.Is(err, ErrTokenExpired) && !errors.Is(err, ErrTokenRevoked) {
				s.logger.Error("token check failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, detail("Internal server error"))
				return
			}
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, detail("Could not validate credentials"))
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("bearer "):])
}

// authClaims returns the claims stored by authMiddleware.
func authClaims(c *gin.Context) (Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := val.(Claims)
	return claims, ok
}

// detail is the error body shape: {"detail": "..."}.
func detail(msg string) gin.H {
	return gin.H{"detail": msg}
}

// fieldError is one entry of a {"detail": [...]} validation body.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func validationDetail(errs ...fieldError) gin.H {
	return gin.H{"detail": errs}
}
