package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/domain"
	"taskboard/internal/service"
	"taskboard/internal/session"
)

// Deps are the collaborators the HTTP layer routes to.
type Deps struct {
	Users         service.UserService
	Projects      service.ProjectService
	Tasks         service.TaskService
	Comments      service.CommentService
	Exports       service.ExportService
	Sessions      *session.Manager
	Authenticator *auth.Authenticator
	LocalGuard    auth.Guard
	Tokens        *auth.TokenIssuer
	Lockout       *auth.Lockout
	Logger        *logrus.Logger
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	Domain string
	Secure bool
}

// Options configures cross-cutting HTTP behaviour.
type Options struct {
	AllowedOrigins []string
	Cookie         CookieOptions
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	Deps
	opts Options
}

func NewHandler(deps Deps, opts Options) *Handler {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.LocalGuard == nil {
		deps.LocalGuard = auth.NewLocalGuard(service.LocalStrategy{Users: deps.Users})
	}
	if deps.Lockout == nil {
		deps.Lockout = auth.NewLockout(auth.DefaultLockoutPolicy)
	}
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = deps.Authenticator.CookieName()
	}
	return &Handler{Deps: deps, opts: opts}
}

const (
	msgInvalidLogin = "Invalid email or password"
	msgAuthRequired = "Authentication required"
	msgAccountLock  = "Account locked"
)

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.Logger))
	router.Use(corsMiddleware(h.opts.AllowedOrigins, h.Logger))
	router.Use(h.Authenticator.Middleware())

	requireAuth := auth.Protect(auth.AuthenticatedGuard{}, auth.Unauthorized(msgAuthRequired))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", h.checkLockout, auth.Protect(h.LocalGuard, h.denyLogin), h.login)
			authRoutes.POST("/register", h.register)
			authRoutes.POST("/logout", requireAuth, h.logout)
			authRoutes.POST("/token", requireAuth, h.issueToken)
			authRoutes.GET("/me", requireAuth, h.me)
			authRoutes.PATCH("/me", requireAuth, h.updateMe)
		}

		protected := api.Group("", requireAuth)
		{
			protected.GET("/projects", h.listProjects)
			protected.POST("/projects", h.createProject)
			protected.GET("/projects/:id", h.getProject)
			protected.PATCH("/projects/:id", h.updateProject)
			protected.DELETE("/projects/:id", h.deleteProject)
			protected.POST("/projects/:id/export", h.exportProject)
			protected.GET("/projects/:id/exports", h.listExports)
			protected.GET("/projects/:id/tasks", h.listTasks)
			protected.POST("/projects/:id/tasks", h.createTask)

			protected.GET("/tasks/:id", h.getTask)
			protected.DELETE("/tasks/:id", h.deleteTask)
			protected.GET("/tasks/:id/comments", h.listComments)
			protected.POST("/tasks/:id/comments", h.createComment)

			protected.PATCH("/comments/:id", h.updateComment)
			protected.DELETE("/comments/:id", h.deleteComment)
		}
	}
}

// principal is only called behind requireAuth.
func principal(c *gin.Context) *domain.Principal {
	p, _ := auth.PrincipalFrom(c)
	return p
}

func parseID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid " + what + " id"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "request body must be valid JSON"})
		return false
	}
	return true
}

// writeError maps service errors to responses. Unknown errors are logged and hidden.
func (h *Handler) writeError(c *gin.Context, err error) {
	var fieldErrs domain.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, gin.H{"message": "validation failed", "errors": fieldErrs})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "you are not allowed to modify this resource"})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"message": "An account with this email already exists"})
	case errors.Is(err, service.ErrExportsDisabled), errors.Is(err, auth.ErrTokensDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
	default:
		h.logFor(c).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
