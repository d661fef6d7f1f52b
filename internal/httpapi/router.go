// Package httpapi exposes the JSON API over gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"classroll/internal/account"
	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/httpmiddleware"
	"classroll/internal/model"
)

// Accounts is the credential store behind the auth routes.
type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (model.Teacher, error)
	Verify(ctx context.Context, token string) (model.Teacher, bool, error)
	Authenticate(ctx context.Context, email, password string) (model.Teacher, error)
	FindByID(ctx context.Context, id string) (model.Teacher, error)
}

// Roster manages the caller's students.
type Roster interface {
	Add(ctx context.Context, teacherID, name string) (model.Student, error)
	List(ctx context.Context, teacherID string) ([]model.Student, error)
	Get(ctx context.Context, teacherID, studentID string) (model.Student, error)
	Remove(ctx context.Context, teacherID, studentID string) error
}

// Attendance marks students and summarizes a day.
type Attendance interface {
	Mark(ctx context.Context, teacherID string, in attendance.MarkInput) (model.AttendanceMark, error)
	DailySummary(ctx context.Context, teacherID, date string) ([]model.SummaryEntry, error)
	StudentMarks(ctx context.Context, teacherID, studentID, date string) ([]model.AttendanceMark, error)
}

// HealthChecker is a dependency reported by /healthz.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Deps wires the router. Limiter, Observer and MetricsHandler are optional.
type Deps struct {
	Accounts   Accounts
	Roster     Roster
	Attendance Attendance
	Sessions   auth.Sessions
	Logger     *slog.Logger

	Limiter        httpmiddleware.Limiter
	Observer       httpmiddleware.HTTPObserver
	MetricsHandler http.Handler
	Health         map[string]HealthChecker

	CORSOrigins []string
	HSTS        bool
}

// Handler serves the API routes.
type Handler struct {
	accounts   Accounts
	roster     Roster
	attendance Attendance
	sessions   auth.Sessions
	health     map[string]HealthChecker
	logger     *slog.Logger
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &Handler{
		accounts:   d.Accounts,
		roster:     d.Roster,
		attendance: d.Attendance,
		sessions:   d.Sessions,
		health:     d.Health,
		logger:     d.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(d.Logger, "/healthz", "/metrics"))
	if d.Observer != nil {
		r.Use(httpmiddleware.Metrics(d.Observer))
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(d.CORSOrigins)))
	}
	r.Use(httpmiddleware.SecurityHeaders(d.HSTS))

	r.GET("/healthz", h.Healthz)
	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	api := r.Group("")
	if d.Limiter != nil {
		api.Use(httpmiddleware.RateLimit(d.Limiter, d.Logger))
	}

	api.POST("/register", h.Register)
	api.GET("/verify-email", h.VerifyEmail)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	session := api.Group("", d.Sessions.RequireSession())
	session.GET("/me", h.Me)

	verified := session.Group("", auth.RequireVerified())
	verified.GET("/students", h.ListStudents)
	verified.POST("/students", h.AddStudent)
	verified.POST("/students/add", h.AddStudent)
	verified.GET("/students/:id", h.GetStudent)
	verified.DELETE("/students/:id", h.RemoveStudent)
	verified.GET("/students/:id/attendance", h.StudentAttendance)
	verified.POST("/attendance/mark", h.MarkAttendance)
	verified.GET("/attendance/summary", h.AttendanceSummary)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Healthz reports each dependency. Any failure answers 503.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, dep := range h.health {
		ok := dep.Healthy(ctx)
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
