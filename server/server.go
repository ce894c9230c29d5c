// Package server exposes the schoolmate services and the agent over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/schoolmate/agent"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/metrics"
	"github.com/hupe1980/schoolmate/service"
)

// Asker runs one agent query.
type Asker interface {
	Run(ctx context.Context, req agent.OrchestrationRequest) (agent.AgentResponse, error)
}

// Chatter answers a direct engine chat.
type Chatter interface {
	Chat(ctx context.Context, prompt string, history []service.ChatMessage) (service.ChatReply, error)
}

// Services are the handlers' dependencies.
type Services struct {
	Agent       Asker
	Chat        Chatter
	Students    *service.Students
	Grades      *service.Grades
	Analytics   *service.Analytics
	Events      *service.Events
	Exams       *service.Exams
	Advisor     *service.Advisor
	SecretSanta *service.SecretSanta
}

// Options configures the HTTP surface.
type Options struct {
	// AuthSecret is the static bearer token guarding /api. Empty disables auth.
	AuthSecret string
	Logger     logging.Logger
	Metrics    *metrics.Metrics
}

// New builds the gin engine with every route attached.
func New(svc Services, optFns ...func(o *Options)) *gin.Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	g := gin.New()
	g.Use(requestLogger(opts.Logger), gin.Recovery())
	attachRoutes(g, svc, opts)
	return g
}

func attachRoutes(g *gin.Engine, svc Services, opts Options) {
	h := &handlers{svc: svc, logger: opts.Logger}

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		g.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := g.Group("/api")
	if opts.AuthSecret != "" {
		api.Use(bearerAuth(opts.AuthSecret))
	} else {
		opts.Logger.Warn("server.auth.disabled")
	}

	api.POST("/agent/ask", h.ask)
	api.POST("/openai/chat", h.chat)
	api.POST("/secret-santa/generate", h.secretSanta)

	students := api.Group("/students")
	{
		students.POST("", h.createStudent)
		students.GET("", h.listStudents)
		students.GET("/:id", h.getStudent)
		students.PUT("/:id", h.updateStudent)
		students.DELETE("/:id", h.deleteStudent)
		students.GET("/:id/grades", h.studentGrades)
	}

	grades := api.Group("/grades")
	{
		grades.POST("", h.createGrade)
		grades.GET("/:id", h.getGrade)
		grades.DELETE("/:id", h.deleteGrade)
		grades.GET("/analytics/student/:studentId", h.performance)
		grades.GET("/dynamics/student/:studentId", h.dynamics)
		grades.GET("/comparison/class/:className", h.compareClass)
	}

	events := api.Group("/events")
	{
		events.POST("", h.createEvent)
		events.GET("", h.listEvents)
		events.GET("/:id", h.getEvent)
		events.PUT("/:id", h.updateEvent)
		events.DELETE("/:id", h.deleteEvent)
	}

	ent := api.Group("/ent")
	{
		ent.POST("", h.recordExam)
		ent.GET("/student/:studentId", h.examHistory)
		ent.GET("/student/:studentId/latest", h.latestExam)
	}

	api.GET("/recommendations/student/:studentId", h.recommendations)
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listen", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(
			"http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
