// Package schoolmate provides a high-level façade over the agent orchestrator
// and the domain services of the AI Schoolmate assistant. Most applications
// interact with this package by:
//  1. Creating an App via New() with a reasoning engine (optionally overriding
//     the default in-memory store, cache and logger)
//  2. Answering free-form questions with RunAgentQuery
//  3. Chatting with the engine directly via Chat
//  4. Serving the HTTP API via Handler
//
// All defaults are safe for local development and testing; production
// deployments supply the SQLite store, a redis cache and a structured logger.
package schoolmate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/schoolmate/agent"
	"github.com/hupe1980/schoolmate/cache"
	"github.com/hupe1980/schoolmate/capability"
	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/metrics"
	"github.com/hupe1980/schoolmate/model"
	"github.com/hupe1980/schoolmate/server"
	"github.com/hupe1980/schoolmate/service"
	"github.com/hupe1980/schoolmate/storage"
	"github.com/hupe1980/schoolmate/storage/memory"
)

// Options configures the App.
type Options struct {
	// Store persists students, grades, events and exam results (defaults to memory).
	Store storage.Store
	// Cache holds generated advice (defaults to no caching).
	Cache cache.Cache
	// Registry is the capability catalog advertised to the engine.
	Registry *capability.Registry

	// MaxModelCalls bounds engine round-trips per query.
	MaxModelCalls     int
	ModelTimeout      time.Duration
	CapabilityTimeout time.Duration
	MaxParallel       int

	// MismatchPolicy decides what happens when the engine names another student.
	MismatchPolicy agent.MismatchPolicy
	MismatchHook   agent.MismatchHook
	// UnscopedPolicy decides what happens when the engine names a student in
	// a query without one.
	UnscopedPolicy agent.UnscopedPolicy

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// App aggregates the orchestrator and the domain services.
type App struct {
	Students    *service.Students
	Grades      *service.Grades
	Analytics   *service.Analytics
	Events      *service.Events
	Exams       *service.Exams
	Advisor     *service.Advisor
	SecretSanta *service.SecretSanta

	opts  Options
	chat  *service.Chat
	agent *agent.Orchestrator
}

// New creates an App answering with m. Any unset dependency is initialized
// with an in-memory implementation.
func New(m model.Model, optFns ...func(o *Options)) (*App, error) {
	if m == nil {
		return nil, errors.New("schoolmate: model is required")
	}

	opts := Options{
		Store:             memory.New(),
		Cache:             cache.Noop{},
		Registry:          capability.DefaultRegistry(),
		MaxModelCalls:     2,
		ModelTimeout:      30 * time.Second,
		CapabilityTimeout: 10 * time.Second,
		MaxParallel:       4,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}

	app := &App{
		Students:  service.NewStudents(opts.Store),
		Grades:    service.NewGrades(opts.Store, opts.Cache, opts.Logger),
		Analytics: service.NewAnalytics(opts.Store, opts.Store),
		Events:    service.NewEvents(opts.Store),
		Exams:     service.NewExams(opts.Store),
		Advisor: service.NewAdvisor(opts.Store, opts.Store, m, func(o *service.AdvisorOptions) {
			o.Cache = opts.Cache
			o.Logger = opts.Logger
		}),
		SecretSanta: service.NewSecretSanta(opts.Store, func(o *service.SecretSantaOptions) {
			o.Logger = opts.Logger
		}),
		chat: service.NewChat(m, func(o *service.ChatOptions) {
			o.Timeout = opts.ModelTimeout
			o.Logger = opts.Logger
		}),
		opts: opts,
	}

	svc := agent.Services{
		Analytics: app.Analytics,
		Events:    app.Events,
		Advice:    app.Advisor,
		Exams:     app.Exams,
	}
	orchestrator, err := agent.New(m, opts.Registry, svc.Handlers(), func(o *agent.Options) {
		o.MaxModelCalls = opts.MaxModelCalls
		o.ModelTimeout = opts.ModelTimeout
		o.CapabilityTimeout = opts.CapabilityTimeout
		o.MaxParallel = opts.MaxParallel
		o.MismatchPolicy = opts.MismatchPolicy
		o.MismatchHook = opts.MismatchHook
		o.UnscopedPolicy = opts.UnscopedPolicy
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	if err != nil {
		return nil, fmt.Errorf("schoolmate: %w", err)
	}
	app.agent = orchestrator

	return app, nil
}

// RunAgentQuery answers query on behalf of subjectID, which may be empty. A
// subject that does not exist is core.ErrNotFound and the agent is not run.
func (a *App) RunAgentQuery(ctx context.Context, query, subjectID string) (agent.AgentResponse, error) {
	if subjectID != "" {
		exists, err := a.Students.Exists(ctx, subjectID)
		if err != nil {
			return agent.AgentResponse{}, err
		}
		if !exists {
			return agent.AgentResponse{}, fmt.Errorf("student %s: %w", subjectID, core.ErrNotFound)
		}
	}
	return a.Run(ctx, agent.OrchestrationRequest{Query: query, SubjectID: subjectID})
}

// Run executes one orchestration without the subject existence check.
func (a *App) Run(ctx context.Context, req agent.OrchestrationRequest) (agent.AgentResponse, error) {
	return a.agent.Run(ctx, req)
}

// Chat sends prompt straight to the engine after the prior turns in history.
// No capabilities are offered and no student data is consulted.
func (a *App) Chat(ctx context.Context, prompt string, history []service.ChatMessage) (service.ChatReply, error) {
	return a.chat.Complete(ctx, prompt, history)
}

// Handler returns the HTTP API backed by this App.
func (a *App) Handler(authSecret string) *gin.Engine {
	return server.New(server.Services{
		Agent:       a,
		Chat:        a,
		Students:    a.Students,
		Grades:      a.Grades,
		Analytics:   a.Analytics,
		Events:      a.Events,
		Exams:       a.Exams,
		Advisor:     a.Advisor,
		SecretSanta: a.SecretSanta,
	}, func(o *server.Options) {
		o.AuthSecret = authSecret
		o.Logger = a.opts.Logger
		o.Metrics = a.opts.Metrics
	})
}

// Close releases the store.
func (a *App) Close() error {
	return a.opts.Store.Close()
}
