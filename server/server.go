// Package server exposes the planner over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mealplanner"
	"mealplanner/planner"
)

// Runner plans a week and reports progress to an observer.
type Runner interface {
	RunWithObserver(ctx context.Context, mealInput map[string]mealplanner.DayInput, obs planner.Observer) (mealplanner.Plan, error)
}

type Server struct {
	router *gin.Engine
	runner Runner
}

func New(runner Runner, cfg mealplanner.ServerConfig) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	s := &Server{
		router: gin.New(),
		runner: runner,
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/v1")
	{
		v1.POST("/plans", s.createPlan)
		v1.POST("/plans/stream", s.streamPlan)
	}
}

// Handler returns the HTTP handler, for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("SERVER: Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) createPlan(c *gin.Context) {
	var req mealplanner.WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := s.runner.RunWithObserver(c.Request.Context(), req.MealInput, nil)
	if err != nil {
		slog.Error("SERVER: Plan failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// streamPlan sends day_started, day_completed and done events as server-sent events.
func (s *Server) streamPlan(c *gin.Context) {
	var req mealplanner.WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events := make(chan event, 16)
	ctx := c.Request.Context()

	go func() {
		defer close(events)
		_, err := s.runner.RunWithObserver(ctx, req.MealInput, &streamObserver{ctx: ctx, events: events})
		if err != nil {
			send(ctx, events, event{name: "error", data: gin.H{"error": err.Error()}})
		}
	}()

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(ev.name, ev.data)
		return true
	})
}

type event struct {
	name string
	data any
}

type streamObserver struct {
	ctx    context.Context
	events chan<- event
}

func (o *streamObserver) DayStarted(day string, index, total int) {
	send(o.ctx, o.events, event{name: "day_started", data: gin.H{"day": day, "index": index, "total": total}})
}

func (o *streamObserver) DayCompleted(day string, index, total int, meal mealplanner.MealRecord) {
	send(o.ctx, o.events, event{name: "day_completed", data: gin.H{"day": day, "index": index, "total": total, "meal": meal}})
}

func (o *streamObserver) RunCompleted(plan mealplanner.Plan) {
	send(o.ctx, o.events, event{name: "done", data: plan})
}

// send drops the event once the client has gone away.
func send(ctx context.Context, events chan<- event, ev event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("SERVER: Request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
