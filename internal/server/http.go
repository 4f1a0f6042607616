package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dcaBot/internal/accumulator"
	"dcaBot/internal/finance"
	"dcaBot/internal/storage"
)

// Deps are the services behind the HTTP routes. Webhook may be nil when the
// telegram bot is disabled; Store may be nil to skip recording API runs.
type Deps struct {
	Simulator *finance.Simulator
	Charts    *finance.ChartRenderer
	Store     *storage.Store
	Webhook   http.HandlerFunc
	Timeout   time.Duration
}

func NewRouter(d Deps) *gin.Engine {
	if d.Timeout <= 0 {
		d.Timeout = 45 * time.Second
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	if d.Webhook != nil {
		r.POST("/telegram/webhook", gin.WrapF(d.Webhook))
	}

	h := &handler{Deps: d}
	api := r.Group("/api")
	{
		api.POST("/simulate", h.simulate)
		api.POST("/chart", h.chart)
		if d.Store != nil {
			api.GET("/runs", h.runs)
		}
	}
	return r
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http: request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

// statusFor maps bad input to 400 and everything else to a price source
// failure.
func statusFor(err error) int {
	if errors.Is(err, finance.ErrInvalidRequest) || errors.Is(err, accumulator.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http: simulation failed", "path", c.Request.URL.Path, "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
