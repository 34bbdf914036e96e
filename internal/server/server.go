// Package server is the HTTP ingress of the adapter.
//
// Routes:
//
//	POST /alert            alert transition from the host (alerta JSON)
//	POST /status           operator status change for an alert
//	POST <webhook_path>    Telegram updates (inline button presses)
//	GET  /healthz          liveness
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tgalert/internal/action"
	"tgalert/internal/alert"
	"tgalert/internal/transport"
	logx "tgalert/pkg/logx"
)

// Hooks is the part of plugin.Registry the ingress drives.
type Hooks interface {
	PreReceive(ctx context.Context, ev *alert.Event) (*alert.Event, error)
	PostReceive(ctx context.Context, ev *alert.Event) error
	StatusChange(ctx context.Context, ev *alert.Event, status alert.Status, summary string) error
}

// ActionHandler applies a button action to the host.
type ActionHandler interface {
	HandleAction(ctx context.Context, a action.Action) (string, error)
}

type Config struct {
	Addr          string
	WebhookPath   string
	WebhookSecret string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

type Server struct {
	cfg      Config
	log      logx.Logger
	hooks    Hooks
	actions  ActionHandler
	answerer transport.CallbackAnswerer
	engine   *gin.Engine
}

type Option func(*Server)

// WithActions enables the Telegram webhook route.
func WithActions(h ActionHandler, a transport.CallbackAnswerer) Option {
	return func(s *Server) {
		s.actions = h
		s.answerer = a
	}
}

func New(cfg Config, hooks Hooks, log logx.Logger, opts ...Option) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/webhooks/telegram"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		// sends to Telegram happen inside the request
		cfg.WriteTimeout = 30 * time.Second
	}
	s := &Server{cfg: cfg, log: log, hooks: hooks}
	for _, o := range opts {
		o(s)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", s.healthz)
	r.POST("/alert", s.receiveAlert)
	r.POST("/status", s.statusChange)
	if s.actions != nil && s.answerer != nil {
		r.POST(s.cfg.WebhookPath, s.telegramWebhook)
	}
	return r
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	hs := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	s.log.Info("http server listening", logx.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("http server shutdown", logx.Err(err))
		}
		<-errCh
		s.log.Info("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			logx.String("method", c.Request.Method),
			logx.String("path", c.FullPath()),
			logx.Int("status", c.Writer.Status()),
			logx.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
