package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CreditScore/pkg/http/middleware"
	applogger "CreditScore/pkg/logger"
)

// Handler registers its routes on the echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

type ServerOption func(*serverOptions)

type serverOptions struct {
	host          string
	port          int
	readTimeout   time.Duration
	writeTimeout  time.Duration
	shutdown      time.Duration
	bodyLimit     string
	corsOrigins   []string
	metricsPath   string
	slowThreshold time.Duration
	log           *applogger.Logger
}

// Server is the echo instance with the service middleware chain:
// recover, request log, metrics, body limit and optional CORS.
type Server struct {
	echo *echo.Echo
	opts serverOptions
}

func NewServer(handler Handler, opts ...ServerOption) *Server {
	o := serverOptions{
		host:          "0.0.0.0",
		port:          8000,
		readTimeout:   10 * time.Second,
		writeTimeout:  10 * time.Second,
		shutdown:      10 * time.Second,
		bodyLimit:     "64K",
		metricsPath:   "/metrics",
		slowThreshold: time.Second,
		log:           applogger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = o.readTimeout
	e.Server.WriteTimeout = o.writeTimeout

	e.Use(middleware.Recover(o.log), middleware.RequestLogging(o.log))
	if o.metricsPath != "" {
		e.Use(middleware.Metrics(o.log, o.slowThreshold))
	}
	if o.bodyLimit != "" {
		e.Use(emw.BodyLimit(o.bodyLimit))
	}
	if len(o.corsOrigins) > 0 {
		e.Use(emw.CORSWithConfig(emw.CORSConfig{
			AllowOrigins: o.corsOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	if o.metricsPath != "" {
		e.GET(o.metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{echo: e, opts: o}
}

// Start listens in the background. Listen errors other than a clean
// shutdown are logged.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.opts.host, strconv.Itoa(s.opts.port))
	go func() {
		s.opts.log.Info("HTTP server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.opts.log.Error("HTTP server error", applogger.Error(err))
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.opts.log.Info("HTTP server stopped")
	return nil
}

func (s *Server) ShutdownTimeout() time.Duration { return s.opts.shutdown }

func (s *Server) Echo() *echo.Echo { return s.echo }

func WithHost(host string) ServerOption {
	return func(o *serverOptions) { o.host = host }
}

func WithPort(port int) ServerOption {
	return func(o *serverOptions) { o.port = port }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.readTimeout, o.writeTimeout, o.shutdown = read, write, shutdown
	}
}

// WithCORSOrigins enables CORS for the given origins.
func WithCORSOrigins(origins ...string) ServerOption {
	return func(o *serverOptions) { o.corsOrigins = origins }
}

// WithBodyLimit caps request bodies, e.g. "64K". "" removes the cap.
func WithBodyLimit(limit string) ServerOption {
	return func(o *serverOptions) { o.bodyLimit = limit }
}

// WithMetricsPath moves the Prometheus endpoint. "" disables it along with
// the request metrics middleware.
func WithMetricsPath(path string) ServerOption {
	return func(o *serverOptions) { o.metricsPath = path }
}

func WithSlowThreshold(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.slowThreshold = d }
}

func WithLogger(l *applogger.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.log = l
		}
	}
}
