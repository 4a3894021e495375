package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CreditScore/internal/middleware"
	xhttp "CreditScore/pkg/http"
	pkgkafka "CreditScore/pkg/kafka"
	applogger "CreditScore/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

// App owns the long-running parts of the service and their shutdown order.
type App struct {
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	pipeline   *middleware.AuditPipeline
	closers    []closer
	cancel     context.CancelFunc
}

// New creates an App serving HTTP through srv.
func New(l *applogger.Logger, srv *xhttp.Server) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{log: l, httpServer: srv}
}

// WithConsumer attaches a Kafka consumer and the handler it feeds.
func (a *App) WithConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) *App {
	a.consumer = c
	a.kh = h
	return a
}

// WithAuditPipeline attaches the audit pipeline.
func (a *App) WithAuditPipeline(p *middleware.AuditPipeline) *App {
	a.pipeline = p
	return a
}

// AddCloser registers a resource closed at the end of Shutdown, in
// registration order.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Start launches background workers and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		a.log.Info("audit pipeline started")
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.Register(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	if err := a.Start(context.Background()); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	return a.Shutdown(context.Background())
}

// Shutdown stops intake first, then drains the audit pipeline, then closes
// shared clients. Errors are logged and do not stop later steps.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.httpServer.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.pipeline != nil {
		a.pipeline.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}

	// The collector publishes through a client closed below.
	a.log.RemoveCollector()

	for _, c := range a.closers {
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
