//go:build wireinject
// +build wireinject

package di

import (
	domrepo "CreditScore/internal/domain/repository"
	"CreditScore/pkg/config"
	"CreditScore/pkg/metrics"
	"CreditScore/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(domrepo.Metrics), new(*metrics.Recorder)),

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideKafkaPublisher,
		ProvideClickHouseClient,
		ProvideScoreStore,
		ProvideRedisCache,
		ProvideBytesCache,

		// Scoring pipeline
		ProvideEncodingTable,
		ProvideClassifier,
		ProvideAuditRecorder,
		ProvideAuditPipeline,
		ProvideCreditScoring,

		// Transports
		ProvideKafkaConsumer,
		ProvideApplicationsHandler,
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
