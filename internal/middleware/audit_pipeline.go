package middleware

import (
	"context"
	"sync"
	"time"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	applogger "CreditScore/pkg/logger"
)

// BatchWriter is the downstream the pipeline flushes into.
type BatchWriter interface {
	RecordBatch(ctx context.Context, records []*models.AuditRecord) error
}

// AuditPipeline sits between request handling and the audit backend. Submit
// never blocks; records are batched by size or age and written with bounded
// retries. A full buffer or an exhausted retry budget drops records.
type AuditPipeline struct {
	w          BatchWriter
	metrics    domrepo.Metrics
	l          *applogger.Logger
	bufSize    int
	batchSize  int
	batchTO    time.Duration
	maxRetries int
	backoffMin time.Duration
	backoffMax time.Duration

	bufCh   chan *models.AuditRecord
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.RWMutex
	started bool
	stopped bool
}

type PipelineOption func(*AuditPipeline)

// WithBufferSize sets how many records may wait for a flush.
func WithBufferSize(n int) PipelineOption {
	return func(p *AuditPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatch sets the flush size and the max age of a partial batch.
func WithBatch(size int, timeout time.Duration) PipelineOption {
	return func(p *AuditPipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if timeout > 0 {
			p.batchTO = timeout
		}
	}
}

// WithRetry sets retry attempts after the first failed write and the backoff range.
func WithRetry(maxRetries int, backoffMin, backoffMax time.Duration) PipelineOption {
	return func(p *AuditPipeline) {
		if maxRetries >= 0 {
			p.maxRetries = maxRetries
		}
		if backoffMin > 0 {
			p.backoffMin = backoffMin
		}
		if backoffMax >= p.backoffMin {
			p.backoffMax = backoffMax
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *AuditPipeline) {
		if l != nil {
			p.l = l
		}
	}
}

// NewAuditPipeline creates a pipeline. Call Start before submitting.
func NewAuditPipeline(w BatchWriter, metrics domrepo.Metrics, opts ...PipelineOption) *AuditPipeline {
	p := &AuditPipeline{
		w:          w,
		metrics:    metrics,
		l:          applogger.Nop(),
		bufSize:    1000,
		batchSize:  100,
		batchTO:    time.Second,
		maxRetries: 3,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.AuditRecord, p.bufSize)
	return p
}

// Submit enqueues rec. It returns false when the record was dropped.
func (p *AuditPipeline) Submit(rec *models.AuditRecord) bool {
	if rec == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		p.metrics.RecordAudit("pipeline", "dropped", 1)
		return false
	}
	select {
	case p.bufCh <- rec:
		return true
	default:
		p.metrics.RecordAudit("pipeline", "dropped", 1)
		p.l.Warn("Audit buffer full, dropping record", applogger.RequestID(rec.RequestID))
		return false
	}
}

// Pending returns the number of buffered records.
func (p *AuditPipeline) Pending() int {
	return len(p.bufCh)
}

// Start launches the background flusher. The loop ends on Stop or when ctx
// is cancelled; buffered records are flushed either way.
func (p *AuditPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

// Stop flushes what is buffered and stops the flusher. Submit drops records
// afterwards.
func (p *AuditPipeline) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	started := p.started
	p.mu.Unlock()

	close(p.stopCh)
	if started {
		<-p.doneCh
	}
}

func (p *AuditPipeline) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.batchTO)
	defer ticker.Stop()

	batch := make([]*models.AuditRecord, 0, p.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		p.write(ctx, batch)
		batch = make([]*models.AuditRecord, 0, p.batchSize)
	}

	for {
		select {
		case <-p.stopCh:
			p.drain(&batch, flush)
			return
		case <-ctx.Done():
			p.drain(&batch, flush)
			return
		case rec := <-p.bufCh:
			batch = append(batch, rec)
			if len(batch) >= p.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}

func (p *AuditPipeline) drain(batch *[]*models.AuditRecord, flush func(context.Context)) {
	ctx := context.Background()
	for {
		select {
		case rec := <-p.bufCh:
			*batch = append(*batch, rec)
			if len(*batch) >= p.batchSize {
				flush(ctx)
			}
		default:
			flush(ctx)
			return
		}
	}
}

func (p *AuditPipeline) write(ctx context.Context, batch []*models.AuditRecord) {
	start := time.Now()
	backoff := p.backoffMin
	var err error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				// retries continue on a fresh context so shutdown still flushes
				ctx = context.Background()
			}
			if backoff < p.backoffMax {
				backoff = min(backoff*2, p.backoffMax)
			}
		}
		if err = p.w.RecordBatch(ctx, batch); err == nil {
			p.metrics.RecordLatency("audit_pipeline_flush", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("audit_flush")
	}
	p.metrics.RecordAudit("pipeline", "dropped", len(batch))
	p.l.Error("Dropping audit batch after retries",
		applogger.Int("records", len(batch)),
		applogger.Int("attempts", p.maxRetries+1),
		applogger.Error(err),
	)
}
