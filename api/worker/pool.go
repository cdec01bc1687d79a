// Package worker provides an asynchronous worker pool that publishes
// message-persisted events to an eventstream.Publisher.
//
// The pool decouples event publishing from the server's HTTP hot path so a
// slow or unavailable broker never delays a chat reply.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/chatline/pkg/eventstream"
	"github.com/papercomputeco/chatline/pkg/logger"
	"github.com/papercomputeco/chatline/pkg/storage"
)

var (
	defaultNumWorkers     uint = 3
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 10 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Source    eventstream.EventSource
	UserID    int64
	Message   *storage.Message
	Streaming bool
	Truncated bool
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives one event per job.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds each publish (defaults to 10s).
	PublishTimeout time.Duration

	// Logger is the provided slog logger. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Pool publishes events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, fmt.Errorf("worker pool requires a publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Message == nil {
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"chat_id", job.Message.ChatID,
			"message_id", job.Message.ID,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"chat_id", job.Message.ChatID,
			"message_id", job.Message.ID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}

// processJob builds the event for a job and publishes it. Failures are
// logged, never retried.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	m := job.Message
	event := eventstream.NewMessagePersistedEvent(job.Source, eventstream.MessageMeta{
		ID:        m.ID,
		ChatID:    m.ChatID,
		UserID:    job.UserID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Streaming: job.Streaming,
		Truncated: job.Truncated,
	})

	if err := p.config.Publisher.PublishMessage(ctx, event); err != nil {
		p.logger.Error("publishing message event failed",
			"event_id", event.EventID,
			"chat_id", m.ChatID,
			"error", err,
		)
		return
	}

	p.logger.Info("message event published",
		"event_id", event.EventID,
		"chat_id", m.ChatID,
		"role", m.Role,
	)
}
