package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Outcome is reported once per message: nil on delivery, the last error after retries run out.
type Outcome func(msg Message, err error)

// DispatcherConfig configures the worker pool.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Logger     *zap.Logger
	OnOutcome  Outcome
}

// Dispatcher hands messages to a Publisher from background workers so request handlers
// never wait on the broker. Failed deliveries are retried with a fixed delay.
type Dispatcher struct {
	publisher Publisher

	workers    int
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	logger     *zap.Logger
	onOutcome  Outcome

	queue   chan Message
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewDispatcher builds a dispatcher around publisher.
func NewDispatcher(publisher Publisher, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Dispatcher{
		publisher:  publisher,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
		onOutcome:  cfg.OnOutcome,
		queue:      make(chan Message, cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.started = true
	d.logger.Info("event dispatcher started", zap.Int("workers", d.workers))
}

// Stop cancels the workers, waits for them and closes the publisher.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return d.publisher.Close()
	}
	d.cancel()
	d.started = false
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Info("event dispatcher stopped", zap.Int("dropped", len(d.queue)))
	return d.publisher.Close()
}

// Enqueue schedules msg for delivery. It fails fast when the buffer is full.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.Lock()
	started := d.started
	ctx := d.ctx
	d.mu.Unlock()
	if !started {
		return fmt.Errorf("events: dispatcher not started")
	}
	if msg.Queued.IsZero() {
		msg.Queued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("events: dispatcher stopped: %w", ctx.Err())
	case d.queue <- msg:
		return nil
	default:
		return fmt.Errorf("events: queue full, dropping %s", msg.Type)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-d.queue:
			d.deliver(msg)
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	err := d.publisher.Publish(ctx, msg)
	cancel()
	if err == nil {
		d.report(msg, nil)
		return
	}

	msg.Attempt++
	if msg.Attempt > d.maxRetries {
		d.logger.Error("event delivery failed",
			zap.String("event_id", msg.ID),
			zap.String("type", msg.Type),
			zap.Int("attempts", msg.Attempt),
			zap.Error(err))
		d.report(msg, err)
		return
	}
	d.logger.Warn("event delivery failed, retrying",
		zap.String("event_id", msg.ID),
		zap.String("type", msg.Type),
		zap.Int("attempt", msg.Attempt),
		zap.Error(err))

	go func(m Message) {
		timer := time.NewTimer(d.retryDelay)
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
			if err := d.Enqueue(m); err != nil {
				d.logger.Error("failed to requeue event", zap.String("event_id", m.ID), zap.Error(err))
				d.report(m, err)
			}
		}
	}(msg)
}

func (d *Dispatcher) report(msg Message, err error) {
	if d.onOutcome != nil {
		d.onOutcome(msg, err)
	}
}
