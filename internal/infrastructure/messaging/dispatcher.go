package messaging

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
	"github.com/fesc-practicas/practicas-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// Sits between the raw bus and the subscribers: retries transient failures,
// recovers panics and parks events that keep failing in a dead letter queue.
// A cache invalidation that dies silently would leave a stale semáforo on the
// director's dashboard until the TTL expires.
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher routes events to registered handlers with middleware, retry and a
// dead letter queue. It implements shared.EventSubscriber so subscriber
// packages can register through it without knowing about retries.
type Dispatcher struct {
	eventBus    shared.EventBus
	handlers    map[shared.EventType][]HandlerRegistration
	allHandlers []HandlerRegistration
	middlewares []Middleware
	retryConfig RetryConfig
	deadLetterQ *DeadLetterQueue
	log         *logger.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	workerPool  chan struct{}
}

// HandlerRegistration contains handler metadata.
type HandlerRegistration struct {
	Name       string
	Handler    shared.EventHandler
	MaxRetries int
	Timeout    time.Duration
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	// EventBus is the underlying event bus.
	EventBus shared.EventBus

	// WorkerPoolSize is the number of concurrent workers.
	WorkerPoolSize int

	// RetryConfig configures retry behavior.
	RetryConfig RetryConfig

	// DeadLetterQueueSize is the max size of the DLQ (0 disables it).
	DeadLetterQueueSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// RetryConfig contains retry configuration.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// InitialBackoff is the initial wait between retries.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait between retries.
	MaxBackoff time.Duration

	// BackoffMultiplier is the factor for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig(eventBus shared.EventBus) DispatcherConfig {
	return DispatcherConfig{
		EventBus:            eventBus,
		WorkerPoolSize:      10,
		RetryConfig:         DefaultRetryConfig(),
		DeadLetterQueueSize: 1000,
	}
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		eventBus:    config.EventBus,
		handlers:    make(map[shared.EventType][]HandlerRegistration),
		middlewares: make([]Middleware, 0),
		retryConfig: config.RetryConfig,
		log:         config.Logger.With(logger.Component("dispatcher")),
		ctx:         ctx,
		cancel:      cancel,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
	}

	if config.DeadLetterQueueSize > 0 {
		d.deadLetterQ = NewDeadLetterQueue(config.DeadLetterQueueSize)
	}

	return d
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// RegisterHandler registers a handler for an event type.
func (d *Dispatcher) RegisterHandler(eventType shared.EventType, reg HandlerRegistration) error {
	reg, err := d.normalize(reg)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], reg)
	d.log.Debug("registered handler",
		logger.String("event_type", string(eventType)),
		logger.String("handler_name", reg.Name),
	)

	return nil
}

// Subscribe implements shared.EventSubscriber.
func (d *Dispatcher) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return d.RegisterHandler(eventType, HandlerRegistration{Handler: handler})
}

// SubscribeAll implements shared.EventSubscriber. The handler receives every
// dispatched event.
func (d *Dispatcher) SubscribeAll(handler shared.EventHandler) error {
	reg, err := d.normalize(HandlerRegistration{Handler: handler})
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.allHandlers = append(d.allHandlers, reg)
	return nil
}

func (d *Dispatcher) normalize(reg HandlerRegistration) (HandlerRegistration, error) {
	if reg.Handler == nil {
		return reg, errors.New("handler cannot be nil")
	}
	if reg.Name == "" {
		reg.Name = fmt.Sprintf("handler-%d", time.Now().UnixNano())
	}
	if reg.MaxRetries <= 0 {
		reg.MaxRetries = d.retryConfig.MaxRetries
	}
	if reg.Timeout <= 0 {
		reg.Timeout = 30 * time.Second
	}
	return reg, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// Use adds middleware to the dispatcher.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// RecoveryMiddleware recovers from panics in handlers.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler panic recovered",
						logger.String("event_type", string(event.EventType())),
						logger.Any("panic", r),
						logger.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs handler execution.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			duration := time.Since(start)

			if err != nil {
				log.Error("handler failed",
					logger.String("event_type", string(event.EventType())),
					logger.String("aggregate_id", event.AggregateID()),
					logger.Latency(duration),
					logger.Err(err),
				)
			} else {
				log.Debug("handler completed",
					logger.String("event_type", string(event.EventType())),
					logger.String("aggregate_id", event.AggregateID()),
					logger.Latency(duration),
				)
			}

			return err
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT DISPATCHING
// ══════════════════════════════════════════════════════════════════════════════

// Start subscribes the dispatcher to every event on the bus.
func (d *Dispatcher) Start() error {
	return d.eventBus.SubscribeAll(func(event shared.Event) error {
		return d.dispatch(event)
	})
}

// Dispatch manually dispatches an event to registered handlers.
func (d *Dispatcher) Dispatch(event shared.Event) error {
	return d.dispatch(event)
}

func (d *Dispatcher) dispatch(event shared.Event) error {
	d.mu.RLock()
	handlers := make([]HandlerRegistration, 0, len(d.handlers[event.EventType()])+len(d.allHandlers))
	handlers = append(handlers, d.handlers[event.EventType()]...)
	handlers = append(handlers, d.allHandlers...)
	middlewares := d.middlewares
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var errs []error
	for _, reg := range handlers {
		if err := d.executeHandler(event, reg, middlewares); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("handler errors: %v", errs)
	}

	return nil
}

func (d *Dispatcher) executeHandler(event shared.Event, reg HandlerRegistration, middlewares []Middleware) error {
	// Acquire worker slot
	select {
	case d.workerPool <- struct{}{}:
		defer func() { <-d.workerPool }()
	case <-d.ctx.Done():
		return d.ctx.Err()
	}

	// Build handler chain with middleware
	handler := reg.Handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	// Execute with retry
	var lastErr error
	for attempt := 0; attempt <= reg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := d.calculateBackoff(attempt)
			d.log.Debug("retrying handler",
				logger.String("handler", reg.Name),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff),
			)

			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := d.executeWithTimeout(handler, event, reg.Timeout)
		if err == nil {
			return nil
		}

		lastErr = err
		d.log.Warn("handler attempt failed",
			logger.String("handler", reg.Name),
			logger.Int("attempt", attempt),
			logger.Err(err),
		)
	}

	// All retries exhausted - park the event in the dead letter queue
	if d.deadLetterQ != nil {
		d.deadLetterQ.Add(DeadLetterEntry{
			Event:       event,
			HandlerName: reg.Name,
			Error:       lastErr,
			Attempts:    reg.MaxRetries + 1,
			FailedAt:    time.Now(),
		})
	}

	return fmt.Errorf("handler %s failed after %d attempts: %w", reg.Name, reg.MaxRetries+1, lastErr)
}

func (d *Dispatcher) executeWithTimeout(handler shared.EventHandler, event shared.Event, timeout time.Duration) error {
	done := make(chan error, 1)

	go func() {
		done <- handler(event)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("handler timeout after %v", timeout)
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

func (d *Dispatcher) calculateBackoff(attempt int) time.Duration {
	backoff := float64(d.retryConfig.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= d.retryConfig.BackoffMultiplier
	}

	if backoff > float64(d.retryConfig.MaxBackoff) {
		backoff = float64(d.retryConfig.MaxBackoff)
	}

	return time.Duration(backoff)
}

// Stop gracefully stops the dispatcher.
func (d *Dispatcher) Stop() error {
	d.cancel()
	d.log.Info("dispatcher stopped")
	return nil
}

// DeadLetters returns the dead letter queue (nil when disabled).
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.deadLetterQ
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry represents a failed event.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue stores events that failed processing.
type DeadLetterQueue struct {
	mu      sync.RWMutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a new dead letter queue.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &DeadLetterQueue{
		entries: make([]DeadLetterEntry, 0),
		maxSize: maxSize,
	}
}

// Add adds an entry to the queue.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Remove oldest if at capacity
	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}

	q.entries = append(q.entries, entry)
}

// Entries returns all entries.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]DeadLetterEntry, len(q.entries))
	copy(result, q.entries)
	return result
}

// Size returns the current queue size.
func (q *DeadLetterQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Pop removes and returns the oldest entry.
func (q *DeadLetterQueue) Pop() (DeadLetterEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return DeadLetterEntry{}, false
	}

	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, true
}
