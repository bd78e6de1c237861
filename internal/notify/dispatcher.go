package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DispatcherConfig tunes the background delivery workers.
type DispatcherConfig struct {
	// QueueSize is the buffered queue capacity; an enqueue against a full
	// queue drops the notification and logs it.
	QueueSize int
	// Workers is the number of delivery goroutines.
	Workers int
	// MaxAttempts bounds delivery retries per notification.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry; it doubles on
	// each subsequent attempt.
	InitialBackoff time.Duration
}

func (c *DispatcherConfig) setDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
}

// Dispatcher queues notifications and delivers them on background workers.
// Enqueue never blocks and never reports delivery problems to the caller;
// order placement latency stays independent of notification latency.
type Dispatcher struct {
	cfg    DispatcherConfig
	sender Sender
	lg     *zap.Logger
	queue  chan Request
	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewDispatcher creates a stopped Dispatcher; call Start before Enqueue.
func NewDispatcher(cfg DispatcherConfig, sender Sender, lg *zap.Logger) *Dispatcher {
	cfg.setDefaults()
	return &Dispatcher{
		cfg:    cfg,
		sender: sender,
		lg:     lg,
		queue:  make(chan Request, cfg.QueueSize),
	}
}

// Start launches the delivery workers. They run until Stop is called or
// the given context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.group.Go(func() error {
			d.work(ctx)
			return nil
		})
	}
}

// Stop cancels the workers and waits for them to drain in-flight sends.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.group != nil {
		_ = d.group.Wait()
	}
}

// Enqueue hands a notification to the workers. When the queue is full the
// notification is dropped and logged; a slow mail backend must not stall
// checkout.
func (d *Dispatcher) Enqueue(req Request) {
	select {
	case d.queue <- req:
	default:
		d.lg.Warn("notification queue full, dropping",
			zap.String("kind", string(req.Kind)),
			zap.String("order_id", req.Order.OrderID),
		)
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			d.deliver(ctx, req)
		}
	}
}

// deliver attempts a send with bounded retries and exponential backoff.
// Exhausted attempts are logged and the notification is discarded.
func (d *Dispatcher) deliver(ctx context.Context, req Request) {
	backoff := d.cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err := d.sender.Send(ctx, req); err == nil {
			return
		} else {
			lastErr = err
		}

		if attempt == d.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	d.lg.Error("notification delivery failed, giving up",
		zap.String("kind", string(req.Kind)),
		zap.String("order_id", req.Order.OrderID),
		zap.Int("attempts", d.cfg.MaxAttempts),
		zap.Error(lastErr),
	)
}

// LogSender is a Sender that only logs; it stands in where no mail backend
// is configured.
type LogSender struct {
	lg *zap.Logger
}

// NewLogSender returns a LogSender writing to the given logger.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

// Send logs the notification and reports success.
func (s *LogSender) Send(_ context.Context, req Request) error {
	s.lg.Info("notification",
		zap.String("kind", string(req.Kind)),
		zap.String("order_id", req.Order.OrderID),
		zap.String("recipient", req.RecipientEmail),
		zap.String("status", req.Order.Status),
	)
	return nil
}
