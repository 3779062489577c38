package eventlogger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const saveTimeout = 5 * time.Second

type Worker struct {
	eventCh chan Event
	logger  EventLogger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	// mu orders Log sends before Shutdown so every accepted event is drained.
	mu      sync.RWMutex
	stopped bool
}

func NewWorker(logger EventLogger, bufferSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh: make(chan Event, bufferSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Go(func() {
		for {
			select {
			case <-w.ctx.Done():
				slog.Info("draining events before shutdown", "remaining_events", len(w.eventCh))
				for len(w.eventCh) > 0 {
					w.save(<-w.eventCh)
				}
				return
			case event := <-w.eventCh:
				w.save(event)
			}
		}
	})
}

// save runs detached from the worker context, which is already cancelled
// while draining.
func (w *Worker) save(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := w.logger.Save(ctx, event); err != nil {
		slog.Error("failed to save event", "error", err, "event_type", event.Type, "event_id", event.ID)
	}
}

// Log queues an event. It never blocks: events are dropped when the buffer
// is full or the worker has shut down.
func (w *Worker) Log(event Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		slog.Warn("event worker stopped, dropping event", "event_type", event.Type)
		return
	}
	select {
	case w.eventCh <- event:
	default:
		slog.Warn("event channel full, dropping event", "event_type", event.Type)
	}
}

// Shutdown stops accepting events and saves whatever is still buffered.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	w.cancel()
	w.wg.Wait()
}
