package artifact

import (
	"context"
	"sync"
	"time"

	"go-plant-inspector/internal/logger"
	"go-plant-inspector/internal/observer"
)

// Remover deletes one report file. A missing file must not be an error.
type Remover interface {
	Remove(path string) error
}

// Reaper deletes report files once they have been sent. With a zero delay
// the file is removed synchronously by Schedule; otherwise a timer is armed
// and tracked so Close can drain it.
type Reaper struct {
	store     Remover
	delay     time.Duration
	publisher observer.Subject

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	once    sync.Once
}

// NewReaper creates a reaper. A nil publisher discards events.
func NewReaper(store Remover, delay time.Duration, publisher observer.Subject) *Reaper {
	if delay < 0 {
		delay = 0
	}
	if publisher == nil {
		publisher = observer.Nop{}
	}
	return &Reaper{
		store:     store,
		delay:     delay,
		publisher: publisher,
		pending:   make(map[string]*time.Timer),
	}
}

// Schedule queues path for deletion. Scheduling a path twice keeps the first timer.
func (r *Reaper) Schedule(path string) {
	if path == "" {
		return
	}

	r.mu.Lock()
	if r.closed || r.delay == 0 {
		r.mu.Unlock()
		r.remove(path)
		return
	}
	if _, ok := r.pending[path]; ok {
		r.mu.Unlock()
		return
	}
	r.pending[path] = time.AfterFunc(r.delay, func() {
		r.mu.Lock()
		_, still := r.pending[path]
		delete(r.pending, path)
		r.mu.Unlock()
		if still {
			r.remove(path)
		}
	})
	r.mu.Unlock()
}

// Pending returns how many files are waiting for their timer
func (r *Reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close stops all timers and deletes every pending file right away. Files
// scheduled after Close are deleted synchronously.
func (r *Reaper) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		paths := make([]string, 0, len(r.pending))
		for path, timer := range r.pending {
			timer.Stop()
			paths = append(paths, path)
		}
		r.pending = make(map[string]*time.Timer)
		r.mu.Unlock()

		for _, path := range paths {
			r.remove(path)
		}
		if len(paths) > 0 {
			logger.WithField("files", len(paths)).Info("Drained pending report deletions")
		}
	})
}

func (r *Reaper) remove(path string) {
	if err := r.store.Remove(path); err != nil {
		logger.WithError(err).WithField("path", path).Warn("Failed to delete report file")
		r.publisher.NotifyObservers(context.Background(), observer.Event{
			EventType:    observer.ReportDeleted,
			Success:      false,
			ErrorMessage: err.Error(),
			Metadata:     map[string]interface{}{"path": path},
		})
		return
	}
	r.publisher.NotifyObservers(context.Background(), observer.Event{
		EventType: observer.ReportDeleted,
		Success:   true,
		Metadata:  map[string]interface{}{"path": path},
	})
}
