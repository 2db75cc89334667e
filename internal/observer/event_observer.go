package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is emitted at each step of an analysis or a report's lifecycle
type Event struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	JobID          string                 `json:"job_id,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of event
type EventType string

const (
	// AnalysisStarted when a model call begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when the model returned usable text
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the model call failed
	AnalysisFailed EventType = "analysis_failed"
	// ReportRendered when a report file is fully flushed to disk
	ReportRendered EventType = "report_rendered"
	// ReportSent when a report was streamed to the client
	ReportSent EventType = "report_sent"
	// ReportFailed when rendering or sending failed
	ReportFailed EventType = "report_failed"
	// ReportDeleted when the temp file was removed
	ReportDeleted EventType = "report_deleted"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event Event)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event Event)
}

// LoggingObserver logs events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event Event) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.JobID != "" {
		fields["job_id"] = event.JobID
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Plant analysis started")
	case AnalysisCompleted:
		entry.Info("Plant analysis completed")
	case AnalysisFailed:
		entry.Error("Plant analysis failed")
	case ReportRendered:
		entry.Debug("Report rendered")
	case ReportSent:
		entry.Info("Report sent")
	case ReportFailed:
		entry.Error("Report failed")
	case ReportDeleted:
		entry.Debug("Report file deleted")
	default:
		entry.Info("Event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver counts events by type
type MetricsObserver struct {
	mu                sync.RWMutex
	counts            map[EventType]int64
	totalAnalysisTime time.Duration
	completedAnalyses int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{counts: make(map[EventType]int64)}
}

// OnEvent handles events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.counts[event.EventType]++
	if event.EventType == AnalysisCompleted {
		o.completedAnalyses++
		o.totalAnalysisTime += event.ProcessingTime
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters keyed by event type, plus the average
// analysis time in milliseconds
func (o *MetricsObserver) GetMetrics() map[string]int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()

	metrics := make(map[string]int64, len(o.counts)+1)
	for eventType, n := range o.counts {
		metrics[string(eventType)] = n
	}
	if o.completedAnalyses > 0 {
		metrics["avg_analysis_time_ms"] = (o.totalAnalysisTime / time.Duration(o.completedAnalyses)).Milliseconds()
	}
	return metrics
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Observers outlive the request; don't hand them a context that is about to be cancelled
	ctx = context.WithoutCancel(ctx)
	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Nop discards events; used when no publisher is wired
type Nop struct{}

func (Nop) Subscribe(Observer)                     {}
func (Nop) Unsubscribe(Observer)                   {}
func (Nop) NotifyObservers(context.Context, Event) {}
