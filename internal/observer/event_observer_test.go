package observer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsObserver_Counts(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, Event{EventType: AnalysisStarted})
	m.OnEvent(ctx, Event{EventType: AnalysisCompleted, ProcessingTime: 100 * time.Millisecond})
	m.OnEvent(ctx, Event{EventType: AnalysisCompleted, ProcessingTime: 300 * time.Millisecond})
	m.OnEvent(ctx, Event{EventType: ReportDeleted})

	metrics := m.GetMetrics()
	assert.Equal(t, int64(1), metrics["analysis_started"])
	assert.Equal(t, int64(2), metrics["analysis_completed"])
	assert.Equal(t, int64(1), metrics["report_deleted"])
	assert.Equal(t, int64(200), metrics["avg_analysis_time_ms"])
}

func TestEventPublisher_Notify(t *testing.T) {
	p := NewEventPublisher()
	m := NewMetricsObserver()
	p.Subscribe(m)

	p.NotifyObservers(context.Background(), Event{EventType: ReportSent, JobID: "job-1"})

	assert.Eventually(t, func() bool {
		return m.GetMetrics()["report_sent"] == 1
	}, time.Second, 10*time.Millisecond)

	p.Unsubscribe(m)
	p.NotifyObservers(context.Background(), Event{EventType: ReportSent})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), m.GetMetrics()["report_sent"])
}

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, Event) { panic("boom") }
func (panickingObserver) GetObserverName() string        { return "panicking" }

func TestEventPublisher_ObserverPanicIsContained(t *testing.T) {
	p := NewEventPublisher()
	m := NewMetricsObserver()
	p.Subscribe(panickingObserver{})
	p.Subscribe(m)

	p.NotifyObservers(context.Background(), Event{EventType: ReportFailed})

	assert.Eventually(t, func() bool {
		return m.GetMetrics()["report_failed"] == 1
	}, time.Second, 10*time.Millisecond)
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	NewLoggingObserver(log).OnEvent(context.Background(), Event{
		EventType:    ReportFailed,
		JobID:        "job-42",
		ErrorMessage: "disk full",
		Metadata:     map[string]interface{}{"stage": "render"},
	})

	out := buf.String()
	assert.Contains(t, out, `"job_id":"job-42"`)
	assert.Contains(t, out, `"error":"disk full"`)
	assert.Contains(t, out, `"stage":"render"`)
	assert.Contains(t, out, "Report failed")
}
