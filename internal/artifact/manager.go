package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go-plant-inspector/internal/clock"
	apperrors "go-plant-inspector/internal/errors"
	"go-plant-inspector/internal/logger"
	"go-plant-inspector/internal/observer"
	"go-plant-inspector/internal/report"
	"go-plant-inspector/internal/storage"
	"go-plant-inspector/pkg/models"

	"github.com/google/uuid"
)

const (
	MsgStorageFailed = "Unable to prepare the report file."
	MsgSendFailed    = "Failed to send the report."
)

// Manager owns a report file from creation until it has been sent and deleted
type Manager struct {
	store     *storage.ReportStore
	renderer  *report.Renderer
	reaper    *Reaper
	clock     clock.Clock
	publisher observer.Subject
}

// NewManager wires the lifecycle manager. A nil clock uses the system clock
// and a nil publisher discards events.
func NewManager(store *storage.ReportStore, renderer *report.Renderer, reaper *Reaper, clk clock.Clock, publisher observer.Subject) *Manager {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if publisher == nil {
		publisher = observer.Nop{}
	}
	return &Manager{
		store:     store,
		renderer:  renderer,
		reaper:    reaper,
		clock:     clk,
		publisher: publisher,
	}
}

// Create renders a report into a fresh file. On error no file is left
// behind and the renderer's error is returned unchanged.
func (m *Manager) Create(ctx context.Context, analysisText string, image *models.ImagePayload) (*models.ReportJob, error) {
	now := m.clock.Now()
	doc := report.Document{AnalysisText: analysisText, Image: image, Date: now}
	if err := m.renderer.Validate(doc); err != nil {
		return nil, err
	}

	if err := m.store.EnsureDir(); err != nil {
		return nil, apperrors.NewRenderError(MsgStorageFailed, err)
	}

	path, downloadName := m.store.NewArtifactName(now)
	job := &models.ReportJob{
		ID:           uuid.NewString(),
		AnalysisText: analysisText,
		Image:        image,
		FilePath:     path,
		DownloadName: downloadName,
		CreatedAt:    now,
	}

	f, err := m.store.Create(path)
	if err != nil {
		return nil, apperrors.NewRenderError(MsgStorageFailed, err)
	}

	start := time.Now()
	renderErr := m.renderer.RenderFile(f, doc)
	closeErr := f.Close()
	if renderErr == nil && closeErr != nil {
		renderErr = apperrors.NewRenderError(report.MsgRenderFailed, closeErr)
	}
	if renderErr != nil {
		if err := m.store.Remove(path); err != nil {
			logger.WithError(err).WithField("path", path).Warn("Failed to delete partial report file")
		}
		m.publishFailure(ctx, job, "render", renderErr)
		return nil, renderErr
	}

	m.publisher.NotifyObservers(ctx, observer.Event{
		EventType:      observer.ReportRendered,
		JobID:          job.ID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"with_image": image != nil},
	})
	return job, nil
}

// Send streams the job's file to w as a PDF attachment. The file is handed
// to the reaper once the send attempt returns, whatever its outcome.
func (m *Manager) Send(ctx context.Context, w http.ResponseWriter, job *models.ReportJob) error {
	defer m.reaper.Schedule(job.FilePath)

	f, size, err := m.store.Open(job.FilePath)
	if err != nil {
		sendErr := apperrors.NewSendError(MsgSendFailed, err)
		m.publishFailure(ctx, job, "send", sendErr)
		return sendErr
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Length", strconv.FormatInt(size, 10))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.DownloadName))
	w.WriteHeader(http.StatusOK)

	start := time.Now()
	n, err := io.Copy(w, f)
	if err == nil && n != size {
		err = fmt.Errorf("short send: %d of %d bytes", n, size)
	}
	if err != nil {
		sendErr := apperrors.NewSendError(MsgSendFailed, err)
		logger.WithError(err).WithField("job_id", job.ID).Warn("Report stream interrupted")
		m.publishFailure(ctx, job, "send", sendErr)
		return sendErr
	}

	m.publisher.NotifyObservers(ctx, observer.Event{
		EventType:      observer.ReportSent,
		JobID:          job.ID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": n, "download_name": job.DownloadName},
	})
	return nil
}

// Deliver creates the report and sends it
func (m *Manager) Deliver(ctx context.Context, w http.ResponseWriter, analysisText string, image *models.ImagePayload) error {
	job, err := m.Create(ctx, analysisText, image)
	if err != nil {
		return err
	}
	return m.Send(ctx, w, job)
}

func (m *Manager) publishFailure(ctx context.Context, job *models.ReportJob, stage string, err error) {
	m.publisher.NotifyObservers(ctx, observer.Event{
		EventType:    observer.ReportFailed,
		JobID:        job.ID,
		Success:      false,
		ErrorMessage: err.Error(),
		Metadata:     map[string]interface{}{"stage": stage},
	})
}
