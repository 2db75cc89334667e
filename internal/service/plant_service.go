package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go-plant-inspector/internal/artifact"
	apperrors "go-plant-inspector/internal/errors"
	"go-plant-inspector/internal/logger"
	"go-plant-inspector/internal/observer"
	"go-plant-inspector/internal/vision"
	"go-plant-inspector/pkg/models"
	"go-plant-inspector/pkg/sanitize"
	"go-plant-inspector/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MsgAnalysisFailed is the only detail clients see when the model call fails
const MsgAnalysisFailed = "An error occurred during analysis."

// PlantService defines the two request flows: analysis and report download
type PlantService interface {
	// Analyze decodes the image, asks the model once and returns sanitized text
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error)

	// DownloadReport renders the report and streams it to w
	DownloadReport(ctx context.Context, w http.ResponseWriter, req models.DownloadRequest) error
}

type plantService struct {
	model     vision.Model
	reports   *artifact.Manager
	decoder   *validation.DataURIDecoder
	publisher observer.Subject
	timeout   time.Duration
}

// NewPlantService creates the service. A zero timeout leaves the model call
// bounded only by the request context.
func NewPlantService(
	model vision.Model,
	reports *artifact.Manager,
	publisher observer.Subject,
	analysisTimeout time.Duration,
) PlantService {
	if publisher == nil {
		publisher = observer.Nop{}
	}
	return &plantService{
		model:     model,
		reports:   reports,
		decoder:   validation.NewDataURIDecoder(),
		publisher: publisher,
		timeout:   analysisTimeout,
	}
}

func (s *plantService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	payload, err := s.decoder.Decode(req.Image)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	start := time.Now()
	s.publisher.NotifyObservers(ctx, observer.Event{
		EventType: observer.AnalysisStarted,
		JobID:     jobID,
		Metadata:  map[string]interface{}{"model": s.model.Name(), "mime_type": payload.MIMEType},
	})

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.model.Analyze(callCtx, vision.Request{
		Instruction: vision.PlantAnalysisInstruction,
		ImageData:   payload.Data,
		MIMEType:    payload.MIMEType,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = vision.ErrEmptyResponse
	}
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"job_id": jobID,
			"model":  s.model.Name(),
		}).Error("Vision model call failed")
		s.publisher.NotifyObservers(ctx, observer.Event{
			EventType:      observer.AnalysisFailed,
			JobID:          jobID,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, apperrors.NewModelError(MsgAnalysisFailed, err)
	}

	result := sanitize.StripMarkup(text)
	s.publisher.NotifyObservers(ctx, observer.Event{
		EventType:      observer.AnalysisCompleted,
		JobID:          jobID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"result_chars": len(result)},
	})

	return &models.AnalyzeResponse{Result: result, Image: req.Image}, nil
}

func (s *plantService) DownloadReport(ctx context.Context, w http.ResponseWriter, req models.DownloadRequest) error {
	var image *models.ImagePayload
	if strings.TrimSpace(req.Image) != "" {
		payload, err := s.decoder.Decode(req.Image)
		if err != nil {
			return err
		}
		image = payload
	}
	return s.reports.Deliver(ctx, w, req.Result, image)
}
