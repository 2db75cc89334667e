package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-plant-inspector/internal/config"
	apperrors "go-plant-inspector/internal/errors"
	"go-plant-inspector/internal/logger"
	"go-plant-inspector/internal/service"
	"go-plant-inspector/pkg/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by /health
const Version = "1.0.0"

const (
	msgInvalidBody     = "Invalid request body."
	msgPayloadTooLarge = "Request body is too large."
	msgInternal        = "An unexpected error occurred."
)

// StatsProvider exposes lifecycle counters for /health
type StatsProvider interface {
	GetMetrics() map[string]int64
}

func NewHandler(svc service.PlantService, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		corsMiddleware(cfg.CORSAllowedOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	// Configure routes
	r.GET("/health", healthCheck(stats, cfg.ModelProvider))
	r.POST("/analyze", analyzePlant(svc, cfg))
	r.POST("/download", downloadReport(svc, cfg))

	return r
}

func analyzePlant(svc service.PlantService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing plant analysis request")

		var req models.AnalyzeRequest
		if !bindJSON(c, &req) {
			return
		}

		res, err := svc.Analyze(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"result_chars":       len(res.Result),
		}).Info("Plant analysis completed successfully")

		c.JSON(http.StatusOK, res)
	}
}

func downloadReport(svc service.PlantService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.DownloadRequest
		if !bindJSON(c, &req) {
			return
		}

		if err := svc.DownloadReport(ctx, c.Writer, req); err != nil {
			if c.Writer.Written() {
				// Headers are gone; the client sees a truncated body
				logger.WithError(err).WithFields(logrus.Fields{
					"path": c.Request.URL.Path,
					"ip":   c.ClientIP(),
				}).Warn("Report download aborted mid-stream")
				c.Abort()
				return
			}
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"with_image":         req.Image != "",
		}).Info("Report download completed")
	}
}

func healthCheck(stats StatsProvider, provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := models.HealthResponse{
			Status:   "available",
			Version:  Version,
			Time:     time.Now().UTC().Format(time.RFC3339),
			Provider: provider,
		}
		if stats != nil {
			res.Stats = stats.GetMetrics()
		}
		c.JSON(http.StatusOK, res)
	}
}

// bindJSON decodes the body into dst and writes the error response itself
// when that fails
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, apperrors.NewPayloadTooLargeError(msgPayloadTooLarge, err))
			return false
		}
		respondError(c, apperrors.NewInvalidFormatError(msgInvalidBody, err))
		return false
	}
	return true
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	cfg.ExposeHeaders = []string{"Content-Disposition", "Content-Length"}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)

	var appErr *apperrors.AppError
	errType := string(apperrors.ErrorTypeInternal)
	if errors.As(err, &appErr) {
		errType = string(appErr.Type)
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"error_type":  errType,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error: apperrors.PublicMessage(err, msgInternal),
		Type:  errType,
	})
}
