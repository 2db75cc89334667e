package models

import "time"

// ImagePayload is a decoded data-URI image. MIMEType is taken verbatim from
// the data-URI prefix; Data holds the base64-decoded bytes.
type ImagePayload struct {
	MIMEType string
	Data     []byte
}

// AnalysisResult is the sanitized text produced by the vision model
type AnalysisResult struct {
	Text string `json:"text"`
}

// ReportJob tracks one generated report from file creation to deletion.
// FilePath is unique per job; DownloadName is what the client sees.
type ReportJob struct {
	ID           string
	AnalysisText string
	Image        *ImagePayload
	FilePath     string
	DownloadName string
	CreatedAt    time.Time
}
