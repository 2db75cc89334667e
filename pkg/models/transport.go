package models

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	Image string `json:"image"`
}

// AnalyzeResponse echoes the original image so the client can request a
// report without uploading it again
type AnalyzeResponse struct {
	Result string `json:"result"`
	Image  string `json:"image"`
}

// DownloadRequest is the body of POST /download
type DownloadRequest struct {
	Result string `json:"result"`
	Image  string `json:"image,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string           `json:"status"`
	Version  string           `json:"version"`
	Time     string           `json:"time"`
	Provider string           `json:"provider"`
	Stats    map[string]int64 `json:"stats,omitempty"`
}
