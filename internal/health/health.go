// Package health exposes connection status, metrics and read-only stream
// endpoints for a hosting UI.
package health

// SystemStatus represents the overall health state of the client.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
)

// Report is the body of GET /health.
type Report struct {
	Status    SystemStatus `json:"status"`
	Connected bool         `json:"connected"`
	Address   string       `json:"address,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
