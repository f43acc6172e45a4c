package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// CategoriesResponse lists the categories in model output order
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Time       string `json:"time"`
	Categories int    `json:"categories"`
}
