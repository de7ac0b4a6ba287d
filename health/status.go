package health

// Status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Status is the health of a component.
type Status struct {
	// Status is one of StatusHealthy, StatusDegraded or StatusUnhealthy.
	Status string `json:"status"`

	// Message is a human-readable description.
	Message string `json:"message,omitempty"`

	// Details carries diagnostic context.
	Details map[string]any `json:"details,omitempty"`
}

// IsHealthy reports whether the status is StatusHealthy.
func (s Status) IsHealthy() bool { return s.Status == StatusHealthy }

// IsDegraded reports whether the status is StatusDegraded.
func (s Status) IsDegraded() bool { return s.Status == StatusDegraded }

// IsUnhealthy reports whether the status is StatusUnhealthy.
func (s Status) IsUnhealthy() bool { return s.Status == StatusUnhealthy }

// Healthy returns a healthy status.
func Healthy(message string) Status {
	return Status{Status: StatusHealthy, Message: message}
}

// Degraded returns a degraded status.
func Degraded(message string, details map[string]any) Status {
	return Status{Status: StatusDegraded, Message: message, Details: details}
}

// Unhealthy returns an unhealthy status.
func Unhealthy(message string, details map[string]any) Status {
	return Status{Status: StatusUnhealthy, Message: message, Details: details}
}
