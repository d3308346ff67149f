package domain

// ComponentStatus is the probed state of a single dependency.
type ComponentStatus string

const (
	StatusHealthy   ComponentStatus = "healthy"
	StatusUnhealthy ComponentStatus = "unhealthy"
	StatusUnknown   ComponentStatus = "unknown"

	// StatusDegraded only appears as an overall status, when some but
	// not all dependencies are healthy.
	StatusDegraded ComponentStatus = "degraded"
)

// HealthStatus aggregates dependency probes into one overall state.
type HealthStatus struct {
	LLM         ComponentStatus `json:"llm_service"`
	VectorStore ComponentStatus `json:"vector_store"`
	Overall     ComponentStatus `json:"overall"`
	Error       string          `json:"error,omitempty"`
}

// Aggregate reduces component statuses to an overall status: healthy
// iff all components are healthy, degraded iff some but not all are,
// unhealthy iff none are.
func Aggregate(components ...ComponentStatus) ComponentStatus {
	healthy := 0
	for _, c := range components {
		if c == StatusHealthy {
			healthy++
		}
	}
	switch {
	case len(components) == 0:
		return StatusUnknown
	case healthy == len(components):
		return StatusHealthy
	case healthy > 0:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}
