package health

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ModelInfo describes the classifier's loaded model. It mirrors
// classifier.ModelInfo without importing it.
type ModelInfo struct {
	Available    bool
	Models       []string
	TrainedAt    time.Time
	FeatureCount int
}

// ModelCheck is healthy when a model is loaded and degraded otherwise.
func ModelCheck(info ModelInfo) Status {
	if !info.Available {
		return Degraded("no classifier model loaded; predictions are neutral", nil)
	}
	details := map[string]any{
		"models":   info.Models,
		"features": info.FeatureCount,
	}
	if !info.TrainedAt.IsZero() {
		details["trained_at"] = info.TrainedAt.UTC().Format(time.RFC3339)
	}
	s := Healthy(fmt.Sprintf("classifier loaded with %d model(s)", len(info.Models)))
	s.Details = details
	return s
}

// ArtifactCheck verifies the model artifact file exists. A missing
// artifact degrades rather than fails the engine.
func ArtifactCheck(path string) Status {
	if path == "" {
		return Degraded("no model artifact path configured", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Degraded(
				fmt.Sprintf("model artifact '%s' does not exist", path),
				map[string]any{"path": path},
			)
		}
		return Unhealthy(
			fmt.Sprintf("failed to stat model artifact '%s'", path),
			map[string]any{
				"path":  path,
				"error": err.Error(),
			},
		)
	}
	if info.IsDir() {
		return Unhealthy(
			fmt.Sprintf("model artifact '%s' is a directory", path),
			map[string]any{"path": path},
		)
	}

	return Healthy(fmt.Sprintf("model artifact '%s' exists", path))
}

// Combine folds the model and artifact checks into one status. The worst
// status wins and its message lists every problem found, so an operator
// sees "no trained model loaded; model artifact 'x' not found" at once.
// Details carry the messages of the checks that were not healthy.
func Combine(checks ...Status) Status {
	worst := StatusHealthy
	var problems []string
	for _, c := range checks {
		if c.Status == StatusHealthy {
			continue
		}
		msg := c.Message
		if msg == "" {
			msg = c.Status + " check"
		}
		problems = append(problems, msg)
		if severity(c.Status) > severity(worst) {
			worst = c.Status
		}
	}

	if len(problems) == 0 {
		return Healthy(fmt.Sprintf("triage engine ready (%d checks)", len(checks)))
	}
	details := map[string]any{"problems": problems, "checks": len(checks)}
	msg := strings.Join(problems, "; ")
	if worst == StatusUnhealthy {
		return Unhealthy(msg, details)
	}
	return Degraded(msg, details)
}

func severity(status string) int {
	switch status {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}
