package health

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestModelCheck(t *testing.T) {
	status := ModelCheck(ModelInfo{})
	if !status.IsDegraded() {
		t.Errorf("expected degraded status without a model, got %s", status.Status)
	}

	trained := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	status = ModelCheck(ModelInfo{
		Available:    true,
		Models:       []string{"random_forest", "logistic_regression"},
		TrainedAt:    trained,
		FeatureCount: 13,
	})
	if !status.IsHealthy() {
		t.Fatalf("expected healthy status, got %s: %s", status.Status, status.Message)
	}
	if status.Details["trained_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected trained_at detail: %v", status.Details["trained_at"])
	}
	if status.Details["features"] != 13 {
		t.Errorf("unexpected features detail: %v", status.Details["features"])
	}
}

func TestArtifactCheck(t *testing.T) {
	tmpDir := t.TempDir()
	artifact := filepath.Join(tmpDir, "model.json")
	if err := os.WriteFile(artifact, []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		expect string
	}{
		{name: "existing artifact", path: artifact, expect: StatusHealthy},
		{name: "missing artifact", path: filepath.Join(tmpDir, "missing.json"), expect: StatusDegraded},
		{name: "empty path", path: "", expect: StatusDegraded},
		{name: "directory", path: tmpDir, expect: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := ArtifactCheck(tt.path)
			if status.Status != tt.expect {
				t.Errorf("expected %s, got %s: %s", tt.expect, status.Status, status.Message)
			}
			if status.Message == "" {
				t.Error("expected non-empty message")
			}
		})
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name   string
		checks []Status
		expect string
	}{
		{
			name:   "no checks",
			expect: StatusHealthy,
		},
		{
			name:   "all healthy",
			checks: []Status{Healthy("a"), Healthy("b")},
			expect: StatusHealthy,
		},
		{
			name:   "one degraded",
			checks: []Status{Healthy("a"), Degraded("b", nil)},
			expect: StatusDegraded,
		},
		{
			name:   "unhealthy wins",
			checks: []Status{Degraded("a", nil), Unhealthy("b", nil), Healthy("c")},
			expect: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := Combine(tt.checks...)
			if status.Status != tt.expect {
				t.Errorf("expected %s, got %s", tt.expect, status.Status)
			}
		})
	}
}

func TestCombineListsProblems(t *testing.T) {
	status := Combine(
		ModelCheck(ModelInfo{}),
		Healthy("artifact ok"),
		Status{Status: StatusDegraded},
	)
	if !status.IsDegraded() {
		t.Fatalf("expected degraded, got %s", status.Status)
	}
	problems, ok := status.Details["problems"].([]string)
	if !ok || len(problems) != 2 || problems[1] != "degraded check" {
		t.Errorf("unexpected problems: %v", status.Details["problems"])
	}
	if !strings.Contains(status.Message, "; ") {
		t.Errorf("expected joined message, got %q", status.Message)
	}
}
