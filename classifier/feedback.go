package classifier

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/zero-day-ai/triage/finding"
)

// Feedback is a label correction recorded for later retraining.
type Feedback struct {
	ID         string          `json:"id"`
	Finding    finding.Finding `json:"finding"`
	Label      finding.Label   `json:"label"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// FeedbackStore accumulates label corrections.
type FeedbackStore interface {
	// Add appends one correction.
	Add(ctx context.Context, fb Feedback) error

	// List returns all corrections in the order they were recorded.
	List(ctx context.Context) ([]Feedback, error)

	// Clear removes all corrections.
	Clear(ctx context.Context) error
}

// MemoryFeedbackStore is an in-process FeedbackStore.
type MemoryFeedbackStore struct {
	mu    sync.Mutex
	items []Feedback
}

// NewMemoryFeedbackStore returns an empty store.
func NewMemoryFeedbackStore() *MemoryFeedbackStore {
	return &MemoryFeedbackStore{}
}

// Add implements FeedbackStore.
func (s *MemoryFeedbackStore) Add(_ context.Context, fb Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, fb)
	return nil
}

// List implements FeedbackStore.
func (s *MemoryFeedbackStore) List(_ context.Context) ([]Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

// Clear implements FeedbackStore.
func (s *MemoryFeedbackStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}
