package review

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/triage/filter"
	"github.com/zero-day-ai/triage/finding"
)

// Status is the lifecycle state of a queued item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReviewed Status = "reviewed"
)

// Verdict is a reviewer's decision.
type Verdict string

const (
	VerdictApprove   Verdict = "approve"
	VerdictReject    Verdict = "reject"
	VerdictUncertain Verdict = "uncertain"
)

// parseVerdict parses a reviewer decision, case-insensitively.
func parseVerdict(s string) (Verdict, error) {
	switch v := Verdict(strings.ToLower(strings.TrimSpace(s))); v {
	case VerdictApprove, VerdictReject, VerdictUncertain:
		return v, nil
	}
	return "", fmt.Errorf("unknown review decision %q", s)
}

const (
	basePriority          = 50
	lowConfidenceBonus    = 20
	lowConfidenceBelow    = 0.5
	mediumConfidenceBonus = 10
	mediumConfidenceBelow = 0.7
	failedChecksBonus     = 15
	failedChecksAtLeast   = 3
)

// Item is one finding awaiting or having received human review.
type Item struct {
	ID       string          `json:"id"`
	Finding  finding.Finding `json:"finding"`
	Result   filter.Result   `json:"filter_result"`
	Priority int             `json:"priority"`
	Status   Status          `json:"status"`
	AddedAt  time.Time       `json:"added_at"`

	// Set by MarkReviewed only.
	Reviewer   string     `json:"reviewer,omitempty"`
	Decision   Verdict    `json:"decision,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// Stats summarises the queue.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Reviewed int `json:"reviewed"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Priority computes the queue priority of a filtered finding.
func Priority(f *finding.Finding, res *filter.Result) int {
	p := basePriority
	if f != nil {
		p += f.Severity.ReviewBonus()
	}
	switch {
	case res.FinalConfidence < lowConfidenceBelow:
		p += lowConfidenceBonus
	case res.FinalConfidence < mediumConfidenceBelow:
		p += mediumConfidenceBonus
	}
	if res.ChecksFailed() >= failedChecksAtLeast {
		p += failedChecksBonus
	}
	return p
}

// Queue is a priority-ordered review queue. It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	items  []*Item
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock overrides the time source used for AddedAt and ReviewedAt.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// New returns an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	q.logger = q.logger.With("component", "review")
	return q
}

// Enqueue adds a finding with its filter result and returns a copy of the
// stored item. A nil finding, as carried by an error result, is stored as
// a bare finding with the result's ID.
func (q *Queue) Enqueue(f *finding.Finding, res filter.Result) Item {
	if f == nil {
		f = &finding.Finding{ID: res.FindingID}
	}
	item := &Item{
		ID:       uuid.NewString(),
		Finding:  *f,
		Result:   res,
		Priority: Priority(f, &res),
		Status:   StatusPending,
	}

	q.mu.Lock()
	item.AddedAt = q.now()
	// First index with a strictly lower priority keeps equal priorities
	// in insertion order.
	i := sort.Search(len(q.items), func(i int) bool {
		return q.items[i].Priority < item.Priority
	})
	q.items = slices.Insert(q.items, i, item)
	out := *item
	q.mu.Unlock()

	q.logger.Info("finding queued for review",
		"finding_id", f.ID,
		"item_id", item.ID,
		"priority", item.Priority)
	return out
}

// List returns the items in priority order. An empty status returns all
// items.
func (q *Queue) List(status Status) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, 0, len(q.items))
	for _, it := range q.items {
		if status == "" || it.Status == status {
			out = append(out, *it)
		}
	}
	return out
}

// MarkReviewed records a decision on the first pending item whose finding
// ID or item ID equals id. It reports whether an item was updated. Known
// verdicts are normalised ("Approve" counts as approve); others are stored
// as given.
func (q *Queue) MarkReviewed(id, reviewer string, decision Verdict, notes string) bool {
	if v, err := parseVerdict(string(decision)); err == nil {
		decision = v
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.Status != StatusPending || (it.Finding.ID != id && it.ID != id) {
			continue
		}
		now := q.now()
		it.Status = StatusReviewed
		it.Reviewer = reviewer
		it.Decision = decision
		it.Notes = notes
		it.ReviewedAt = &now
		q.logger.Info("finding reviewed",
			"finding_id", it.Finding.ID,
			"reviewer", reviewer,
			"decision", decision)
		return true
	}
	return false
}

// Len returns the number of items, reviewed or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stats counts items by status and decision.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := Stats{Total: len(q.items)}
	for _, it := range q.items {
		switch it.Status {
		case StatusPending:
			s.Pending++
		case StatusReviewed:
			s.Reviewed++
		}
		switch it.Decision {
		case VerdictApprove:
			s.Approved++
		case VerdictReject:
			s.Rejected++
		}
	}
	return s
}
