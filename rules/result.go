package rules

// Result is the outcome of rule validation for a single finding.
type Result struct {
	Valid                bool     `json:"valid"`
	ConfidenceAdjustment float64  `json:"confidence_adjustment"`
	ChecksPassed         []string `json:"checks_passed"`
	ChecksFailed         []string `json:"checks_failed"`
	Notes                []string `json:"notes"`
}

func newResult() *Result {
	return &Result{
		ChecksPassed: []string{},
		ChecksFailed: []string{},
		Notes:        []string{},
	}
}

func (r *Result) pass(check string, weight float64) {
	r.ChecksPassed = append(r.ChecksPassed, check)
	r.ConfidenceAdjustment += weight
}

func (r *Result) fail(check string, weight float64, note string) {
	r.ChecksFailed = append(r.ChecksFailed, check)
	r.ConfidenceAdjustment += weight
	if note != "" {
		r.Notes = append(r.Notes, note)
	}
}

func (r *Result) note(note string) {
	r.Notes = append(r.Notes, note)
}

// requirePassed sets Valid when at least n checks passed.
func (r *Result) requirePassed(n int) *Result {
	r.Valid = len(r.ChecksPassed) >= n
	return r
}
