package domain

import "sort"

// TestResult is the outcome of a single judge test case.
type TestResult struct {
	Status         TestStatus `json:"status"`
	Input          string     `json:"input,omitempty"`
	ExpectedOutput string     `json:"expectedOutput,omitempty"`
	UserOutput     string     `json:"userOutput,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// SubmissionRecord is one full submission attempt. Records are append-only
// per user for the duration of a match; Timestamp (unix millis) is the
// ordering key.
type SubmissionRecord struct {
	Timestamp          int64        `json:"timestamp"`
	Language           string       `json:"language"`
	Code               string       `json:"code"`
	TestResults        []TestResult `json:"testResults"`
	ComplexityFailed   bool         `json:"complexityFailed,omitempty"`
	DerivedComplexity  string       `json:"derivedComplexity,omitempty"`
	ExpectedComplexity string       `json:"expectedComplexity,omitempty"`
	Passed             bool         `json:"passed"`
}

// PassedCount returns how many tests carry the canonical success code.
func (s *SubmissionRecord) PassedCount() int {
	count := 0
	for _, tr := range s.TestResults {
		if tr.Status == StatusPassed {
			count++
		}
	}
	return count
}

// FirstFailure returns the first non-passing test, or nil if every test passed.
func (s *SubmissionRecord) FirstFailure() *TestResult {
	for i := range s.TestResults {
		if s.TestResults[i].Status != StatusPassed {
			return &s.TestResults[i]
		}
	}
	return nil
}

// BestSubmission scans the full history (ascending by timestamp) and returns
// the maximum passed-test count. The most recent attempt is not guaranteed
// to be the best one.
func BestSubmission(history []SubmissionRecord) int {
	best := 0
	for i := range history {
		if n := history[i].PassedCount(); n > best {
			best = n
		}
	}
	return best
}

// MergeSubmissions unions two submission lists by timestamp, keeping
// ascending order. Entries already present (same timestamp) are not
// duplicated; the live side wins on collision.
func MergeSubmissions(live, snapshot []SubmissionRecord) []SubmissionRecord {
	seen := make(map[int64]bool, len(live))
	merged := make([]SubmissionRecord, 0, len(live)+len(snapshot))
	for _, rec := range live {
		seen[rec.Timestamp] = true
		merged = append(merged, rec)
	}
	for _, rec := range snapshot {
		if !seen[rec.Timestamp] {
			merged = append(merged, rec)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
