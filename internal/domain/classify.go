package domain

// ClassifiedResult is derived from a SubmissionRecord on demand and never
// persisted. The same record always classifies the same way, so cached
// history can be re-displayed safely.
type ClassifiedResult struct {
	Kind           ResultKind  `json:"kind"`
	PassedCount    int         `json:"passedCount"`
	TotalCount     int         `json:"totalCount"`
	PrimaryFailure *TestResult `json:"primaryFailure,omitempty"`
}

// statusKinds maps a failing test's status code to a result kind. Codes
// not present here default to wrong answer.
var statusKinds = map[TestStatus]ResultKind{
	StatusCompileError: KindCompileError,
	StatusRuntimeError: KindRuntimeError,
	StatusTimeLimit:    KindTimeLimit,
	StatusMemoryLimit:  KindMemoryLimit,
	StatusSystemError:  KindSystemError,
	StatusWrongAnswer:  KindWrongAnswer,
}

// Classify maps a raw submission into the fixed result taxonomy.
//
// A complexity flag wins outright: the server only sets it after verifying
// functional correctness. Otherwise a failed submission takes its kind from
// the first non-passing test; an unmapped or missing failure resolves to
// wrong answer rather than surfacing an internal error.
func Classify(rec *SubmissionRecord) ClassifiedResult {
	if rec.ComplexityFailed {
		return ClassifiedResult{
			Kind:        KindComplexityFailed,
			PassedCount: rec.PassedCount(),
			TotalCount:  len(rec.TestResults),
		}
	}

	passed := rec.PassedCount()
	total := len(rec.TestResults)

	// A record marked passed with a short count should not occur, but it
	// must not crash either; treat it as failed.
	if !rec.Passed || passed != total {
		return classifyFailure(rec, passed, total)
	}

	return ClassifiedResult{Kind: KindAccepted, PassedCount: passed, TotalCount: total}
}

func classifyFailure(rec *SubmissionRecord, passed, total int) ClassifiedResult {
	failure := rec.FirstFailure()
	if failure == nil {
		// Upstream error before any test ran.
		return ClassifiedResult{Kind: KindWrongAnswer, PassedCount: passed, TotalCount: total}
	}

	kind, ok := statusKinds[failure.Status]
	if !ok {
		kind = KindWrongAnswer
	}
	return ClassifiedResult{Kind: kind, PassedCount: passed, TotalCount: total, PrimaryFailure: failure}
}
