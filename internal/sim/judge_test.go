package sim

import (
	"testing"

	"github.com/iamasit07/code-clash/client/internal/domain"
)

func twoSumTests() []TestCase {
	return DefaultProblems[0].Tests
}

func TestRunJudgePassing(t *testing.T) {
	code := "return [0,1] [1,2]" // contains every expected output
	results := runJudge("[0,1] [1,2] [0,1]"+code, twoSumTests())
	if !allPassed(results) {
		t.Errorf("expected all tests to pass: %+v", results)
	}
	if passedCount(results) != len(twoSumTests()) {
		t.Errorf("passedCount = %d", passedCount(results))
	}
}

func TestRunJudgeWrongAnswer(t *testing.T) {
	results := runJudge("[0,1]", twoSumTests())
	if allPassed(results) {
		t.Fatal("partial solution must not pass everything")
	}
	if results[0].Status != domain.StatusPassed {
		t.Errorf("first test = %q, want passed", results[0].Status)
	}
	if results[1].Status != domain.StatusWrongAnswer {
		t.Errorf("second test = %q, want wrong answer", results[1].Status)
	}
}

func TestRunJudgeMarkers(t *testing.T) {
	cases := []struct {
		marker string
		want   domain.TestStatus
	}{
		{"@@compile_error", domain.StatusCompileError},
		{"@@runtime_error", domain.StatusRuntimeError},
		{"@@slow", domain.StatusTimeLimit},
		{"@@hog", domain.StatusMemoryLimit},
	}
	for _, tc := range cases {
		t.Run(tc.marker, func(t *testing.T) {
			results := runJudge(tc.marker, twoSumTests())
			if results[0].Status != tc.want {
				t.Errorf("first test = %q, want %q", results[0].Status, tc.want)
			}
		})
	}

	// A compile error poisons every test, not just the first.
	results := runJudge("@@compile_error", twoSumTests())
	for i, r := range results {
		if r.Status != domain.StatusCompileError {
			t.Errorf("test %d = %q, want compile error", i, r.Status)
		}
	}
}

func TestDeriveComplexity(t *testing.T) {
	if got := deriveComplexity("@@brute [0,1]"); got != "O(n^2)" {
		t.Errorf("brute marker derived %q", got)
	}
	if got := deriveComplexity("[0,1]"); got != "O(n)" {
		t.Errorf("plain solution derived %q", got)
	}
}

func TestAllPassedEmpty(t *testing.T) {
	if allPassed(nil) {
		t.Error("zero tests must not count as passing")
	}
}
