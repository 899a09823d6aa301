package domain

import "testing"

func passRecord(ts int64, passed, total int) SubmissionRecord {
	results := make([]TestResult, total)
	for i := range results {
		if i < passed {
			results[i].Status = StatusPassed
		} else {
			results[i].Status = StatusWrongAnswer
		}
	}
	return SubmissionRecord{Timestamp: ts, TestResults: results, Passed: passed == total}
}

func TestBestSubmission(t *testing.T) {
	history := []SubmissionRecord{
		passRecord(100, 2, 3),
		passRecord(200, 3, 3),
		passRecord(300, 1, 3), // regression after the best attempt
	}
	if got := BestSubmission(history); got != 3 {
		t.Errorf("BestSubmission = %d, want 3", got)
	}
	if got := BestSubmission(nil); got != 0 {
		t.Errorf("BestSubmission(nil) = %d, want 0", got)
	}
}

func TestMergeSubmissionsUnion(t *testing.T) {
	live := []SubmissionRecord{passRecord(200, 2, 3), passRecord(400, 3, 3)}
	snapshot := []SubmissionRecord{passRecord(100, 1, 3), passRecord(300, 2, 3)}

	merged := MergeSubmissions(live, snapshot)
	if len(merged) != 4 {
		t.Fatalf("len = %d, want 4", len(merged))
	}
	for i, want := range []int64{100, 200, 300, 400} {
		if merged[i].Timestamp != want {
			t.Errorf("merged[%d].Timestamp = %d, want %d", i, merged[i].Timestamp, want)
		}
	}
}

func TestMergeSubmissionsLiveWinsOnCollision(t *testing.T) {
	liveRec := passRecord(100, 3, 3)
	liveRec.Language = "python"
	snapRec := passRecord(100, 3, 3)
	snapRec.Language = "javascript" // stale snapshot of the same attempt

	merged := MergeSubmissions([]SubmissionRecord{liveRec}, []SubmissionRecord{snapRec})
	if len(merged) != 1 {
		t.Fatalf("len = %d, want 1", len(merged))
	}
	if merged[0].Language != "python" {
		t.Errorf("collision kept snapshot record, want live")
	}
}

func TestMergeSubmissionsEmptySides(t *testing.T) {
	only := []SubmissionRecord{passRecord(100, 1, 3)}
	if got := MergeSubmissions(only, nil); len(got) != 1 {
		t.Errorf("live-only merge len = %d, want 1", len(got))
	}
	if got := MergeSubmissions(nil, only); len(got) != 1 {
		t.Errorf("snapshot-only merge len = %d, want 1", len(got))
	}
	if got := MergeSubmissions(nil, nil); len(got) != 0 {
		t.Errorf("empty merge len = %d, want 0", len(got))
	}
}

func TestFirstFailure(t *testing.T) {
	rec := passRecord(0, 1, 3)
	failure := rec.FirstFailure()
	if failure == nil {
		t.Fatal("expected a failure")
	}
	if failure.Status != StatusWrongAnswer {
		t.Errorf("Status = %q, want %q", failure.Status, StatusWrongAnswer)
	}

	clean := passRecord(0, 2, 2)
	if clean.FirstFailure() != nil {
		t.Error("expected nil for a fully passing record")
	}
}
