package scheduler

import (
	"testing"
	"time"
)

func result(success bool) JobResult {
	return JobResult{
		JobName:   "test",
		StartTime: time.Now(),
		Success:   success,
	}
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}

	h.AddResult(result(true))
	h.AddResult(result(false))
	h.AddResult(result(true))
	h.AddResult(result(true))

	if got := h.GetSuccessRate(); got != 0.75 {
		t.Errorf("GetSuccessRate() = %v, want 0.75", got)
	}
	if got := len(h.GetFailedResults()); got != 1 {
		t.Errorf("GetFailedResults() = %d, want 1", got)
	}
	if got := len(h.GetLatestResults(2)); got != 2 {
		t.Errorf("GetLatestResults(2) = %d, want 2", got)
	}
	if got := len(h.GetLatestResults(100)); got != 4 {
		t.Errorf("GetLatestResults(100) = %d, want 4", got)
	}
}

func TestJobHistoryEmpty(t *testing.T) {
	h := &JobHistory{}

	if got := h.GetSuccessRate(); got != 0.0 {
		t.Errorf("GetSuccessRate() = %v, want 0", got)
	}
	if got := h.GetLatestResults(5); len(got) != 0 {
		t.Errorf("GetLatestResults(5) = %v, want empty", got)
	}
}

func TestJobHistoryCap(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(result(true))
	}

	if len(h.Results) != 100 {
		t.Errorf("history holds %d results, want 100", len(h.Results))
	}
}
