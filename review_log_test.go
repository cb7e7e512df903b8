package cadence

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestReviewLogJSONRoundTrip(t *testing.T) {
	dur := 2500
	rl := ReviewLog{
		ItemID:         "01J0ABCDEF",
		Grade:          Hard,
		ReviewedAt:     t0,
		DurationMillis: &dur,
	}

	data, err := json.Marshal(rl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got ReviewLog
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.ItemID != rl.ItemID || got.Grade != rl.Grade || !got.ReviewedAt.Equal(t0) {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
	if got.DurationMillis == nil || *got.DurationMillis != dur {
		t.Errorf("DurationMillis = %v, want %d", got.DurationMillis, dur)
	}
}

func TestReviewLogJSONOmitDuration(t *testing.T) {
	rl := ReviewLog{
		ItemID:     "x",
		Grade:      Forgot,
		ReviewedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(rl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "duration_ms") {
		t.Errorf("nil DurationMillis should be omitted, got %s", data)
	}
}

func TestReviewLogJSONGradeAsString(t *testing.T) {
	rl := ReviewLog{ItemID: "x", Grade: Easy, ReviewedAt: t0}

	data, err := json.Marshal(rl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"grade":"easy"`) {
		t.Errorf("Grade should be a string in JSON, got %s", data)
	}
}

func TestReviewLogJSONRejectsBadGrade(t *testing.T) {
	var rl ReviewLog
	err := json.Unmarshal([]byte(`{"item_id":"x","grade":"meh","reviewed_at":"2025-01-01T00:00:00Z"}`), &rl)
	if err == nil {
		t.Fatal("expected error for unknown grade")
	}
}
