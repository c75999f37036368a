package model

import (
	"encoding/json"
	"testing"
)

func TestPageStatusRoundTrip(t *testing.T) {
	t.Parallel()

	for _, status := range PageStatuses {
		if got := ParsePageStatus(status.String()); got != status {
			t.Errorf("ParsePageStatus(%q) = %v, want %v", status.String(), got, status)
		}
	}

	if got := ParsePageStatus("bogus"); got != PageStatusFailed {
		t.Errorf("expected unknown name to map to failed, got %v", got)
	}
}

func TestPageOutcomeJSONUsesStatusName(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(PageOutcome{URL: "https://example.com", Status: PageStatusClientRendered})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["status"] != "client_rendered" {
		t.Errorf("expected status name in JSON, got %v", decoded["status"])
	}
}

func TestCrawlResultCounts(t *testing.T) {
	t.Parallel()

	r := NewCrawlResult("https://example.com", 2)
	r.AddPage(PageOutcome{URL: "a", Status: PageStatusWritten})
	r.AddPage(PageOutcome{URL: "b", Status: PageStatusWritten})
	r.AddPage(PageOutcome{URL: "c", Status: PageStatusFailed})
	r.SetDiscovered([]string{"c", "a", "b"})

	counts := r.CountByStatus()
	if counts[PageStatusWritten] != 2 || counts[PageStatusFailed] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
	if len(r.Written()) != 2 {
		t.Errorf("expected 2 written pages, got %d", len(r.Written()))
	}
	if r.Discovered[0] != "a" || r.Discovered[2] != "c" {
		t.Errorf("expected sorted discovered set, got %v", r.Discovered)
	}
}
