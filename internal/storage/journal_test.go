package storage

import (
	"context"
	"testing"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(MemoryDSN)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	first, err := j.Record(ctx, Entry{Kind: "ADD_ORDER", Outcome: "SUBMITTED", Payload: `{"action":"ADD_ORDER"}`, TxHash: "0xabc"})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if first.ID == "" || first.Seq != 1 || first.TsMilli == 0 {
		t.Errorf("expected generated id, seq 1 and timestamp, got %+v", first)
	}

	if _, err := j.Record(ctx, Entry{Kind: "APPROVE", Outcome: "NOT_READY"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := j.Record(ctx, Entry{Kind: "DEPOSIT", Outcome: "REJECTED", Error: "user rejected"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	all, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(all))
	}
	if all[0].Payload != `{"action":"ADD_ORDER"}` || all[0].ID != first.ID {
		t.Errorf("first entry mismatch: %+v", all[0])
	}

	last2, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(last2) != 2 || last2[0].Kind != "APPROVE" || last2[1].Kind != "DEPOSIT" {
		t.Errorf("expected the two newest in order, got %+v", last2)
	}
}

func TestJournal_Counts(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for _, o := range []string{"SUBMITTED", "SUBMITTED", "NOT_PREPARED"} {
		if _, err := j.Record(ctx, Entry{Kind: "ADD_ORDER", Outcome: o}); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := j.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts["SUBMITTED"] != 2 || counts["NOT_PREPARED"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
