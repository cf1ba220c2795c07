package warehouse

import (
	"testing"
	"time"
)

func TestTableForMonthPartitioned(t *testing.T) {
	date := time.Date(2025, time.June, 28, 0, 0, 0, 0, time.UTC)
	name, err := TableForMonth("summary_rev", true, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "summary_rev_202506" {
		t.Fatalf("expected summary_rev_202506 got %s", name)
	}
}

func TestTableForMonthFlat(t *testing.T) {
	date := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	name, err := TableForMonth("summary_sales", false, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "summary_sales" {
		t.Fatalf("expected summary_sales got %s", name)
	}
}

func TestTableForMonthRejectsBadIdentifier(t *testing.T) {
	date := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	for _, bad := range []string{"summary;drop", "1table", "Summary", "summary rev", ""} {
		if _, err := TableForMonth(bad, true, date); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestValidTable(t *testing.T) {
	if !ValidTable("summary_rev_202506") {
		t.Fatal("expected valid identifier")
	}
	if ValidTable("summary_rev; --") {
		t.Fatal("expected invalid identifier")
	}
}
