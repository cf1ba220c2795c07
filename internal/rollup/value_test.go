package rollup

import (
	"encoding/json"
	"testing"
)

func TestAmountJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(AmountOf(1234.567))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "1234.57" {
		t.Fatalf("expected 1234.57 got %s", raw)
	}
	var back Amount
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Valid || back.Value != 1234.57 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestAmountBlank(t *testing.T) {
	raw, err := json.Marshal(Amount{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `""` {
		t.Fatalf("blank amount must serialize as empty string, got %s", raw)
	}
	var back Amount
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Valid {
		t.Fatalf("expected invalid after round trip: %+v", back)
	}
}

func TestPercentJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(PercentOf(85.714))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"85.71%"` {
		t.Fatalf("expected \"85.71%%\" got %s", raw)
	}
	var back Percent
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Valid || back.Value != 85.71 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestHeaderRowWireShape(t *testing.T) {
	raw, err := json.Marshal(HeaderRow("BRANCH"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if flat["name"] != "BRANCH" {
		t.Fatalf("expected name BRANCH got %v", flat["name"])
	}
	// Every numeric field must be present under the same key as on
	// data rows with a blank value, never null or absent.
	for _, field := range []string{"target", "actual", "achievement", "drr", "gap_to_target", "mom", "yoy", "ytd", "delta"} {
		value, ok := flat[field]
		if !ok {
			t.Fatalf("field %s missing from header row", field)
		}
		if value != "" {
			t.Fatalf("field %s = %v, want blank string", field, value)
		}
	}
	if _, ok := flat["kind"]; ok {
		t.Fatal("kind discriminator must not leak into the wire format")
	}
}
