package filter

import (
	"reflect"
	"testing"
	"time"
)

func TestParseJournalFilter_KindEquals(t *testing.T) {
	cond, err := ParseJournalFilter(`kind = "votes.revealed"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "kind = ?" {
		t.Errorf("expected 'kind = ?', got %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{"votes.revealed"}) {
		t.Errorf("Params = %v", cond.Params)
	}
}

func TestParseJournalFilter_Empty(t *testing.T) {
	cond, err := ParseJournalFilter(" ")
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "" || cond.Params != nil {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseJournalFilter_AndOr(t *testing.T) {
	cond, err := ParseJournalFilter(`session_id = "red-sky" AND role = "observer"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "(session_id = ? AND role = ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{"red-sky", "observer"}) {
		t.Fatalf("Params = %v", cond.Params)
	}

	cond, err = ParseJournalFilter(`kind = "room.ended" OR kind = "room.expired"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "(kind = ? OR kind = ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
}

func TestParseJournalFilter_NotEqualsAndTimestamp(t *testing.T) {
	cond, err := ParseJournalFilter(`role != "estimator"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "role != ?" {
		t.Fatalf("Clause = %q", cond.Clause)
	}

	cond, err = ParseJournalFilter(`ts > timestamp("2026-01-01T00:00:00Z")`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "ts_millis > ?" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if len(cond.Params) != 1 || cond.Params[0] != want {
		t.Fatalf("Params = %v, want [%d]", cond.Params, want)
	}
}

func TestParseJournalFilter_InvalidField(t *testing.T) {
	if _, err := ParseJournalFilter(`unknown = "x"`); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseJournalFilter_InvalidValueFunc(t *testing.T) {
	if _, err := ParseJournalFilter(`ts = duration("1h")`); err == nil {
		t.Fatal("expected error for unsupported value function")
	}
}

func TestParseJournalFilter_InvalidTimestamp(t *testing.T) {
	if _, err := ParseJournalFilter(`ts = timestamp("not-a-time")`); err == nil {
		t.Fatal("expected error for invalid timestamp")
	}
}
