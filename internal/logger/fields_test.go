package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  source  ", Value: "  dribbble  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "source" || fields[0].String != "dribbble" {
		t.Fatalf("unexpected source field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestSourceFields(t *testing.T) {
	fields := SourceFields("  sheets  ", "bucket-1")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldSource || fields[0].String != "sheets" {
		t.Fatalf("unexpected source field: %+v", fields[0])
	}

	if fields[1].Key != FieldBucket || fields[1].String != "bucket-1" {
		t.Fatalf("unexpected bucket field: %+v", fields[1])
	}

	empty := SourceFields("", "")
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestCandidateFields(t *testing.T) {
	fields := CandidateFields("bucket-1", "janedoe")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldBucket || fields[0].String != "bucket-1" {
		t.Fatalf("unexpected bucket field: %+v", fields[0])
	}

	if fields[1].Key != FieldCandidate || fields[1].String != "janedoe" {
		t.Fatalf("unexpected candidate field: %+v", fields[1])
	}

	if got := CandidateFields("bucket-1", ""); len(got) != 1 {
		t.Fatalf("expected empty candidate to be dropped, got %d fields", len(got))
	}
}

func TestWithSourceFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithSourceFields(logger, "sheets", "bucket-1")
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldSource] != "sheets" {
		t.Fatalf("expected source field to be sheets, got %q", ctx[FieldSource])
	}

	if ctx[FieldBucket] != "bucket-1" {
		t.Fatalf("expected bucket field to be bucket-1, got %q", ctx[FieldBucket])
	}

	enriched = WithSourceFields(nil, "sheets", "bucket-1")
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}
