package logging

import (
	"context"
	"testing"
)

func TestContextTagging(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-7f2a")
	ctx = WithUser(ctx, "reviewer-3")
	ctx = WithRunID(ctx, "run-42")
	ctx = WithFormat(ctx, "parquet")
	ctx = WithOwner(ctx, "visible")

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"request_id", GetRequestID(ctx), "req-7f2a"},
		{"user", GetUser(ctx), "reviewer-3"},
		{"run_id", GetRunID(ctx), "run-42"},
		{"format", GetFormat(ctx), "parquet"},
		{"owner", GetOwner(ctx), "visible"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestContextTagging_UntaggedReturnsEmpty(t *testing.T) {
	ctx := context.Background()

	getters := map[string]func(context.Context) string{
		"request_id": GetRequestID,
		"user":       GetUser,
		"run_id":     GetRunID,
		"format":     GetFormat,
		"owner":      GetOwner,
	}
	for name, get := range getters {
		if got := get(ctx); got != "" {
			t.Errorf("%s on bare context = %q, want empty", name, got)
		}
	}
}

func TestContextTagging_Overwrite(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithRunID(ctx, "run-2")

	if got := GetRunID(ctx); got != "run-2" {
		t.Errorf("run_id = %q, want the later tag", got)
	}
}

func TestExtractContextFields_OrderAndOmission(t *testing.T) {
	ctx := context.Background()
	ctx = WithRunID(ctx, "run-9")
	ctx = WithRequestID(ctx, "req-1")

	fields := extractContextFields(ctx)

	// Untagged keys are omitted; tagged keys come out in the fixed order.
	want := []any{"request_id", "req-1", "run_id", "run-9"}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields %v, want %v", len(fields), fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %v, want %v", i, fields[i], want[i])
		}
	}
}

func TestExtractContextFields_EmptyContext(t *testing.T) {
	if fields := extractContextFields(context.Background()); len(fields) != 0 {
		t.Errorf("bare context produced fields: %v", fields)
	}
}

func BenchmarkExtractContextFields(b *testing.B) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-bench")
	ctx = WithUser(ctx, "reviewer-1")
	ctx = WithRunID(ctx, "run-bench")
	ctx = WithFormat(ctx, "parquet")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = extractContextFields(ctx)
	}
}
