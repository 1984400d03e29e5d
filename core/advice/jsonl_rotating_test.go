package advice

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/chargeplan/core/scheduler"
)

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/log.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	// large rows push the file past 1MB
	rows := make([]scheduler.PlanRow, 200)
	for i := range rows {
		rows[i] = scheduler.PlanRow{ID: i + 1, Name: strings.Repeat("x", 40), Max: 100}
	}
	rec := NewRecord(scheduler.Plan{Rows: rows}, 30, time.Now())
	for i := 0; i < 150; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(dir + "/log*.jsonl")
	if len(files) < 2 {
		t.Fatalf("expected rotated files, got %v", files)
	}
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) == 0 || len(out) > 150 {
		t.Fatalf("unexpected record count %d", len(out))
	}
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/log.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	_ = store.Append(context.Background(), NewRecord(samplePlan(), 30, time.Now()))
	out, err := store.Query(context.Background(), Query{AccountID: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
}
