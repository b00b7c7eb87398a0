package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntry(id, text, source, target, final string) Entry {
	return Entry{
		RequestID:  id,
		SourceText: text,
		SourceLang: source,
		TargetLang: target,
		FinalText:  final,
		Provider:   "google",
		Results: []ProviderResult{
			{Provider: "google", Text: final, Confidence: 1, Latency: 120 * time.Millisecond},
			{Provider: "ollama", Error: "request failed"},
		},
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_Lookup_Miss(t *testing.T) {
	s := newTestStore(t)

	text, found, err := s.Lookup(context.Background(), "Hello", "en", "uk")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if found {
		t.Errorf("expected miss, got %q", text)
	}
}

func TestStore_RememberAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Remember(ctx, testEntry("req-1", "Hello world", "en", "uk", "Привіт світ")); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}

	text, found, err := s.Lookup(ctx, "  Hello world\n", "en", "uk")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !found || text != "Привіт світ" {
		t.Errorf("expected hit 'Привіт світ', got %q (found=%v)", text, found)
	}

	if _, found, _ := s.Lookup(ctx, "Hello world", "en", "de"); found {
		t.Error("expected miss for another language pair")
	}
}

func TestStore_Remember_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Remember(ctx, testEntry("req-1", "Hello", "en", "uk", "Привіт")); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	if err := s.Remember(ctx, testEntry("req-2", "Hello", "en", "uk", "Вітаю")); err != nil {
		t.Fatalf("second Remember failed: %v", err)
	}

	text, _, _ := s.Lookup(ctx, "Hello", "en", "uk")
	if text != "Вітаю" {
		t.Errorf("expected newest translation, got %q", text)
	}

	entries, err := s.ListMemory(ctx)
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 memory row, got %d", len(entries))
	}
	if entries[0].ID != "mem_req-1" {
		t.Errorf("expected original id to be kept, got %q", entries[0].ID)
	}
}

func TestStore_Remember_NoRequestID(t *testing.T) {
	s := newTestStore(t)

	if err := s.Remember(context.Background(), testEntry("", "Hello", "en", "uk", "Привіт")); err == nil {
		t.Error("expected error for entry without request id")
	}
}

func TestStore_Remember_DuplicateRequestRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Remember(ctx, testEntry("req-1", "One", "en", "uk", "Один")); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	if err := s.Remember(ctx, testEntry("req-1", "Two", "en", "uk", "Два")); err == nil {
		t.Fatal("expected error for duplicate request id")
	}

	if _, found, _ := s.Lookup(ctx, "Two", "en", "uk"); found {
		t.Error("expected failed transaction to leave no memory row")
	}
}

func TestStore_Remember_RepeatedProvider(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := testEntry("req-1", "First.\n\nSecond.", "en", "uk", "Перше.\n\nДруге.")
	entry.Results = []ProviderResult{
		{Provider: "google", Text: "Перше.", Confidence: 1},
		{Provider: "google", Text: "Друге.", Confidence: 1},
	}
	if err := s.Remember(ctx, entry); err != nil {
		t.Fatalf("expected results from the same provider to be saved, got %v", err)
	}

	got, found, err := s.Lookup(ctx, "First.\n\nSecond.", "en", "uk")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !found || got != "Перше.\n\nДруге." {
		t.Errorf("expected remembered translation, got %q (found=%v)", got, found)
	}
}

func TestStore_InvalidateMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Remember(ctx, testEntry("req-1", "Hello", "en", "uk", "Привіт"))

	if err := s.InvalidateMemory(ctx, "mem_req-1"); err != nil {
		t.Fatalf("InvalidateMemory failed: %v", err)
	}
	if _, found, _ := s.Lookup(ctx, "Hello", "en", "uk"); found {
		t.Error("expected invalidated entry to be a miss")
	}

	// remembering again re-validates the row
	s.Remember(ctx, testEntry("req-2", "Hello", "en", "uk", "Привіт"))
	if _, found, _ := s.Lookup(ctx, "Hello", "en", "uk"); !found {
		t.Error("expected entry to be valid again")
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Remember(ctx, testEntry("req-1", "Hello", "en", "uk", "Привіт"))
	s.Remember(ctx, testEntry("req-2", "World", "en", "uk", "Світ"))
	s.InvalidateMemory(ctx, "mem_req-2")
	s.Lookup(ctx, "Hello", "en", "uk")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 || stats.ActiveEntries != 1 || stats.InvalidEntries != 1 {
		t.Errorf("unexpected entry counts %+v", stats)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("expected total usage 3, got %d", stats.TotalUsage)
	}
	if stats.Requests != 2 {
		t.Errorf("expected 2 requests, got %d", stats.Requests)
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Remember(ctx, testEntry("req-1", "Hello", "en", "uk", "Привіт"))
	s.Remember(ctx, testEntry("req-2", "World", "en", "uk", "Світ"))
	s.Remember(ctx, testEntry("req-3", "Again", "en", "uk", "Знову"))

	if err := s.DeleteMemory(ctx, "mem_req-1"); err != nil {
		t.Fatalf("DeleteMemory failed: %v", err)
	}
	if _, found, _ := s.Lookup(ctx, "Hello", "en", "uk"); found {
		t.Error("expected deleted entry to be a miss")
	}

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared entries, got %d", n)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  hello  ", "hello"},
		{"\thello\n", "hello"},
		{"e\u0301", "\u00e9"},
	}

	for _, tt := range tests {
		if got := NormalizeText(tt.input); got != tt.expected {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
