package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"#", "Timestamp", "Size"},
		[][]string{
			{"1", "100.500000", "2.0 KiB"},
			{"2"},
		},
		0, 2,
	)
	for _, want := range []string{"Timestamp", "100.500000", "2.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(out, "\n")
	if len(lines) < 5 {
		t.Fatalf("expected bordered table, got %d lines:\n%s", len(lines), out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, nil); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
