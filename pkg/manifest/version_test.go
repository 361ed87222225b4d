package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHighestLexical(t *testing.T) {
	got, ok := Highest([]string{"1.2.0", "1.41.0.0", "2.0.0"}, OrderLexical)
	if !ok || got != "2.0.0" {
		t.Errorf("Highest() = %q, %v; want 2.0.0", got, ok)
	}
}

func TestHighestLexicalKnownGap(t *testing.T) {
	// String comparison ranks "9.0.0" above "10.0.0"
	got, _ := Highest([]string{"10.0.0", "9.0.0"}, OrderLexical)
	if got != "9.0.0" {
		t.Errorf("Highest() = %q, want 9.0.0 under lexical order", got)
	}
}

func TestHighestNumeric(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
	}{
		{"multi-digit component", []string{"9.0.0", "10.0.0"}, "10.0.0"},
		{"differing segment counts", []string{"1.2.0", "1.41.0.0", "2.0.0"}, "2.0.0"},
		{"minor beats patch", []string{"1.9.9", "1.10.0"}, "1.10.0"},
		{"unparsable ranks last", []string{"latest", "0.1.0"}, "0.1.0"},
		{"only unparsable", []string{"alpha", "beta"}, "beta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Highest(tt.versions, OrderNumeric)
			if !ok || got != tt.want {
				t.Errorf("Highest(%v) = %q, %v; want %q", tt.versions, got, ok, tt.want)
			}
		})
	}
}

func TestHighestEmpty(t *testing.T) {
	if _, ok := Highest(nil, OrderLexical); ok {
		t.Error("Highest(nil) should report false")
	}
}

func TestSortDescending(t *testing.T) {
	versions := []string{"1.0.0", "1.10.0", "1.2.0"}
	SortDescending(versions, OrderNumeric)
	if diff := cmp.Diff([]string{"1.10.0", "1.2.0", "1.0.0"}, versions); diff != "" {
		t.Errorf("SortDescending() mismatch (-want +got):\n%s", diff)
	}

	versions = []string{"1.0.0", "1.10.0", "1.2.0"}
	SortDescending(versions, OrderLexical)
	if diff := cmp.Diff([]string{"1.2.0", "1.10.0", "1.0.0"}, versions); diff != "" {
		t.Errorf("SortDescending() mismatch (-want +got):\n%s", diff)
	}
}

func TestHighestDoesNotMutateInput(t *testing.T) {
	in := []string{"1.0", "3.0", "2.0"}
	_, _ = Highest(in, OrderLexical)
	if diff := cmp.Diff([]string{"1.0", "3.0", "2.0"}, in); diff != "" {
		t.Errorf("Highest() mutated input (-want +got):\n%s", diff)
	}
}
