package util

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"zlib": 1, "boost": 2, "openssl": 3})
	want := []string{"boost", "openssl", "zlib"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortedKeys() mismatch (-want +got):\n%s", diff)
	}
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"order preserved", []string{"A", "B", "A", "C"}, []string{"A", "B", "C"}},
		{"no duplicates", []string{"x", "y"}, []string{"x", "y"}},
		{"all duplicates", []string{"x", "x", "x"}, []string{"x"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Unique(tt.in)); diff != "" {
				t.Errorf("Unique() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		s         string
		fragments []string
		want      bool
	}{
		{"/p/src/include", []string{"include"}, true},
		{"/p/src", []string{"docs", "test"}, false},
		{"/p/src", []string{""}, false},
		{"/p/src", nil, false},
	}

	for _, tt := range tests {
		if got := ContainsAny(tt.s, tt.fragments); got != tt.want {
			t.Errorf("ContainsAny(%q, %v) = %v, want %v", tt.s, tt.fragments, got, tt.want)
		}
	}
}
