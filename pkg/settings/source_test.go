package settings

import (
	"path/filepath"
	"testing"
)

func TestFindCorrespondingSourceFile(t *testing.T) {
	root := t.TempDir()
	hdrs := []string{".h", ".hpp", ".hh"}
	srcs := []string{".cc", ".cpp", ".c"}
	dirs := []string{".", "../cpp"}

	// widget: .cpp next to the header and .cc in ../cpp; extension order wins
	createFile(t, filepath.Join(root, "include", "widget.h"), "")
	createFile(t, filepath.Join(root, "include", "widget.cpp"), "")
	createFile(t, filepath.Join(root, "cpp", "widget.cc"), "")

	// gadget: only a sibling source
	createFile(t, filepath.Join(root, "include", "gadget.hpp"), "")
	createFile(t, filepath.Join(root, "include", "gadget.c"), "")

	// lonely: no source anywhere
	createFile(t, filepath.Join(root, "include", "lonely.hh"), "")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"extension outranks directory", filepath.Join(root, "include", "widget.h"), filepath.Join(root, "cpp", "widget.cc")},
		{"sibling source", filepath.Join(root, "include", "gadget.hpp"), filepath.Join(root, "include", "gadget.c")},
		{"no source", filepath.Join(root, "include", "lonely.hh"), filepath.Join(root, "include", "lonely.hh")},
		{"not a header", filepath.Join(root, "cpp", "widget.cc"), filepath.Join(root, "cpp", "widget.cc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindCorrespondingSourceFile(tt.in, hdrs, srcs, dirs); got != tt.want {
				t.Errorf("FindCorrespondingSourceFile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsHeader(t *testing.T) {
	hdrs := []string{".h", ".hpp"}
	if !IsHeader("/a/b.h", hdrs) {
		t.Error("b.h should be a header")
	}
	if IsHeader("/a/b.cc", hdrs) {
		t.Error("b.cc should not be a header")
	}
	if IsHeader("/a/Makefile", hdrs) {
		t.Error("Makefile should not be a header")
	}
}
