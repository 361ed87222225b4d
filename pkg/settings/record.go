package settings

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies the shape of a Record.
type Kind int

const (
	// KindEmpty means resolution failed or was declined.
	KindEmpty Kind = iota
	// KindCFamily carries compiler flags.
	KindCFamily
	// KindPython carries an interpreter path and module search path.
	KindPython
)

// String returns the language name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCFamily:
		return LanguageCFamily
	case KindPython:
		return LanguagePython
	default:
		return "empty"
	}
}

// Record is the settings handed back to the completion engine.
//
// It renders as {} when empty, as {"flags", "override_filename"} for
// C-family files and as {"interpreter_path", "sys_path"} for Python files.
type Record struct {
	Kind Kind

	// C-family
	Flags            []string
	OverrideFilename string

	// Python
	InterpreterPath string
	SysPath         []string
}

// Empty returns the empty record.
func Empty() Record {
	return Record{}
}

// IsEmpty reports whether r is the empty record.
func (r Record) IsEmpty() bool {
	return r.Kind == KindEmpty
}

type cfamilyJSON struct {
	Flags            []string `json:"flags"`
	OverrideFilename string   `json:"override_filename"`
}

type pythonJSON struct {
	InterpreterPath string   `json:"interpreter_path"`
	SysPath         []string `json:"sys_path"`
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindCFamily:
		flags := r.Flags
		if flags == nil {
			flags = []string{}
		}
		return json.Marshal(cfamilyJSON{Flags: flags, OverrideFilename: r.OverrideFilename})
	case KindPython:
		sysPath := r.SysPath
		if sysPath == nil {
			sysPath = []string{}
		}
		return json.Marshal(pythonJSON{InterpreterPath: r.InterpreterPath, SysPath: sysPath})
	case KindEmpty:
		return []byte("{}"), nil
	default:
		return nil, fmt.Errorf("unknown record kind %d", r.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler. The kind is inferred from the
// keys present.
func (r *Record) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	*r = Record{}
	switch {
	case hasAny(keys, "flags", "override_filename"):
		var v cfamilyJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		r.Kind = KindCFamily
		r.Flags = v.Flags
		r.OverrideFilename = v.OverrideFilename
	case hasAny(keys, "interpreter_path", "sys_path"):
		var v pythonJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		r.Kind = KindPython
		r.InterpreterPath = v.InterpreterPath
		r.SysPath = v.SysPath
	}
	return nil
}

func hasAny(m map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// Fingerprint returns the xxHash64 of the record's JSON rendering as a hex
// string. Equal records have equal fingerprints.
func (r Record) Fingerprint() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return ""
	}
	h := xxhash.Sum64(data)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	return hex.EncodeToString(buf[:])
}
