// Package manifest reads project manifests and resolves their declared
// dependencies to include directories inside an on-disk dependency
// repository laid out as <root>/<namespace>.<name>/<library>/<version>/include.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoManifest is returned when a project root holds no manifest file.
var ErrNoManifest = errors.New("no manifest found")

// productKey is the top-level mapping holding dependency entries.
const productKey = "product"

// Manifest is the decoded content of a manifest file.
type Manifest struct {
	// Path is the file the manifest was read from.
	Path string `json:"path"`

	// Dependencies are listed in document order.
	Dependencies []Dependency `json:"dependencies"`
}

// Dependency is one entry of the product mapping.
type Dependency struct {
	Name      string   `json:"name" yaml:"-"`
	Version   string   `json:"version" yaml:"version"`
	Libraries []string `json:"libraries" yaml:"libraries"`
}

// LibraryNames returns the declared libraries, or the dependency name when
// none are declared.
func (d Dependency) LibraryNames() []string {
	if len(d.Libraries) == 0 {
		return []string{d.Name}
	}
	return d.Libraries
}

// Read loads the first manifest among names found in dir.
func Read(dir string, names []string) (*Manifest, error) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
		}

		deps, err := Parse(data, filepath.Ext(name))
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
		}
		return &Manifest{Path: path, Dependencies: deps}, nil
	}
	return nil, ErrNoManifest
}

// Parse decodes manifest content. ext selects the decoder: ".json" uses a
// streaming JSON decoder, anything else is decoded as YAML. Both preserve
// the document order of dependencies.
func Parse(data []byte, ext string) ([]Dependency, error) {
	if strings.EqualFold(ext, ".json") {
		return parseJSON(data)
	}
	return parseYAML(data)
}

func parseJSON(data []byte) ([]Dependency, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	raw, ok := top[productKey]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%q must be an object", productKey)
	}

	var deps []Dependency
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)

		var dep Dependency
		if err := dec.Decode(&dep); err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}
		dep.Name = name
		deps = append(deps, dep)
	}
	return deps, nil
}

func parseYAML(data []byte) ([]Dependency, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest must be a mapping")
	}

	product := mappingValue(root, productKey)
	if product == nil || product.Tag == "!!null" {
		return nil, nil
	}
	if product.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%q must be a mapping", productKey)
	}

	deps := make([]Dependency, 0, len(product.Content)/2)
	for i := 0; i+1 < len(product.Content); i += 2 {
		name := product.Content[i].Value
		var dep Dependency
		if err := product.Content[i+1].Decode(&dep); err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}
		dep.Name = name
		deps = append(deps, dep)
	}
	return deps, nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
