package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// File is the on-disk catalog document.
type File struct {
	Version string                       `yaml:"version" json:"version"`
	Metrics []contracts.MetricDefinition `yaml:"metrics" json:"metrics"`
}

// LoadFile reads a YAML catalog, validates it and builds the graph.
// KnownFields(true) makes typos in definition files fail immediately instead
// of silently producing an empty field.
func LoadFile(path string) (*Catalog, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog file: %w", err)
	}

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, data, fmt.Errorf("decode catalog file: %w", err)
	}

	cat, err := Load(file.Metrics)
	if err != nil {
		return nil, data, err
	}

	return cat, data, nil
}

// Hash fingerprints a catalog for audit and cache keying. Definitions are
// structs, not maps, so the JSON encoding and therefore the hash is
// deterministic.
func Hash(c *Catalog) (string, error) {
	jsonBytes, err := json.Marshal(c.Definitions())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
