package graphdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// GraphData Serialization API
// =============================================================================

// Marshal converts a GraphData snapshot to indented JSON bytes.
func Marshal(g GraphData) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes JSON bytes to a GraphData snapshot.
func Unmarshal(data []byte) (GraphData, error) {
	var g GraphData
	if err := json.Unmarshal(data, &g); err != nil {
		return GraphData{}, err
	}
	return g, nil
}

// WriteFile writes a GraphData snapshot to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(g GraphData, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(g, f)
}

// ReadFile reads a JSON file and returns the decoded GraphData.
func ReadFile(path string) (GraphData, error) {
	f, err := os.Open(path)
	if err != nil {
		return GraphData{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a JSON analysis payload from an io.Reader.
func Read(r io.Reader) (GraphData, error) {
	var g GraphData
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return GraphData{}, fmt.Errorf("decode: %w", err)
	}
	return g, nil
}

func writeTo(g GraphData, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
