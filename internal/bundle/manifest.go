// Package bundle finalizes a run: manifest, archive, summary report.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manifest persists the parameters of a run alongside its output, so
// downstream consumers (and later runs) know what produced the files.
// The key names match the historical input.json layout.
type Manifest struct {
	Keywords      []string `json:"Keywords"`
	KeywordFormat string   `json:"Keyword Format"`
	Language      string   `json:"Language"`
	Country       string   `json:"Country"`
	Domain        string   `json:"Domain"`
	Theme         string   `json:"Theme"`
	Custom        string   `json:"Custom"`
	Start         string   `json:"Start"`
	End           string   `json:"End"`
	Translation   string   `json:"Translation"`
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ReadManifest loads a manifest written by a previous run.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}
