// Package modelstore persists the opaque trained-model blob to disk so a
// caller can cache a trained model between processes. The core does not
// dictate the storage location; the caller supplies the path.
package modelstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pricecast/pricecast/internal/model"
)

// Save writes the model blob to path, creating parent directories as needed.
func Save(path string, m *model.TrainedModel) error {
	if m == nil {
		return fmt.Errorf("cannot save a nil model")
	}
	blob, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create model directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, blob, 0644); err != nil {
		return fmt.Errorf("failed to write model file %s: %w", path, err)
	}
	return nil
}

// Load reads a model blob previously written by Save.
func Load(path string) (*model.TrainedModel, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	m, err := model.UnmarshalModel(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from %s: %w", path, err)
	}
	return m, nil
}
