package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vips_analyzer/domain/entities"
	"vips_analyzer/domain/interfaces"
)

type modelArtifact struct {
	path string
	mu   sync.Mutex
}

// NewModelArtifact - creates a store that overwrites path with each model
func NewModelArtifact(path string) interfaces.ArtifactStore {
	return &modelArtifact{path: path}
}

// SaveModel - writes the tree as indented JSON
func (s *modelArtifact) SaveModel(root *entities.VisualNode) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	// Write then rename so readers never see a half-written file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// LoadModel - reads a previously saved model
func LoadModel(path string) (*entities.VisualNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var root entities.VisualNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return &root, nil
}
