package interfaces

import "vips_analyzer/domain/entities"

// ArtifactStore keeps a debug copy of the last extracted model.
type ArtifactStore interface {
	// SaveModel writes the tree rooted at root
	SaveModel(root *entities.VisualNode) error
}
