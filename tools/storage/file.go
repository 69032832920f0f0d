package storage

import (
	"context"
	"os"
)

// FileState reads an artifact from the local file system. It serves as a
// PriceTableState, RecipeState or MenuState.
type FileState struct {
	FilePath string
}

func NewFileState(filePath string) *FileState {
	return &FileState{FilePath: filePath}
}

func (f *FileState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.FilePath)
}
