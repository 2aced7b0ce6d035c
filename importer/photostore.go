package importer

import (
	"context"
	"fmt"

	"github.com/photomind/photomindbackend/models"
	"github.com/photomind/photomindbackend/repository"
	"github.com/photomind/photomindbackend/vectorstore"
)

// PersistentPhotoStore saves finished photos to the relational store
// and mirrors their search document into the vector store.
type PersistentPhotoStore struct {
	Repo    repository.PhotoRepositoryInterface
	Vectors *vectorstore.Client
}

// Ready verifies that the vector store is reachable before an import
// starts, so the whole task fails fast instead of every photo failing
// one by one.
func (s *PersistentPhotoStore) Ready(ctx context.Context) error {
	if s.Vectors == nil {
		return nil
	}
	if err := s.Vectors.Ensure(ctx); err != nil {
		return fmt.Errorf("vector store unavailable: %w", err)
	}
	return nil
}

func (s *PersistentPhotoStore) Save(ctx context.Context, photo *models.Photo, document string) error {
	if err := s.Repo.Create(photo); err != nil {
		return fmt.Errorf("failed to save photo record: %w", err)
	}

	if s.Vectors == nil || document == "" {
		return nil
	}
	metadata := map[string]interface{}{
		"filename": photo.Filename,
		"score":    photo.ScoreOverall,
	}
	if photo.Location != nil {
		metadata["location"] = *photo.Location
	}
	if photo.TakenAt != nil {
		metadata["taken_at"] = *photo.TakenAt
	}
	if err := s.Vectors.UpsertPhoto(ctx, photo.ID, document, metadata); err != nil {
		return fmt.Errorf("failed to index photo for search: %w", err)
	}
	return nil
}
