package repository

import (
	"github.com/photomind/photomindbackend/database"
	"github.com/photomind/photomindbackend/models"
)

// PhotoRepositoryInterface defines the methods for photo data operations
type PhotoRepositoryInterface interface {
	Create(photo *models.Photo) error
	GetByID(id string) (*models.Photo, error)
	GetByIDs(ids []string) ([]models.Photo, error)
	List(filter database.PhotoFilter) ([]models.Photo, error)
	Count() (int64, error)
	MarkThumbnailProcessing(photoID string) error
	UpdateThumbnailResult(photoID string, thumbPath *string, taskErr error) error
	Delete(id string) error
}
