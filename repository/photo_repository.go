package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/photomind/photomindbackend/database"
	"github.com/photomind/photomindbackend/models"
)

// PhotoRepository handles database operations for Photo entities
type PhotoRepository struct {
	DB *gorm.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository
func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

// Create inserts a new photo record
func (r *PhotoRepository) Create(photo *models.Photo) error {
	if err := r.DB.Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo %s: %w", photo.ID, err)
	}
	return nil
}

// GetByID retrieves full photo info by its identifier
func (r *PhotoRepository) GetByID(id string) (*models.Photo, error) {
	var photo models.Photo
	err := r.DB.Where("id = ?", id).First(&photo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo by id %s: %w", id, err)
	}
	return &photo, nil
}

// GetByIDs retrieves a batch of photos preserving the order of ids,
// silently skipping identifiers that no longer exist.
func (r *PhotoRepository) GetByIDs(ids []string) ([]models.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var photos []models.Photo
	if err := r.DB.Where("id IN ?", ids).Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to get photos by ids: %w", err)
	}

	byID := make(map[string]models.Photo, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}

	ordered := make([]models.Photo, 0, len(photos))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// List returns photos matching the filter, in the filter's sort order.
// The dynamic predicate query runs through squirrel on the underlying
// sql.DB; matching rows are then loaded via GORM.
func (r *PhotoRepository) List(filter database.PhotoFilter) ([]models.Photo, error) {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	ids, err := database.QueryPhotoIDs(sqlDB, filter)
	if err != nil {
		return nil, err
	}
	return r.GetByIDs(ids)
}

// Count returns the number of photos (excluding soft-deleted rows)
func (r *PhotoRepository) Count() (int64, error) {
	var count int64
	if err := r.DB.Model(&models.Photo{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}

// MarkThumbnailProcessing updates the thumbnail status to 'processing'
// and clears any previous error
func (r *PhotoRepository) MarkThumbnailProcessing(photoID string) error {
	updates := map[string]interface{}{
		"thumbnail_status": database.StatusProcessing,
		"thumbnail_error":  gorm.Expr("NULL"),
	}
	result := r.DB.Model(&models.Photo{}).Where("id = ?", photoID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to mark thumbnail processing for %s: %w", photoID, result.Error)
	}
	return nil
}

// UpdateThumbnailResult records the outcome of thumbnail generation
func (r *PhotoRepository) UpdateThumbnailResult(photoID string, thumbPath *string, taskErr error) error {
	status := database.StatusDone
	var errStr *string

	if taskErr != nil {
		status = database.StatusError
		s := taskErr.Error()
		errStr = &s
	}

	updates := map[string]interface{}{
		"thumbnail_path":   thumbPath,
		"thumbnail_status": status,
		"thumbnail_error":  errStr,
	}

	result := r.DB.Model(&models.Photo{}).Where("id = ?", photoID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update thumbnail result for %s: %w", photoID, result.Error)
	}
	return nil
}

// Delete soft-deletes a photo record
func (r *PhotoRepository) Delete(id string) error {
	result := r.DB.Where("id = ?", id).Delete(&models.Photo{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete photo %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
