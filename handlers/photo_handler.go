package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/facette/natsort"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/photomind/photomindbackend/database"
	"github.com/photomind/photomindbackend/media"
	"github.com/photomind/photomindbackend/models"
	"github.com/photomind/photomindbackend/repository"
	"github.com/photomind/photomindbackend/vectorstore"
)

// PhotoHandler serves the photo library: listing, detail, original
// file, thumbnail and deletion.
type PhotoHandler struct {
	Repo       repository.PhotoRepositoryInterface
	MediaStore media.Store
	Vectors    *vectorstore.Client

	// PhotosPath is the managed upload directory; originals outside it
	// belong to the user and are never deleted
	PhotosPath string
}

// ListPhotos returns filtered, sorted photos.
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePhotoFilter(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	photos, err := h.Repo.List(filter)
	if err != nil {
		log.Printf("ListPhotos: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "failed to list photos")
		return
	}

	if filter.Sort == database.SortFilenameNat {
		sortPhotosNaturally(photos)
	}

	total, err := h.Repo.Count()
	if err != nil {
		log.Printf("ListPhotos: count: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "failed to count photos")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"photos": photos,
		"count":  len(photos),
		"total":  total,
	})
}

// GetPhoto returns one photo record.
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.lookupPhoto(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// ServeFile streams a photo's original file.
func (h *PhotoHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.lookupPhoto(w, r)
	if !ok {
		return
	}

	if _, err := os.Stat(photo.FilePath); os.IsNotExist(err) {
		WriteAPIError(w, http.StatusNotFound, "file_missing", "original photo file no longer exists")
		return
	} else if err != nil {
		log.Printf("ServeFile: stat %s: %v", photo.FilePath, err)
		WriteAPIError(w, http.StatusInternalServerError, "file_error", "failed to read photo file")
		return
	}
	http.ServeFile(w, r, photo.FilePath)
}

// ServeThumbnail streams a photo's generated thumbnail with cache
// headers.
func (h *PhotoHandler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.lookupPhoto(w, r)
	if !ok {
		return
	}

	if photo.ThumbnailPath == nil || photo.ThumbnailStatus != database.StatusDone {
		WriteAPIError(w, http.StatusNotFound, "thumbnail_unavailable", "thumbnail has not been generated for this photo")
		return
	}

	fullPath, err := h.MediaStore.GetFullPath(*photo.ThumbnailPath)
	if err != nil {
		log.Printf("ServeThumbnail: resolve %s: %v", *photo.ThumbnailPath, err)
		WriteAPIError(w, http.StatusInternalServerError, "thumbnail_error", "failed to resolve thumbnail path")
		return
	}
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		WriteAPIError(w, http.StatusNotFound, "thumbnail_unavailable", "thumbnail file no longer exists")
		return
	}

	cacheDuration := 24 * time.Hour
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(cacheDuration.Seconds())))
	w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))
	http.ServeFile(w, r, fullPath)
}

// DeletePhoto removes a photo from the library: its thumbnail asset,
// its search index entry, its database record and, for uploads managed
// by this service, the original file.
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.lookupPhoto(w, r)
	if !ok {
		return
	}

	if h.PhotosPath != "" && strings.HasPrefix(filepath.Clean(photo.FilePath), h.PhotosPath+string(filepath.Separator)) {
		if err := os.Remove(photo.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("DeletePhoto: failed to delete original %s: %v", photo.FilePath, err)
		}
	}

	if photo.ThumbnailPath != nil {
		if err := h.MediaStore.Delete(*photo.ThumbnailPath); err != nil {
			log.Printf("DeletePhoto: failed to delete thumbnail %s: %v", *photo.ThumbnailPath, err)
		}
	}

	if h.Vectors != nil {
		if err := h.Vectors.Delete(r.Context(), photo.ID); err != nil {
			log.Printf("DeletePhoto: failed to remove %s from search index: %v", photo.ID, err)
		}
	}

	if err := h.Repo.Delete(photo.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "photo_not_found", "photo does not exist")
		} else {
			log.Printf("DeletePhoto: %v", err)
			WriteAPIError(w, http.StatusInternalServerError, "delete_failed", "failed to delete photo")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "photo deleted"})
}

func (h *PhotoHandler) lookupPhoto(w http.ResponseWriter, r *http.Request) (*models.Photo, bool) {
	photoID := chi.URLParam(r, "photoID")
	photo, err := h.Repo.GetByID(photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "photo_not_found", "photo does not exist")
		} else {
			log.Printf("lookupPhoto %s: %v", photoID, err)
			WriteAPIError(w, http.StatusInternalServerError, "lookup_failed", "failed to load photo")
		}
		return nil, false
	}
	return photo, true
}

func parsePhotoFilter(r *http.Request) (database.PhotoFilter, error) {
	q := r.URL.Query()
	filter := database.PhotoFilter{Sort: database.DefaultSortOrder}

	if v := q.Get("sort"); v != "" {
		if !database.IsValidSortOrder(v) {
			return filter, errors.New("invalid sort order: " + v)
		}
		filter.Sort = v
	}
	if v := q.Get("camera"); v != "" {
		filter.Camera = &v
	}
	if v := q.Get("tag"); v != "" {
		filter.Tag = &v
	}
	if v := q.Get("taken_after"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errors.New("'taken_after' must be a unix timestamp")
		}
		filter.TakenAfter = &ts
	}
	if v := q.Get("taken_before"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errors.New("'taken_before' must be a unix timestamp")
		}
		filter.TakenBefore = &ts
	}
	if v := q.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errors.New("'min_score' must be a number")
		}
		filter.MinOverall = &score
	}
	if v := q.Get("processed"); v != "" {
		processed, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("'processed' must be a boolean")
		}
		filter.Processed = &processed
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errors.New("'limit' must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, errors.New("'offset' must be a non-negative integer")
		}
		filter.Offset = offset
	}
	return filter, nil
}

// sortPhotosNaturally reorders photos so numbered filenames sort the
// way a person expects (img2 before img10).
func sortPhotosNaturally(photos []models.Photo) {
	names := make([]string, len(photos))
	byName := make(map[string][]models.Photo, len(photos))
	for i, p := range photos {
		names[i] = p.Filename
		byName[p.Filename] = append(byName[p.Filename], p)
	}
	natsort.Sort(names)

	seen := make(map[string]int, len(byName))
	for i, name := range names {
		group := byName[name]
		photos[i] = group[seen[name]]
		seen[name]++
	}
}
