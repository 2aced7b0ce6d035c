package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/photomind/photomindbackend/importer"
	"github.com/photomind/photomindbackend/media"
	"github.com/photomind/photomindbackend/utils"
)

// ImportHandler exposes the batch import API: starting imports from
// uploads or a server-side folder, polling status, streaming progress
// and cancelling.
type ImportHandler struct {
	Tasks      *importer.Store
	Broker     *importer.Broker
	Runner     *importer.Runner
	MediaStore media.Store
}

type folderImportRequest struct {
	FolderPath string `json:"folder_path"`
}

// StartImport accepts either a multipart upload of photo files or a
// JSON body naming a folder on the server, and starts a background
// import task for the resulting photo list.
func (h *ImportHandler) StartImport(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	var photos []importer.PhotoSource
	var err error
	if strings.HasPrefix(contentType, "multipart/form-data") {
		photos, err = h.collectUploads(r)
	} else {
		photos, err = h.collectFolder(r)
	}
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			WriteAPIError(w, reqErr.status, reqErr.code, reqErr.detail)
		} else {
			log.Printf("StartImport: %v", err)
			WriteAPIError(w, http.StatusInternalServerError, "import_failed", "failed to prepare import")
		}
		return
	}

	task := h.Tasks.Create(len(photos))
	go h.Runner.Run(context.Background(), task.ID, photos)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": task.ID,
		"status":  task.Status,
		"total":   task.Total,
	})
}

// GetStatus returns the current snapshot of one import task.
func (h *ImportHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	task, err := h.Tasks.Get(taskID)
	if err != nil {
		WriteAPIError(w, http.StatusNotFound, "task_not_found", fmt.Sprintf("import task '%s' does not exist", taskID))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListTasks returns all retained import tasks, most recent first.
func (h *ImportHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": h.Tasks.List(),
	})
}

// Cancel requests cooperative cancellation of a running import.
func (h *ImportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	err := h.Tasks.Cancel(taskID)
	switch {
	case errors.Is(err, importer.ErrTaskNotFound):
		WriteAPIError(w, http.StatusNotFound, "task_not_found", fmt.Sprintf("import task '%s' does not exist", taskID))
		return
	case errors.Is(err, importer.ErrTaskFinished):
		WriteAPIError(w, http.StatusConflict, "task_finished", fmt.Sprintf("import task '%s' has already finished", taskID))
		return
	case err != nil:
		log.Printf("Cancel: task %s: %v", taskID, err)
		WriteAPIError(w, http.StatusInternalServerError, "cancel_failed", "failed to cancel import task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": taskID,
		"message": "cancellation requested",
	})
}

// requestError carries an HTTP status and error code for input problems
// detected while preparing an import.
type requestError struct {
	status int
	code   string
	detail string
}

func (e *requestError) Error() string { return e.detail }

func badRequest(code, detail string) *requestError {
	return &requestError{status: http.StatusBadRequest, code: code, detail: detail}
}

// collectUploads saves every uploaded image through the media store
// under a per-day directory and returns the stored photos as import
// sources. Unsupported file types are rejected up front.
func (h *ImportHandler) collectUploads(r *http.Request) ([]importer.PhotoSource, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, badRequest("invalid_multipart", "invalid multipart form: "+err.Error())
	}

	dateDir := time.Now().UTC().Format("2006-01-02")
	var photos []importer.PhotoSource
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, badRequest("invalid_multipart", "malformed upload data")
		}

		if part.FormName() != "files" {
			continue
		}
		filename := filepath.Base(part.FileName())
		if filename == "" || filename == "." {
			continue
		}
		if !utils.IsSupportedImage(filename) {
			return nil, badRequest("unsupported_file_type", fmt.Sprintf("'%s' is not a supported image type", filename))
		}

		storedName := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
		relPath, err := h.MediaStore.Save(media.AssetTypePhoto, dateDir, storedName, part)
		if err != nil {
			return nil, fmt.Errorf("failed to save uploaded file '%s': %w", filename, err)
		}
		fullPath, err := h.MediaStore.GetFullPath(relPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve stored file '%s': %w", relPath, err)
		}
		photos = append(photos, importer.PhotoSource{Path: fullPath, DisplayName: filename})
	}
	return photos, nil
}

// collectFolder reads a JSON body naming a server-side folder and scans
// it for supported images.
func (h *ImportHandler) collectFolder(r *http.Request) ([]importer.PhotoSource, error) {
	var req folderImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, badRequest("invalid_request", "request body must be JSON with a 'folder_path' field")
	}
	folder := strings.TrimSpace(req.FolderPath)
	if folder == "" {
		return nil, badRequest("invalid_request", "'folder_path' is required")
	}

	info, err := os.Stat(folder)
	if os.IsNotExist(err) {
		return nil, badRequest("invalid_folder", fmt.Sprintf("folder '%s' does not exist", folder))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat folder '%s': %w", folder, err)
	}
	if !info.IsDir() {
		return nil, badRequest("invalid_folder", fmt.Sprintf("'%s' is not a directory", folder))
	}

	paths, err := utils.ScanPhotoDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder '%s': %w", folder, err)
	}

	photos := make([]importer.PhotoSource, 0, len(paths))
	for _, p := range paths {
		photos = append(photos, importer.PhotoSource{Path: p, DisplayName: filepath.Base(p)})
	}
	return photos, nil
}
