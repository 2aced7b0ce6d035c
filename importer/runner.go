package importer

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/photomind/photomindbackend/media"
	"github.com/photomind/photomindbackend/models"
	"github.com/photomind/photomindbackend/vision"
)

// MetadataExtractor reads capture metadata from an image file.
type MetadataExtractor interface {
	Extract(path string) (*media.Metadata, error)
}

// Geocoder resolves GPS coordinates to a human-readable place name.
type Geocoder interface {
	Enabled() bool
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Analyzer produces an AI description, tags and scores for an image.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath string, capture *media.Metadata) (*vision.Analysis, error)
}

// PhotoStore persists a finished photo record and its search document.
type PhotoStore interface {
	Ready(ctx context.Context) error
	Save(ctx context.Context, photo *models.Photo, document string) error
}

// ThumbnailQueue accepts background thumbnail work for a saved photo.
type ThumbnailQueue interface {
	QueuePhoto(photoID, originalPath string) bool
}

// EventMirror receives a copy of every published event, for transports
// other than the task's own SSE stream.
type EventMirror interface {
	BroadcastTaskEvent(taskID string, eventType string, data map[string]interface{})
}

// Runner drives the import pipeline for one task at a time per call.
// All collaborators except Extractor and Store may be nil, in which
// case the corresponding stage is skipped.
type Runner struct {
	Tasks      *Store
	Events     *Broker
	Extractor  MetadataExtractor
	Geo        Geocoder
	Vision     Analyzer
	Store      PhotoStore
	Thumbnails ThumbnailQueue
	Mirror     EventMirror
}

func (r *Runner) publish(taskID string, eventType EventType, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	r.Events.Publish(taskID, Event{Type: eventType, Data: data})
	if r.Mirror != nil {
		r.Mirror.BroadcastTaskEvent(taskID, string(eventType), data)
	}
}

// Run processes every photo of a task and drives the task through its
// lifecycle. It is meant to be called on its own goroutine; errors are
// reported through the task record and the event stream.
func (r *Runner) Run(ctx context.Context, taskID string, photos []PhotoSource) {
	if err := r.failEarly(ctx, taskID, photos); err != nil {
		return
	}

	total := len(photos)
	r.mutateTask(taskID, func(t *Task) {
		t.Status = StatusProcessing
		t.Message = "importing"
	})
	r.publish(taskID, EventImportStart, map[string]interface{}{
		"total":   total,
		"message": fmt.Sprintf("importing %d photos", total),
	})

	processed := 0
	failed := 0
	cancelled := false

	for i, src := range photos {
		if r.Tasks.CancelRequested(taskID) || ctx.Err() != nil {
			cancelled = true
			break
		}

		name := src.DisplayName
		if name == "" {
			name = filepath.Base(src.Path)
		}
		r.mutateTask(taskID, func(t *Task) {
			t.CurrentFile = &name
		})
		r.publish(taskID, EventPhotoStart, map[string]interface{}{
			"filename": name,
			"progress": progressData(i+1, total),
		})

		photoErr := r.processPhoto(ctx, taskID, src, name)

		processed++
		if photoErr != nil {
			failed++
			log.Printf("importer: task %s: photo %s failed: %v", taskID, name, photoErr)
			r.publish(taskID, EventPhotoError, map[string]interface{}{
				"filename": name,
				"error":    photoErr.Error(),
			})
		}
		r.mutateTask(taskID, func(t *Task) {
			t.Processed = processed
			t.Failed = failed
		})
	}

	// per-photo failures never fail a started task; they are reported
	// through the counters while the task itself completes
	status := StatusCompleted
	message := fmt.Sprintf("imported %d photos, %d failed", processed-failed, failed)
	if cancelled {
		status = StatusCancelled
		message = fmt.Sprintf("cancelled after %d of %d photos", processed, total)
	}

	r.mutateTask(taskID, func(t *Task) {
		t.Status = status
		t.Message = message
		t.CurrentFile = nil
	})
	r.publish(taskID, EventImportComplete, map[string]interface{}{
		"total":     total,
		"processed": processed,
		"failed":    failed,
		"status":    string(status),
		"message":   message,
	})
}

// failEarly handles the two task-level failure modes: an empty photo
// list and an unavailable persistence backend. It returns a non-nil
// error when the task has been finished and Run should stop.
func (r *Runner) failEarly(ctx context.Context, taskID string, photos []PhotoSource) error {
	var reason error
	if len(photos) == 0 {
		reason = fmt.Errorf("no photos to import")
	} else if r.Store != nil {
		if err := r.Store.Ready(ctx); err != nil {
			reason = fmt.Errorf("storage unavailable: %w", err)
		}
	}
	if reason == nil {
		return nil
	}

	r.mutateTask(taskID, func(t *Task) {
		t.Status = StatusFailed
		t.Error = reason.Error()
		t.Message = reason.Error()
	})
	r.publish(taskID, EventError, map[string]interface{}{
		"error": reason.Error(),
	})
	return reason
}

// processPhoto runs the per-photo stages. EXIF and geocoding failures
// degrade the record; an analysis or persistence failure fails the
// photo.
func (r *Runner) processPhoto(ctx context.Context, taskID string, src PhotoSource, name string) error {
	capture, err := r.Extractor.Extract(src.Path)
	if err != nil {
		log.Printf("importer: task %s: exif extraction failed for %s: %v", taskID, name, err)
		capture = &media.Metadata{}
	}
	r.publish(taskID, EventExifExtracted, map[string]interface{}{
		"filename": name,
		"exif":     exifData(capture),
	})

	var location string
	if capture.HasGPS() && r.Geo != nil && r.Geo.Enabled() {
		location, err = r.Geo.ReverseGeocode(ctx, *capture.Latitude, *capture.Longitude)
		if err != nil {
			log.Printf("importer: task %s: reverse geocode failed for %s: %v", taskID, name, err)
			location = ""
		} else if location != "" {
			r.publish(taskID, EventLocationFound, map[string]interface{}{
				"filename": name,
				"location": location,
			})
		}
	}

	r.publish(taskID, EventAIAnalyzing, map[string]interface{}{
		"filename": name,
	})
	analysis, err := r.Vision.Analyze(ctx, src.Path, capture)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	r.publish(taskID, EventAIComplete, map[string]interface{}{
		"filename":    name,
		"description": analysis.Description,
		"tags":        headTags(analysis.Tags, 5),
		"score":       analysis.Scores.Overall,
	})

	photo := buildPhoto(src, name, capture, location, analysis)
	document := buildDocument(photo, analysis)
	if err := r.Store.Save(ctx, photo, document); err != nil {
		return fmt.Errorf("persist failed: %w", err)
	}

	if r.Thumbnails != nil {
		r.Thumbnails.QueuePhoto(photo.ID, src.Path)
	}

	r.publish(taskID, EventPhotoComplete, map[string]interface{}{
		"photo_id": photo.ID,
		"filename": name,
		"metadata": map[string]interface{}{
			"camera":      photo.Camera,
			"lens":        photo.Lens,
			"taken_at":    photo.TakenAt,
			"location":    photo.Location,
			"description": analysis.Description,
			"tags":        headTags(analysis.Tags, 5),
			"mood":        analysis.Mood,
			"subjects":    analysis.Subjects,
			"scores":      analysis.Scores,
			"score":       analysis.Scores.Overall,
		},
	})
	return nil
}

// exifData flattens the parsed capture metadata into the event payload
// shape: composed camera and lens strings plus the raw capture fields.
func exifData(capture *media.Metadata) map[string]interface{} {
	return map[string]interface{}{
		"camera":        capture.Camera(),
		"lens":          capture.Lens(),
		"taken_at":      capture.TakenAt,
		"iso":           capture.ISO,
		"aperture":      capture.Aperture,
		"shutter_speed": capture.ShutterSpeed,
		"focal_length":  capture.FocalLength,
		"width":         capture.Width,
		"height":        capture.Height,
		"latitude":      capture.Latitude,
		"longitude":     capture.Longitude,
		"has_gps":       capture.HasGPS(),
	}
}

func (r *Runner) mutateTask(taskID string, mutate func(*Task)) {
	if err := r.Tasks.Update(taskID, mutate); err != nil {
		log.Printf("importer: task %s update rejected: %v", taskID, err)
	}
}

func buildPhoto(src PhotoSource, name string, capture *media.Metadata, location string, analysis *vision.Analysis) *models.Photo {
	photo := &models.Photo{
		ID:               newPhotoID(),
		FilePath:         src.Path,
		Filename:         name,
		FileSize:         capture.FileSize,
		Width:            capture.Width,
		Height:           capture.Height,
		TakenAt:          capture.TakenAt,
		ISO:              capture.ISO,
		Aperture:         capture.Aperture,
		ShutterSpeed:     capture.ShutterSpeed,
		FocalLength:      capture.FocalLength,
		Latitude:         capture.Latitude,
		Longitude:        capture.Longitude,
		Description:      analysis.Description,
		Tags:             analysis.Tags,
		Mood:             analysis.Mood,
		Subjects:         analysis.Subjects,
		ScoreComposition: analysis.Scores.Composition,
		ScoreColor:       analysis.Scores.Color,
		ScoreLighting:    analysis.Scores.Lighting,
		ScoreSharpness:   analysis.Scores.Sharpness,
		ScoreOverall:     analysis.Scores.Overall,
		ScoreReason:      analysis.Scores.Reason,
		Suggestions:      analysis.Scores.Suggestions,
		ThumbnailStatus:  "pending",
		AIProcessed:      true,
	}
	photo.Camera = capture.Camera()
	photo.Lens = capture.Lens()
	if location != "" {
		photo.Location = &location
	}
	return photo
}

// buildDocument assembles the text embedded for semantic search.
func buildDocument(photo *models.Photo, analysis *vision.Analysis) string {
	doc := analysis.Description
	for _, tag := range analysis.Tags {
		doc += " " + tag
	}
	if photo.Location != nil {
		doc += " " + *photo.Location
	}
	return doc
}

func progressData(current, total int) map[string]interface{} {
	percentage := 0
	if total > 0 {
		percentage = current * 100 / total
	}
	return map[string]interface{}{
		"current":    current,
		"total":      total,
		"percentage": percentage,
	}
}

func headTags(tags []string, n int) []string {
	if len(tags) <= n {
		return tags
	}
	return tags[:n]
}

func newPhotoID() string {
	return "photo_" + uuid.NewString()
}
