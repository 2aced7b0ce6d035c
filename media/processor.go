package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	ThumbnailJpegQuality   = 85
	ThumbnailFileExtension = ".jpg"

	// vision API payload limits: long side capped, re-encoded to JPEG so
	// unsupported containers (MPO etc.) never reach the external API
	AnalysisMaxSize     = 2048
	AnalysisJpegQuality = 90
)

// Processor handles media transformations like thumbnailing and payload
// preparation. it relies on a Store implementation for saving results.
type Processor struct {
	store Store
}

func NewProcessor(store Store) *Processor {
	return &Processor{store: store}
}

// GenerateThumbnail creates a thumbnail where the longest side matches
// maxSize and saves it through the Store under a UUID filename. returns
// the relative path of the saved thumbnail.
func (p *Processor) GenerateThumbnail(originalImg image.Image, originalPath string, maxSize int) (string, error) {
	bounds := originalImg.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", fmt.Errorf("invalid original image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	thumb := imaging.Fit(originalImg, maxSize, maxSize, imaging.Lanczos)

	reader, writer := io.Pipe()
	go func() {
		defer writer.Close()
		err := imaging.Encode(writer, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality))
		if err != nil {
			log.Printf("processor: failed to encode thumbnail: %v", err)
			writer.CloseWithError(fmt.Errorf("thumbnail encoding failed: %w", err))
		}
	}()

	thumbUUID, err := uuid.NewRandom()
	if err != nil {
		reader.Close()
		return "", fmt.Errorf("failed to generate UUID for thumbnail: %w", err)
	}
	targetFilename := thumbUUID.String() + ThumbnailFileExtension

	savedRelPath, err := p.store.Save(AssetTypeThumbnail, "", targetFilename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail via store: %w", err)
	}

	log.Printf("processor: generated and saved thumbnail for %s at %s", originalPath, savedRelPath)
	return savedRelPath, nil
}

// EncodeForAnalysis loads a photo, downscales it so the longest side is at
// most AnalysisMaxSize, and re-encodes it as JPEG bytes suitable for a
// base64 vision API payload.
func EncodeForAnalysis(originalPath string) ([]byte, error) {
	img, err := imaging.Open(originalPath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", originalPath, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > AnalysisMaxSize || bounds.Dy() > AnalysisMaxSize {
		img = imaging.Fit(img, AnalysisMaxSize, AnalysisMaxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(AnalysisJpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode analysis payload for %s: %w", originalPath, err)
	}
	return buf.Bytes(), nil
}
