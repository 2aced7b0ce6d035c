package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/facette/natsort"
)

var supportedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// IsSupportedImage checks if the filename has an accepted raster image
// extension (case-insensitive)
func IsSupportedImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return supportedImageExtensions[ext]
}

// ScanPhotoDir walks a directory recursively and returns the absolute
// paths of all supported image files, naturally sorted by path so that
// img2.jpg precedes img10.jpg.
func ScanPhotoDir(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat import folder %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import path %s is not a directory", root)
	}

	var files []string
	err = filepath.Walk(root, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			return nil
		}
		if IsSupportedImage(fi.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan import folder %s: %w", root, err)
	}

	natsort.Sort(files)
	return files, nil
}
