package utils

import (
	"os"
	"path/filepath"
	"testing"
)

// TestIsSupportedImage verifies extension matching is case-insensitive
// and rejects non-raster files.
func TestIsSupportedImage(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"scan.TIFF", true},
		{"anim.webp", true},
		{"raw.cr2", false},
		{"video.mp4", false},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, c := range cases {
		if got := IsSupportedImage(c.name); got != c.want {
			t.Fatalf("IsSupportedImage(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

// TestScanPhotoDirNaturalOrder verifies recursive scanning, filtering
// and natural sort (img2 before img10).
func TestScanPhotoDirNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "trip")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	for _, name := range []string{"img10.jpg", "img2.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(sub, "img1.png"), []byte("x"), 0644); err != nil {
		t.Fatalf("write nested: %v", err)
	}

	files, err := ScanPhotoDir(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(files), files)
	}

	var img2, img10 int
	for i, f := range files {
		switch filepath.Base(f) {
		case "img2.jpg":
			img2 = i
		case "img10.jpg":
			img10 = i
		}
	}
	if img2 > img10 {
		t.Fatalf("natural order violated: %v", files)
	}
}

// TestScanPhotoDirRejectsFile verifies a file path is not accepted as a
// folder.
func TestScanPhotoDirRejectsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "single.jpg")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ScanPhotoDir(file); err == nil {
		t.Fatal("expected error for non-directory path")
	}
}
