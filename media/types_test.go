package media

import "testing"

func strPtr(s string) *string { return &s }

// TestCameraComposition verifies make/model merging and duplicate-make
// suppression.
func TestCameraComposition(t *testing.T) {
	cases := []struct {
		name string
		meta Metadata
		want string
	}{
		{
			name: "make plus model",
			meta: Metadata{CameraMake: strPtr("Canon"), CameraModel: strPtr("EOS R5")},
			want: "Canon EOS R5",
		},
		{
			name: "model already contains make",
			meta: Metadata{CameraMake: strPtr("FUJIFILM"), CameraModel: strPtr("FUJIFILM X-T4")},
			want: "FUJIFILM X-T4",
		},
		{
			name: "case-insensitive make match",
			meta: Metadata{CameraMake: strPtr("NIKON CORPORATION"), CameraModel: strPtr("Nikon Corporation D850")},
			want: "Nikon Corporation D850",
		},
		{
			name: "model only",
			meta: Metadata{CameraModel: strPtr("X100V")},
			want: "X100V",
		},
	}
	for _, c := range cases {
		got := c.meta.Camera()
		if got == nil || *got != c.want {
			t.Fatalf("%s: Camera() = %v, want %q", c.name, got, c.want)
		}
	}

	empty := Metadata{}
	if empty.Camera() != nil {
		t.Fatal("Camera() on empty metadata should be nil")
	}
}

// TestLensComposition verifies the same merging for lens fields.
func TestLensComposition(t *testing.T) {
	meta := Metadata{LensMake: strPtr("Sigma"), LensModel: strPtr("35mm F1.4 DG HSM")}
	got := meta.Lens()
	if got == nil || *got != "Sigma 35mm F1.4 DG HSM" {
		t.Fatalf("Lens() = %v", got)
	}
}

// TestHasGPS verifies both coordinates are required.
func TestHasGPS(t *testing.T) {
	lat, lon := 39.9, 116.4
	if (&Metadata{Latitude: &lat}).HasGPS() {
		t.Fatal("latitude alone should not count as GPS")
	}
	if !(&Metadata{Latitude: &lat, Longitude: &lon}).HasGPS() {
		t.Fatal("both coordinates should count as GPS")
	}
}
