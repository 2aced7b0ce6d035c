package media

import "strings"

type AssetType string

const (
	AssetTypePhoto     AssetType = "photo"
	AssetTypeThumbnail AssetType = "thumbnail"
	AssetTypeUnknown   AssetType = "unknown"
)

// Metadata holds EXIF and dimension information for one photo file.
// All fields except FileSize are optional; extraction leaves everything
// it cannot read as nil.
type Metadata struct {
	Width        *int     `json:"width,omitempty"`
	Height       *int     `json:"height,omitempty"`
	FileSize     int64    `json:"file_size"`
	Aperture     *float64 `json:"aperture,omitempty"`
	ShutterSpeed *string  `json:"shutter_speed,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
	FocalLength  *float64 `json:"focal_length,omitempty"`
	LensMake     *string  `json:"lens_make,omitempty"`
	LensModel    *string  `json:"lens_model,omitempty"`
	CameraMake   *string  `json:"camera_make,omitempty"`
	CameraModel  *string  `json:"camera_model,omitempty"`
	TakenAt      *int64   `json:"taken_at,omitempty"`
	Latitude     *float64 `json:"gps_latitude,omitempty"`
	Longitude    *float64 `json:"gps_longitude,omitempty"`
}

// Camera composes make and model into a single display string, skipping
// the make when the model already repeats it (common on Canon/Nikon).
func (m *Metadata) Camera() *string {
	if m.CameraModel == nil {
		return m.CameraMake
	}
	model := *m.CameraModel
	if m.CameraMake != nil && !hasPrefixFold(model, *m.CameraMake) {
		s := *m.CameraMake + " " + model
		return &s
	}
	return &model
}

// Lens composes lens make and model the same way as Camera.
func (m *Metadata) Lens() *string {
	if m.LensModel == nil {
		return m.LensMake
	}
	model := *m.LensModel
	if m.LensMake != nil && !hasPrefixFold(model, *m.LensMake) {
		s := *m.LensMake + " " + model
		return &s
	}
	return &model
}

// HasGPS reports whether both coordinates were present in the EXIF data.
func (m *Metadata) HasGPS() bool {
	return m.Latitude != nil && m.Longitude != nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
