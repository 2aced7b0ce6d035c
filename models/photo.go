package models

import "gorm.io/gorm"

// Photo represents an imported photo record in the database using GORM.
// It corresponds to the 'photos' table. The primary key is the opaque
// photo identifier also used by the vector store.
type Photo struct {
	ID       string `gorm:"primaryKey" json:"id"`
	FilePath string `gorm:"not null" json:"file_path"`
	Filename string `gorm:"not null;index" json:"filename"`
	FileSize int64  `gorm:"not null" json:"file_size"`

	Width  *int `gorm:"" json:"width,omitempty"`
	Height *int `gorm:"" json:"height,omitempty"`

	TakenAt      *int64   `gorm:"index" json:"taken_at,omitempty"` // Unix timestamp
	Camera       *string  `gorm:"" json:"camera,omitempty"`
	Lens         *string  `gorm:"" json:"lens,omitempty"`
	ISO          *int     `gorm:"" json:"iso,omitempty"`
	Aperture     *float64 `gorm:"" json:"aperture,omitempty"` // F-number
	ShutterSpeed *string  `gorm:"" json:"shutter_speed,omitempty"`
	FocalLength  *float64 `gorm:"" json:"focal_length,omitempty"` // mm

	Latitude  *float64 `gorm:"" json:"gps_latitude,omitempty"`
	Longitude *float64 `gorm:"" json:"gps_longitude,omitempty"`
	Location  *string  `gorm:"" json:"location,omitempty"` // resolved address

	// AI analysis results
	Description string   `gorm:"" json:"description"`
	Tags        []string `gorm:"serializer:json" json:"tags"`
	Mood        string   `gorm:"" json:"mood,omitempty"`
	Subjects    string   `gorm:"" json:"subjects,omitempty"`

	ScoreComposition float64  `gorm:"" json:"score_composition"`
	ScoreColor       float64  `gorm:"" json:"score_color"`
	ScoreLighting    float64  `gorm:"" json:"score_lighting"`
	ScoreSharpness   float64  `gorm:"" json:"score_sharpness"`
	ScoreOverall     float64  `gorm:"index" json:"score_overall"`
	ScoreReason      string   `gorm:"" json:"score_reason,omitempty"`
	Suggestions      []string `gorm:"serializer:json" json:"suggestions,omitempty"`

	ThumbnailPath   *string `gorm:"" json:"thumbnail_path,omitempty"`
	ThumbnailStatus string  `gorm:"not null;default:pending" json:"thumbnail_status"`
	ThumbnailError  *string `gorm:"" json:"thumbnail_error,omitempty"`

	AIProcessed bool    `gorm:"not null;default:false" json:"ai_processed"`
	AIError     *string `gorm:"" json:"ai_error,omitempty"`

	CreatedAt int64          `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}
