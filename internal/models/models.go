package models

import "time"

// Item is one recommended catalog entry as shown in the gallery
type Item struct {
	ID          string `json:"id" yaml:"id" parquet:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty" parquet:"name"`
	Description string `json:"description" yaml:"description" parquet:"description"`
	URL         string `json:"url" yaml:"url" parquet:"url" validate:"required"`
	ImageURL    string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty" parquet:"image_url,optional"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty" parquet:"category,optional"`
}

// ImageFile is a user-selected image waiting to be uploaded
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// BatchRecord represents a completed generation kept in the web history
type BatchRecord struct {
	ID        string    `json:"id"`
	Files     []string  `json:"files"`
	Items     []Item    `json:"items"`
	Dropped   int       `json:"dropped,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
