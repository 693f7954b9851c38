package model

import (
	"strings"
	"time"
)

// MenuItem is a dish shown on the public menu. Image is either a remote URL or an
// inline data: URL when no image host is configured.
type MenuItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasInlineImage reports whether the image is embedded as a data URL.
func (m *MenuItem) HasInlineImage() bool {
	return strings.HasPrefix(m.Image, "data:")
}
