package domain

import (
	"time"
)

// MemeType discriminates the two payload shapes a meme can carry.
type MemeType string

const (
	MemeTypeImage MemeType = "image"
	MemeTypeText  MemeType = "text"
)

// Meme represents a user-submitted content item, either an uploaded image
// with stored variants or a short text snippet. Exactly one of the image
// field set or TextContent is populated, determined by Type; use
// NewImageMeme/NewTextMeme to construct and Validate to check.
type Meme struct {
	ID          string   `gorm:"type:text;primaryKey" json:"id"`
	Type        MemeType `gorm:"type:text;not null;index:idx_memes_type" json:"type"`
	Title       *string  `gorm:"type:text" json:"title,omitempty"`
	Description *string  `gorm:"type:text" json:"description,omitempty"`

	// Image payload. All fields nil for text memes.
	OriginalURL   *string `gorm:"type:text" json:"originalUrl,omitempty"`
	ThumbnailURL  *string `gorm:"type:text" json:"thumbnailUrl,omitempty"`
	CompressedURL *string `gorm:"type:text" json:"compressedUrl,omitempty"`
	Filename      *string `gorm:"type:text" json:"filename,omitempty"`
	FileSize      *int64  `json:"fileSize,omitempty"`
	MimeType      *string `gorm:"type:text" json:"mimeType,omitempty"`
	Width         *int    `json:"width,omitempty"`
	Height        *int    `json:"height,omitempty"`

	// Text payload. Nil for image memes.
	TextContent *string `gorm:"type:text" json:"textContent,omitempty"`

	CategoryID *string   `gorm:"type:text;index:idx_memes_category" json:"categoryId,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags       []Tag     `gorm:"many2many:meme_tags" json:"tags"`

	ViewCount     int64 `gorm:"default:0" json:"viewCount"`
	DownloadCount int64 `gorm:"default:0" json:"downloadCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Meme.
func (Meme) TableName() string {
	return "memes"
}

// ImageAsset describes the stored artifacts of an uploaded image.
type ImageAsset struct {
	OriginalURL   string
	ThumbnailURL  string
	CompressedURL string
	Filename      string
	FileSize      int64
	MimeType      string
	Width         int
	Height        int
}

// NewImageMeme constructs an image meme with its asset payload populated and
// the text payload absent.
func NewImageMeme(id string, title, description, categoryID *string, asset ImageAsset) *Meme {
	return &Meme{
		ID:            id,
		Type:          MemeTypeImage,
		Title:         title,
		Description:   description,
		OriginalURL:   &asset.OriginalURL,
		ThumbnailURL:  &asset.ThumbnailURL,
		CompressedURL: &asset.CompressedURL,
		Filename:      &asset.Filename,
		FileSize:      &asset.FileSize,
		MimeType:      &asset.MimeType,
		Width:         &asset.Width,
		Height:        &asset.Height,
		CategoryID:    categoryID,
	}
}

// NewTextMeme constructs a text meme with only the text payload populated.
func NewTextMeme(id string, title, description, categoryID *string, textContent string) *Meme {
	return &Meme{
		ID:          id,
		Type:        MemeTypeText,
		Title:       title,
		Description: description,
		TextContent: &textContent,
		CategoryID:  categoryID,
	}
}

// HasImagePayload reports whether any image field is set.
func (m *Meme) HasImagePayload() bool {
	return m.OriginalURL != nil || m.ThumbnailURL != nil || m.CompressedURL != nil ||
		m.Filename != nil || m.FileSize != nil || m.MimeType != nil ||
		m.Width != nil || m.Height != nil
}

// Validate checks the payload invariant: image memes carry the image field
// set and no text content, text memes carry non-empty text and no image
// fields.
func (m *Meme) Validate() error {
	switch m.Type {
	case MemeTypeImage:
		if !m.HasImagePayload() {
			return Validation("image meme is missing its file payload")
		}
		if m.TextContent != nil {
			return Validation("image meme must not carry text content")
		}
	case MemeTypeText:
		if m.TextContent == nil || *m.TextContent == "" {
			return Validation("text content is required for text meme")
		}
		if m.HasImagePayload() {
			return Validation("text meme must not carry image fields")
		}
	default:
		return Validation("unknown meme type: " + string(m.Type))
	}
	return nil
}
