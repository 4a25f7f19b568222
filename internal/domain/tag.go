package domain

import "time"

// Tag is a shared, independently addressable label. Tags are created on
// first use during meme create/update and removed by the orphan sweep once
// no meme references them.
type Tag struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_tags_name" json:"name"`
	CreatedAt time.Time `json:"createdAt"`

	Memes []Meme `gorm:"many2many:meme_tags" json:"-"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string {
	return "tags"
}

// TagWithCount pairs a tag with the number of memes referencing it.
type TagWithCount struct {
	Tag
	MemeCount int64 `json:"memeCount"`
}
