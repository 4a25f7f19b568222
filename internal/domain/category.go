package domain

import "time"

// Category groups memes. Referenced by Meme via a nullable foreign key and
// never cascaded: deleting a meme leaves its category in place.
type Category struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	Name        string    `gorm:"type:text;not null;uniqueIndex:idx_categories_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string {
	return "categories"
}

// CategoryWithCount pairs a category with the number of memes assigned to it.
type CategoryWithCount struct {
	Category
	MemeCount int64 `json:"memeCount"`
}
