package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultPostTitle = "Community Post"

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

type MediaItem struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Post struct {
	ID        uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string                         `gorm:"not null;default:'Community Post';column:title" json:"title"`
	Content   string                         `gorm:"column:content" json:"content"`
	AuthorID  uuid.UUID                      `gorm:"type:uuid;not null;index;column:author_id" json:"authorId"`
	Media     datatypes.JSONSlice[MediaItem] `gorm:"column:media" json:"media"`
	CreatedAt time.Time                      `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time                      `gorm:"not null" json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Title == "" {
		p.Title = DefaultPostTitle
	}
	if p.Media == nil {
		p.Media = datatypes.JSONSlice[MediaItem]{}
	}
	return nil
}
