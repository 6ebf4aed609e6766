package learning

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultCourseThumbnail = "/images/courses/default-course.jpg"

// Module is embedded in the course row; its ID is referenced by progress records.
type Module struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

type Course struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                      `gorm:"not null;index;column:title" json:"title"`
	Description string                      `gorm:"column:description" json:"description"`
	ImageURL    string                      `gorm:"column:image_url" json:"imageUrl"`
	Level       string                      `gorm:"column:level" json:"level"`
	Modules     datatypes.JSONSlice[Module] `gorm:"column:modules" json:"modules"`
	CreatedAt   time.Time                   `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time                   `gorm:"not null" json:"updatedAt"`
}

func (Course) TableName() string { return "courses" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Modules == nil {
		c.Modules = datatypes.JSONSlice[Module]{}
	}
	return nil
}

func (c *Course) HasModule(moduleID string) bool {
	if c == nil {
		return false
	}
	for _, m := range c.Modules {
		if m.ID == moduleID {
			return true
		}
	}
	return false
}

// OrderedModules returns a copy sorted by Order, stable on insertion order.
func (c *Course) OrderedModules() []Module {
	if c == nil {
		return []Module{}
	}
	out := make([]Module, len(c.Modules))
	copy(out, c.Modules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
