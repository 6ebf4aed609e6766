package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserProgress holds the set of completed module ids for one (user, course).
type UserProgress struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_course,priority:1;column:user_id" json:"userId"`
	CourseID         uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_course,priority:2;index;column:course_id" json:"courseId"`
	CompletedModules datatypes.JSONSlice[string] `gorm:"column:completed_modules" json:"completedModules"`
	LastAccessed     time.Time                   `gorm:"not null;column:last_accessed" json:"lastAccessed"`
	CreatedAt        time.Time                   `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time                   `gorm:"not null" json:"updatedAt"`
}

func (UserProgress) TableName() string { return "user_progress" }

func (p *UserProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CompletedModules == nil {
		p.CompletedModules = datatypes.JSONSlice[string]{}
	}
	if p.LastAccessed.IsZero() {
		p.LastAccessed = time.Now().UTC()
	}
	return nil
}

// AddModule adds moduleID if absent and reports whether the set changed.
// Existing duplicates from older rows are collapsed at the same time.
func (p *UserProgress) AddModule(moduleID string) bool {
	seen := make(map[string]struct{}, len(p.CompletedModules)+1)
	out := make(datatypes.JSONSlice[string], 0, len(p.CompletedModules)+1)
	for _, id := range p.CompletedModules {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	_, had := seen[moduleID]
	if !had {
		out = append(out, moduleID)
	}
	changed := !had || len(out) != len(p.CompletedModules)
	p.CompletedModules = out
	return changed
}

func (p *UserProgress) Completed() []string {
	if p == nil || p.CompletedModules == nil {
		return []string{}
	}
	return []string(p.CompletedModules)
}
