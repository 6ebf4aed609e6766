package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PendingEmail = "pending@example.com"
)

type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty"`
	Github   string `json:"github,omitempty"`
	Linkedin string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// User is the local directory row for one identity provider subject.
// ClerkID is the lookup key during request handling; ID is the only key
// other tables reference.
type User struct {
	ID            uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	ClerkID       string                          `gorm:"uniqueIndex;not null;column:clerk_id" json:"clerkId"`
	Email         string                          `gorm:"not null;column:email" json:"email"`
	FirstName     string                          `gorm:"column:first_name" json:"firstName"`
	LastName      string                          `gorm:"column:last_name" json:"lastName"`
	ImageURL      string                          `gorm:"column:image_url" json:"imageUrl"`
	CoverImageURL string                          `gorm:"column:cover_image_url" json:"coverImageUrl"`
	Bio           string                          `gorm:"column:bio" json:"bio"`
	SocialLinks   datatypes.JSONType[SocialLinks] `gorm:"column:social_links" json:"socialLinks"`
	Metadata      datatypes.JSONMap               `gorm:"column:metadata" json:"metadata"`
	CreatedAt     time.Time                       `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time                       `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Metadata == nil {
		u.Metadata = datatypes.JSONMap{}
	}
	return nil
}

// DisplayName joins first and last name, falling back when both are empty.
func (u *User) DisplayName(fallback string) string {
	if u == nil {
		return fallback
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return fallback
	}
	return name
}
