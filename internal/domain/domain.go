package domain

import (
	"github.com/komodohub/komodo-hub-backend/internal/domain/community"
	"github.com/komodohub/komodo-hub-backend/internal/domain/learning"
	"github.com/komodohub/komodo-hub-backend/internal/domain/user"
)

type User = user.User
type SocialLinks = user.SocialLinks

type Post = community.Post
type MediaItem = community.MediaItem
type Message = community.Message

type Course = learning.Course
type Module = learning.Module
type UserProgress = learning.UserProgress

const (
	PendingEmail           = user.PendingEmail
	DefaultPostTitle       = community.DefaultPostTitle
	DefaultCourseThumbnail = learning.DefaultCourseThumbnail
	MediaTypeImage         = community.MediaTypeImage
	MediaTypeVideo         = community.MediaTypeVideo
)

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&User{},
		&Course{},
		&UserProgress{},
		&Post{},
		&Message{},
	}
}
