package repos

import (
	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos/community"
	"github.com/komodohub/komodo-hub-backend/internal/data/repos/learning"
	"github.com/komodohub/komodo-hub-backend/internal/data/repos/user"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type PostRepo = community.PostRepo
type PostWithAuthor = community.PostWithAuthor
type MessageRepo = community.MessageRepo

type CourseRepo = learning.CourseRepo
type UserProgressRepo = learning.UserProgressRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo {
	return user.NewUserRepo(db, log)
}

func NewPostRepo(db *gorm.DB, log *logger.Logger) PostRepo {
	return community.NewPostRepo(db, log)
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return community.NewMessageRepo(db, log)
}

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, log)
}

func NewUserProgressRepo(db *gorm.DB, log *logger.Logger) UserProgressRepo {
	return learning.NewUserProgressRepo(db, log)
}
