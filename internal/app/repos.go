package app

import (
	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type Repos struct {
	User     repos.UserRepo
	Post     repos.PostRepo
	Message  repos.MessageRepo
	Course   repos.CourseRepo
	Progress repos.UserProgressRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     repos.NewUserRepo(db, log),
		Post:     repos.NewPostRepo(db, log),
		Message:  repos.NewMessageRepo(db, log),
		Course:   repos.NewCourseRepo(db, log),
		Progress: repos.NewUserProgressRepo(db, log),
	}
}
