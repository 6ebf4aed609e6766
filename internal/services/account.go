package services

import (
	"github.com/google/uuid"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
)

// accountPurger removes a user and everything they own. Callers supply a
// transaction in dbc so the cascade is all-or-nothing.
type accountPurger struct {
	users    repos.UserRepo
	posts    repos.PostRepo
	messages repos.MessageRepo
	progress repos.UserProgressRepo
}

type purgeCounts struct {
	Posts    int64
	Messages int64
	Progress int64
}

func (p accountPurger) purge(dbc dbctx.Context, userID uuid.UUID) (purgeCounts, error) {
	var out purgeCounts
	var err error
	if out.Posts, err = p.posts.FullDeleteByAuthorID(dbc, userID); err != nil {
		return out, err
	}
	if out.Messages, err = p.messages.FullDeleteByUserID(dbc, userID); err != nil {
		return out, err
	}
	if out.Progress, err = p.progress.FullDeleteByUserID(dbc, userID); err != nil {
		return out, err
	}
	return out, p.users.FullDeleteByID(dbc, userID)
}
