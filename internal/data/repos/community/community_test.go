package community

import (
	"context"
	"testing"
	"time"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos/testutil"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
)

func TestPostRepoFeedJoinsAuthor(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPostRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	author := testutil.SeedUser(t, db, "user_author", "Sari", "Dewi")
	base := time.Now().UTC().Add(-time.Hour)
	older := testutil.SeedPost(t, db, author.ID, "first", base)
	newer := testutil.SeedPost(t, db, author.ID, "second", base.Add(time.Minute))

	rows, err := repo.ListFeed(dbc)
	if err != nil {
		t.Fatalf("ListFeed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListFeed: want 2 rows got %d", len(rows))
	}
	if rows[0].ID != newer.ID || rows[1].ID != older.ID {
		t.Fatalf("ListFeed: want newest first")
	}
	if rows[0].AuthorClerkID != "user_author" || rows[0].AuthorFirstName != "Sari" {
		t.Fatalf("ListFeed: author columns not joined: %+v", rows[0])
	}
	if rows[0].Title != types.DefaultPostTitle {
		t.Fatalf("ListFeed: title default: want=%q got=%q", types.DefaultPostTitle, rows[0].Title)
	}

	n, err := repo.FullDeleteByAuthorID(dbc, author.ID)
	if err != nil || n != 2 {
		t.Fatalf("FullDeleteByAuthorID: n=%d err=%v", n, err)
	}
}

func TestMessageRepoListBetweenScopesPair(t *testing.T) {
	db := testutil.DB(t)
	repo := NewMessageRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	a := testutil.SeedUser(t, db, "user_a", "A", "")
	b := testutil.SeedUser(t, db, "user_b", "B", "")
	c := testutil.SeedUser(t, db, "user_c", "C", "")

	base := time.Now().UTC().Add(-time.Hour)
	m2 := testutil.SeedMessage(t, db, b.ID, a.ID, "reply", base.Add(2*time.Second))
	m1 := testutil.SeedMessage(t, db, a.ID, b.ID, "hello", base.Add(time.Second))
	testutil.SeedMessage(t, db, a.ID, c.ID, "other", base)

	rows, err := repo.ListBetween(dbc, a.ID, b.ID)
	if err != nil {
		t.Fatalf("ListBetween: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != m1.ID || rows[1].ID != m2.ID {
		t.Fatalf("ListBetween: unexpected rows %+v", rows)
	}

	if got, err := repo.GetByIDAndSender(dbc, m2.ID, a.ID); err != nil || got != nil {
		t.Fatalf("GetByIDAndSender (not sender): got=%v err=%v", got, err)
	}
	if got, err := repo.GetByIDAndSender(dbc, m2.ID, b.ID); err != nil || got == nil {
		t.Fatalf("GetByIDAndSender (sender): got=%v err=%v", got, err)
	}

	n, err := repo.FullDeleteByUserID(dbc, a.ID)
	if err != nil || n != 3 {
		t.Fatalf("FullDeleteByUserID: n=%d err=%v", n, err)
	}
}
