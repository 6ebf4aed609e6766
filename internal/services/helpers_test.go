package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	"github.com/komodohub/komodo-hub-backend/internal/data/repos/testutil"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/realtime"
)

type testEnv struct {
	db       *gorm.DB
	log      *logger.Logger
	users    repos.UserRepo
	posts    repos.PostRepo
	messages repos.MessageRepo
	courses  repos.CourseRepo
	progress repos.UserProgressRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &testEnv{
		db:       db,
		log:      log,
		users:    repos.NewUserRepo(db, log),
		posts:    repos.NewPostRepo(db, log),
		messages: repos.NewMessageRepo(db, log),
		courses:  repos.NewCourseRepo(db, log),
		progress: repos.NewUserProgressRepo(db, log),
	}
}

func (e *testEnv) identity(profiles clerk.Client) IdentityService {
	return NewIdentityService(e.log, e.users, profiles, nil)
}

// codeOf returns the machine code carried by err, or "".
func codeOf(err error) string {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) UploadFile(dbc dbctx.Context, key, contentType string, file io.Reader) error {
	if m.failPut != nil {
		return m.failPut
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	m.types[key] = contentType
	return nil
}

func (m *memStore) DeleteFile(dbc dbctx.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *memStore) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

type stubProfiles struct {
	profiles map[string]*clerk.Profile
	err      error
	calls    int
}

func (s *stubProfiles) GetUser(ctx context.Context, externalID string) (*clerk.Profile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.profiles[externalID]; ok {
		return p, nil
	}
	return nil, clerk.ErrUserNotFound
}

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (r *recordingEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingEmitter) channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Channel)
	}
	return out
}
