package community

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, m *types.Message) (*types.Message, error)
	GetByIDAndSender(dbc dbctx.Context, id, senderID uuid.UUID) (*types.Message, error)
	ListBetween(dbc dbctx.Context, userA, userB uuid.UUID) ([]*types.Message, error)
	FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error
	FullDeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, m *types.Message) (*types.Message, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetByIDAndSender only finds messages the given user sent.
func (r *messageRepo) GetByIDAndSender(dbc dbctx.Context, id, senderID uuid.UUID) (*types.Message, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || senderID == uuid.Nil {
		return nil, nil
	}
	var out []*types.Message
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND sender_id = ?", id, senderID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// ListBetween returns the conversation of an unordered pair, oldest first.
func (r *messageRepo) ListBetween(dbc dbctx.Context, userA, userB uuid.UUID) ([]*types.Message, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Message
	if err := t.WithContext(dbc.Ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Message{}).Error
}

func (r *messageRepo) FullDeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Delete(&types.Message{})
	return res.RowsAffected, res.Error
}
