package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/realtime"
)

// Participant identifies a message party by identity provider id.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type MessageView struct {
	ID        string      `json:"_id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	Sender    Participant `json:"sender"`
	Receiver  Participant `json:"receiver"`
}

type MessageService interface {
	// Conversation returns the messages exchanged between me and the user with
	// the given external id, oldest first.
	Conversation(ctx context.Context, me *types.User, otherExternalID string) ([]MessageView, error)
	Send(ctx context.Context, me *types.User, receiverExternalID, content string) (*MessageView, error)
	Delete(ctx context.Context, me *types.User, messageID string) error
}

type messageService struct {
	log         *logger.Logger
	userRepo    repos.UserRepo
	messageRepo repos.MessageRepo
	emitter     realtime.Emitter
}

func NewMessageService(log *logger.Logger, userRepo repos.UserRepo, messageRepo repos.MessageRepo, emitter realtime.Emitter) MessageService {
	if emitter == nil {
		emitter = realtime.NopEmitter{}
	}
	return &messageService{
		log:         log.With("service", "MessageService"),
		userRepo:    userRepo,
		messageRepo: messageRepo,
		emitter:     emitter,
	}
}

func participant(u *types.User) Participant {
	return Participant{ID: u.ClerkID, Name: u.DisplayName(AnonymousAuthor), Image: u.ImageURL}
}

func newMessageView(m *types.Message, sender, receiver *types.User) MessageView {
	return MessageView{
		ID:        m.ID.String(),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Sender:    participant(sender),
		Receiver:  participant(receiver),
	}
}

func (s *messageService) lookupOther(ctx context.Context, externalID string) (*types.User, error) {
	u, err := s.userRepo.GetByClerkID(withCtx(ctx), externalID)
	if err != nil {
		return nil, apierr.Internal("user_lookup_failed", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", "User not found")
	}
	return u, nil
}

func (s *messageService) Conversation(ctx context.Context, me *types.User, otherExternalID string) ([]MessageView, error) {
	otherExternalID = strings.TrimSpace(otherExternalID)
	if otherExternalID == "" {
		return nil, apierr.BadRequest("missing_user_id", "User ID is required")
	}
	other, err := s.lookupOther(ctx, otherExternalID)
	if err != nil {
		return nil, err
	}

	rows, err := s.messageRepo.ListBetween(withCtx(ctx), me.ID, other.ID)
	if err != nil {
		return nil, apierr.Internal("messages_fetch_failed", err)
	}
	out := make([]MessageView, 0, len(rows))
	for _, m := range rows {
		if m.SenderID == me.ID {
			out = append(out, newMessageView(m, me, other))
		} else {
			out = append(out, newMessageView(m, other, me))
		}
	}
	return out, nil
}

func (s *messageService) Send(ctx context.Context, me *types.User, receiverExternalID, content string) (*MessageView, error) {
	content = strings.TrimSpace(content)
	receiverExternalID = strings.TrimSpace(receiverExternalID)
	if content == "" || receiverExternalID == "" {
		return nil, apierr.BadRequest("missing_fields", "Content and receiver ID are required")
	}
	receiver, err := s.lookupOther(ctx, receiverExternalID)
	if err != nil {
		return nil, err
	}

	m := &types.Message{Content: content, SenderID: me.ID, ReceiverID: receiver.ID}
	if _, err := s.messageRepo.Create(withCtx(ctx), m); err != nil {
		return nil, apierr.Internal("message_create_failed", err)
	}
	v := newMessageView(m, me, receiver)

	s.notify(ctx, realtime.SSEEventMessageCreated, v, me.ID, receiver.ID)
	return &v, nil
}

func (s *messageService) Delete(ctx context.Context, me *types.User, messageID string) error {
	notFound := apierr.NotFound("message_not_found", "Message not found or you are not authorized to delete it")
	id, ok := parseID(messageID)
	if !ok {
		return notFound
	}
	dbc := withCtx(ctx)

	m, err := s.messageRepo.GetByIDAndSender(dbc, id, me.ID)
	if err != nil {
		return apierr.Internal("message_delete_failed", err)
	}
	if m == nil {
		return notFound
	}
	if err := s.messageRepo.FullDeleteByID(dbc, id); err != nil {
		return apierr.Internal("message_delete_failed", err)
	}
	s.notify(ctx, realtime.SSEEventMessageDeleted, map[string]string{"_id": id.String()}, me.ID, m.ReceiverID)
	return nil
}

func (s *messageService) notify(ctx context.Context, event realtime.SSEEvent, data any, userIDs ...uuid.UUID) {
	seen := map[uuid.UUID]bool{}
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		s.emitter.Emit(ctx, realtime.SSEMessage{Channel: realtime.UserChannel(uid), Event: event, Data: data})
		observability.Current().IncSSEEvent(string(event))
	}
}
