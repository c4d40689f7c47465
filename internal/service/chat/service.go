package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/nasulife/nasutomo/internal/app"
	"github.com/nasulife/nasutomo/internal/db"
	svcErr "github.com/nasulife/nasutomo/internal/errors"
	"github.com/nasulife/nasutomo/internal/repository"
	"github.com/nasulife/nasutomo/internal/roomid"
)

// Service implements the one-to-one chat API: room resolution, history
// reads, sends and the realtime fan-out trigger.
type Service struct {
	appCtx      *app.AppContext
	chatRepo    *repository.ChatRepository
	profileRepo *repository.ProfileRepository
}

// NewService creates a chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		chatRepo:    repository.NewChatRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// RoomView is the API representation of a chat room from one
// participant's perspective.
type RoomView struct {
	ID          string `json:"id"`
	PartnerID   string `json:"partnerId"`
	PartnerName string `json:"partnerName"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
}

// MessageView is the API and fan-out representation of a message.
// SentAt is the server-assigned timestamp in epoch milliseconds.
type MessageView struct {
	ID       uint64 `json:"id"`
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
	SentAt   int64  `json:"sentAt"`
}

// History is one page of a room's message sequence, ascending by send
// time, plus an optional token for older messages.
type History struct {
	Messages   []MessageView `json:"messages"`
	OlderToken *string       `json:"olderToken,omitempty"`
}

func messageView(m db.Message) MessageView {
	return MessageView{
		ID:       m.ID,
		RoomID:   m.RoomID,
		SenderID: m.SenderID,
		Text:     m.Text,
		SentAt:   m.CreatedAt.UnixMilli(),
	}
}

// OpenRoom resolves (and idempotently creates) the room shared with a
// partner.
//
// Soft-fail: if the upsert cannot reach the store, the error is logged
// and the view is still returned with the deterministic id — the room
// may not exist server-side yet, in which case its history is simply
// empty until a send succeeds.
func (s *Service) OpenRoom(ctx context.Context, userID, partnerID string) (RoomView, error) {
	if partnerID == "" {
		return RoomView{}, svcErr.Invalid("partnerId is required")
	}
	if partnerID == userID {
		return RoomView{}, svcErr.Invalid("cannot open a chat with yourself")
	}

	view := RoomView{
		ID:          roomid.For(userID, partnerID),
		PartnerID:   partnerID,
		PartnerName: s.partnerName(ctx, partnerID),
	}

	room, err := s.chatRepo.CreateOrGetRoom(ctx, userID, partnerID)
	if err != nil {
		s.appCtx.Logger.Error("room create/fetch failed, proceeding with computed id",
			"room", view.ID, "err", err)
		return view, nil
	}

	view.CreatedAt = room.CreatedAt.UnixMilli()
	return view, nil
}

// Rooms lists every room the user participates in, newest first.
func (s *Service) Rooms(ctx context.Context, userID string) ([]RoomView, error) {
	rooms, err := s.chatRepo.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		partnerID := r.ParticipantA
		if partnerID == userID {
			partnerID = r.ParticipantB
		}
		views = append(views, RoomView{
			ID:          r.ID,
			PartnerID:   partnerID,
			PartnerName: s.partnerName(ctx, partnerID),
			CreatedAt:   r.CreatedAt.UnixMilli(),
		})
	}
	return views, nil
}

// History returns the latest window of a room's messages in ascending
// order, capped at the repository's history window, with a cursor for
// older pages.
func (s *Service) History(ctx context.Context, userID, roomID string, olderToken *string) (History, error) {
	if err := s.Authorize(ctx, userID, roomID); err != nil {
		return History{}, err
	}

	msgs, next, err := s.chatRepo.LatestMessages(ctx, roomID, olderToken, repository.HistoryWindow)
	if err != nil {
		s.appCtx.Logger.Error("history read failed", "room", roomID, "err", err)
		return History{}, err
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView(m))
	}
	return History{Messages: views, OlderToken: next}, nil
}

// Send appends one message to the room and triggers realtime fan-out.
//
// Behavior:
//   - Whitespace-only text is a no-op: nothing is stored, nothing is
//     published, and the returned view is nil.
//   - The sender must be a room participant.
//   - The stored timestamp is server-assigned.
//   - The fan-out publish is best-effort; a publish failure is logged
//     but the stored message still stands.
func (s *Service) Send(ctx context.Context, userID, roomID, text string) (*MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if err := s.Authorize(ctx, userID, roomID); err != nil {
		return nil, err
	}

	// lazy room creation: a send may be the first write after a
	// soft-failed open
	partnerA, partnerB, _ := roomid.Split(roomID)
	if _, err := s.chatRepo.CreateOrGetRoom(ctx, partnerA, partnerB); err != nil {
		s.appCtx.Logger.Error("room upsert before send failed", "room", roomID, "err", err)
		return nil, err
	}

	msg, err := s.chatRepo.AppendMessage(ctx, roomID, userID, text)
	if err != nil {
		s.appCtx.Logger.Error("message send failed", "room", roomID, "sender", userID, "err", err)
		return nil, err
	}

	view := messageView(msg)
	if payload, err := json.Marshal(view); err == nil {
		if err := s.appCtx.RedisCache.PublishMessage(ctx, roomID, payload); err != nil {
			s.appCtx.Logger.Warn("message publish failed", "room", roomID, "err", err)
		}
	}

	return &view, nil
}

// Authorize verifies that userID is a participant of roomID. Accepts
// membership from the stored room row when present, and otherwise from
// the deterministic id itself: a room that was never created
// server-side is still addressable by its two members. Used by the
// HTTP handlers and by the WebSocket subscribe endpoint before joining
// the hub.
func (s *Service) Authorize(ctx context.Context, userID, roomID string) error {
	a, b, ok := roomid.Split(roomID)
	if !ok {
		return svcErr.Invalid("malformed room id")
	}

	room, err := s.chatRepo.GetRoom(ctx, roomID)
	if err == nil {
		if !room.Has(userID) {
			return svcErr.Forbidden("not a participant of this room")
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if userID != a && userID != b {
		return svcErr.Forbidden("not a participant of this room")
	}
	return nil
}

func (s *Service) partnerName(ctx context.Context, partnerID string) string {
	p, err := s.profileRepo.Get(ctx, partnerID)
	if err != nil {
		return db.AnonymousName(partnerID)
	}
	return p.DisplayName()
}
