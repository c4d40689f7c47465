package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nasulife/nasutomo/internal/roomid"
	"github.com/nasulife/nasutomo/internal/db"
	"github.com/nasulife/nasutomo/internal/utils/pagination"
)

// HistoryWindow is the maximum number of messages returned per read of
// a room's history.
const HistoryWindow = 50

// ChatRepository provides data access for chat rooms and their
// append-only message sequences.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new repository bound to the given DB connection.
func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// CreateOrGetRoom resolves the canonical room for an unordered user
// pair and creates it if missing.
//
// Behavior:
//   - The id is the sorted pair joined by "_", so two clients racing to
//     create the same conversation write the same primary key.
//   - Insert uses DO NOTHING on conflict: a later creator never touches
//     the existing row's participants or created_at.
//
// Example:
//
//	room, _ := repo.CreateOrGetRoom(ctx, "userB", "userA") // id "userA_userB"
func (r *ChatRepository) CreateOrGetRoom(ctx context.Context, a, b string) (db.ChatRoom, error) {
	pa, pb := roomid.SortPair(a, b)
	room := db.ChatRoom{
		ID:           roomid.For(a, b),
		ParticipantA: pa,
		ParticipantB: pb,
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&room).Error; err != nil {
		return db.ChatRoom{}, err
	}

	// re-read so the caller sees the stored created_at, not the zero
	// value from a no-op insert
	var stored db.ChatRoom
	if err := r.db.WithContext(ctx).First(&stored, "id = ?", room.ID).Error; err != nil {
		return db.ChatRoom{}, err
	}
	return stored, nil
}

// GetRoom fetches a room by canonical id.
func (r *ChatRepository) GetRoom(ctx context.Context, roomID string) (db.ChatRoom, error) {
	var room db.ChatRoom
	err := r.db.WithContext(ctx).First(&room, "id = ?", roomID).Error
	return room, err
}

// ListRoomsForUser returns every room the user participates in, newest
// first.
func (r *ChatRepository) ListRoomsForUser(ctx context.Context, userID string) ([]db.ChatRoom, error) {
	var rooms []db.ChatRoom
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("created_at DESC").
		Find(&rooms).Error
	return rooms, err
}

// AppendMessage stores one message in the room's sequence. The stored
// created_at is server-assigned and authoritative for ordering.
func (r *ChatRepository) AppendMessage(ctx context.Context, roomID, senderID, text string) (db.Message, error) {
	msg := db.Message{
		RoomID:   roomID,
		SenderID: senderID,
		Text:     text,
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return db.Message{}, err
	}
	return msg, nil
}

// LatestMessages returns the newest window of a room's history in
// ascending display order.
//
// Behavior:
//   - At most HistoryWindow (or limit, if lower) messages.
//   - An optional pagination token walks further back in time; the
//     returned token is nil when no older messages remain.
//
// Example:
//
//	msgs, older, err := repo.LatestMessages(ctx, "a_b", nil, 50)
func (r *ChatRepository) LatestMessages(ctx context.Context, roomID string, paginationToken *string, limit int) ([]db.Message, *string, error) {
	if limit <= 0 || limit > HistoryWindow {
		limit = HistoryWindow
	}

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor.MessageID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.MessageID,
		)
	}

	var messages []db.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(messages) > limit {
		messages = messages[:limit]
		last := messages[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			MessageID:   last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
	}

	// reverse into ascending order for display
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nextToken, nil
}

// CountMessages returns the number of messages stored for a room.
func (r *ChatRepository) CountMessages(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
