package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasulife/nasutomo/internal/db"
	"github.com/nasulife/nasutomo/internal/repository"
)

func TestCreateOrGetRoomIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	first, err := repo.CreateOrGetRoom(ctx, "userB", "userA")
	require.NoError(t, err)
	assert.Equal(t, "userA_userB", first.ID)
	assert.Equal(t, "userA", first.ParticipantA)
	assert.Equal(t, "userB", first.ParticipantB)

	// the other participant "creates" the same conversation
	second, err := repo.CreateOrGetRoom(ctx, "userA", "userB")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ParticipantA, second.ParticipantA)
	assert.Equal(t, first.ParticipantB, second.ParticipantB)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	var count int64
	dbase.Model(&db.ChatRoom{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListRoomsForUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	_, err := repo.CreateOrGetRoom(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = repo.CreateOrGetRoom(ctx, "u1", "u3")
	require.NoError(t, err)
	_, err = repo.CreateOrGetRoom(ctx, "u2", "u3")
	require.NoError(t, err)

	rooms, err := repo.ListRoomsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
	for _, r := range rooms {
		assert.True(t, r.Has("u1"))
	}
}

func TestAppendAndReadMessagesInOrder(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	room, err := repo.CreateOrGetRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	for _, text := range []string{"hello", "world", "!"} {
		_, err := repo.AppendMessage(ctx, room.ID, "u1", text)
		require.NoError(t, err)
	}

	msgs, older, err := repo.LatestMessages(ctx, room.ID, nil, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Nil(t, older)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "world", msgs[1].Text)
	assert.Equal(t, "!", msgs[2].Text)
}

func TestLatestMessagesCapAndCursor(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	room, err := repo.CreateOrGetRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	for i := 1; i <= 55; i++ {
		_, err := repo.AppendMessage(ctx, room.ID, "u1", fmt.Sprintf("msg-%02d", i))
		require.NoError(t, err)
	}

	// latest window holds the newest 50, ascending
	msgs, older, err := repo.LatestMessages(ctx, room.ID, nil, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 50)
	require.NotNil(t, older)
	assert.Equal(t, "msg-06", msgs[0].Text)
	assert.Equal(t, "msg-55", msgs[49].Text)

	// the cursor walks back to the remaining 5
	olderMsgs, oldest, err := repo.LatestMessages(ctx, room.ID, older, 50)
	require.NoError(t, err)
	require.Len(t, olderMsgs, 5)
	assert.Nil(t, oldest)
	assert.Equal(t, "msg-01", olderMsgs[0].Text)
	assert.Equal(t, "msg-05", olderMsgs[4].Text)
}

func TestCountMessages(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	room, err := repo.CreateOrGetRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	count, err := repo.CountMessages(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = repo.AppendMessage(ctx, room.ID, "u2", "こんにちは")
	require.NoError(t, err)

	count, err = repo.CountMessages(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
