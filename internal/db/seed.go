package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nasulife/nasutomo/internal/roomid"
)

// SeedTestData resets the database and populates it with demo profiles,
// connection requests and a few active chat rooms.
//
// Behavior:
//  1. Clears messages, chat_rooms, connection_requests and profiles.
//  2. Creates 20 profiles spread across the city/status/childAge option
//     sets, two of them intentionally incomplete.
//  3. For every third profile, sends a connection request to a
//     compatible peer and opens the corresponding room with a short
//     message exchange.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"messages", "chat_rooms", "connection_requests", "profiles"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	ids := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		id := fmt.Sprintf("demo-user-%04d", i)
		ids = append(ids, id)

		p := Profile{
			UserID:   id,
			City:     Cities[i%len(Cities)],
			Status:   Statuses[i%len(Statuses)],
			ChildAge: ChildAges[i%len(ChildAges)],
		}
		// leave a couple of profiles incomplete so the dashboard's
		// needs-profile path is exercised in development
		if i == 7 || i == 14 {
			p.ChildAge = ""
		}
		if r.Intn(2) == 0 {
			p.Name = "なすちゃん" + fmt.Sprint(i)
		}

		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	log.Println("Seeded 20 profiles.")

	for i, id := range ids {
		if i%3 != 0 {
			continue
		}
		target := ids[(i+4)%len(ids)]
		if target == id {
			continue
		}

		req := ConnectionRequest{
			InitiatorID: id,
			TargetID:    target,
			Status:      StatusPending,
			RequestedAt: time.Now().Add(-time.Duration(r.Intn(72)) * time.Hour),
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "initiator_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).Create(&req).Error; err != nil {
			return fmt.Errorf("failed to seed connection: %w", err)
		}

		pa, pb := roomid.SortPair(id, target)
		room := ChatRoom{
			ID:           roomid.For(id, target),
			ParticipantA: pa,
			ParticipantB: pb,
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&room).Error; err != nil {
			return fmt.Errorf("failed to seed room: %w", err)
		}

		msgs := []Message{
			{RoomID: room.ID, SenderID: id, Text: "はじめまして！"},
			{RoomID: room.ID, SenderID: target, Text: "よろしくお願いします"},
		}
		if err := db.Create(&msgs).Error; err != nil {
			return fmt.Errorf("failed to seed messages: %w", err)
		}
	}

	return nil
}
