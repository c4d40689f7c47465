package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nasulife/nasutomo/internal/db"
)

// ProfileRepository provides data access for profiles and their
// embedded connection ledgers.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Upsert creates or merge-updates a profile by user id.
//
// Behavior:
//   - First write for the id → row inserted.
//   - Subsequent writes → name/city/status/child_age overwritten,
//     last_updated refreshed; the connection ledger is untouched.
//
// Example:
//
//	repo.Upsert(ctx, db.Profile{UserID: "u1", City: "那須町", ...})
func (r *ProfileRepository) Upsert(ctx context.Context, p db.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "city", "status", "child_age", "last_updated"}),
		}).
		Create(&p).Error
}

// Get fetches one profile with its connection ledger preloaded.
// Returns gorm.ErrRecordNotFound when the user has no profile yet.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).
		Preload("Connections").
		First(&p, "user_id = ?", userID).Error
	return p, err
}

// List returns every stored profile. The ranked dashboard needs the
// full candidate set; filtering (completeness, score, suppression)
// happens in the scorer, not in SQL, so the ranking logic stays in one
// place.
func (r *ProfileRepository) List(ctx context.Context) ([]db.Profile, error) {
	var profiles []db.Profile
	err := r.db.WithContext(ctx).Find(&profiles).Error
	return profiles, err
}

// AppendConnection records initiator → target in the initiator's
// ledger.
//
// Behavior:
//   - The (initiator_id, target_id) pair is unique; repeating the
//     request is a no-op and reports created=false.
//   - Existing rows are never mutated or removed.
//
// Example:
//
//	created, err := repo.AppendConnection(ctx, "u1", "u2", time.Now())
func (r *ProfileRepository) AppendConnection(ctx context.Context, initiatorID, targetID string, requestedAt time.Time) (bool, error) {
	req := db.ConnectionRequest{
		InitiatorID: initiatorID,
		TargetID:    targetID,
		Status:      db.StatusPending,
		RequestedAt: requestedAt,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "initiator_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(&req)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasConnection reports whether initiator already has a ledger entry
// for target, regardless of its status.
func (r *ProfileRepository) HasConnection(ctx context.Context, initiatorID, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ConnectionRequest{}).
		Where("initiator_id = ? AND target_id = ?", initiatorID, targetID).
		Count(&count).Error
	return count > 0, err
}
