package matches

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nasulife/nasutomo/internal/app"
	"github.com/nasulife/nasutomo/internal/cache"
	"github.com/nasulife/nasutomo/internal/db"
	svcErr "github.com/nasulife/nasutomo/internal/errors"
	"github.com/nasulife/nasutomo/internal/match"
	"github.com/nasulife/nasutomo/internal/repository"
	"github.com/nasulife/nasutomo/internal/retry"
)

// Service implements the matching dashboard API: profile editing, the
// ranked candidate list and the connection ledger.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository

	retryAttempts int
	retryBase     time.Duration
}

// NewService creates a matches service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:        appCtx,
		profileRepo:   repository.NewProfileRepository(appCtx.DB),
		retryAttempts: retry.DefaultAttempts,
		retryBase:     retry.DefaultBase,
	}
}

// WithRetryPolicy overrides the connection append's backoff budget.
// Tests shrink the base interval; production keeps the defaults.
func (s *Service) WithRetryPolicy(attempts int, base time.Duration) *Service {
	s.retryAttempts = attempts
	s.retryBase = base
	return s
}

// ProfileInput is the client-submitted profile form. All three
// matching attributes come from closed option sets and are validated
// before anything is stored.
type ProfileInput struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	Status   string `json:"status"`
	ChildAge string `json:"childAge"`
}

// ProfileView is the API representation of a profile.
type ProfileView struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Status      string `json:"status"`
	ChildAge    string `json:"childAge"`
	LastUpdated int64  `json:"lastUpdated,omitempty"`
	Complete    bool   `json:"complete"`
}

// Candidate is one entry of the ranked dashboard.
type Candidate struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	City       string `json:"city"`
	Status     string `json:"status"`
	ChildAge   string `json:"childAge"`
	MatchScore int    `json:"matchScore"`
}

// Dashboard is the match screen payload. NeedsProfile routes the user
// back to profile editing instead of showing candidates.
type Dashboard struct {
	NeedsProfile bool        `json:"needsProfile"`
	Candidates   []Candidate `json:"candidates"`
}

func profileView(p db.Profile) ProfileView {
	v := ProfileView{
		UserID:   p.UserID,
		Name:     p.DisplayName(),
		City:     p.City,
		Status:   p.Status,
		ChildAge: p.ChildAge,
		Complete: p.Complete(),
	}
	if !p.LastUpdated.IsZero() {
		v.LastUpdated = p.LastUpdated.UnixMilli()
	}
	return v
}

// GetProfile returns the caller's own profile. A user who has not
// submitted the form yet gets an empty, incomplete view rather than an
// error, since that state is how the UI decides to show the form.
func (s *Service) GetProfile(ctx context.Context, userID string) (ProfileView, error) {
	p, err := s.profileRepo.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ProfileView{UserID: userID, Name: db.AnonymousName(userID)}, nil
	}
	if err != nil {
		return ProfileView{}, err
	}
	return profileView(p), nil
}

// SaveProfile validates and merge-upserts the caller's profile, then
// drops their cached dashboard since the ranking inputs changed.
//
// Only the owner can write: the user id comes from the verified token,
// never from the request body.
func (s *Service) SaveProfile(ctx context.Context, userID string, in ProfileInput) (ProfileView, error) {
	if in.City == "" || in.Status == "" || in.ChildAge == "" {
		return ProfileView{}, svcErr.Invalid("city, status and childAge are all required")
	}
	if !db.ValidCity(in.City) {
		return ProfileView{}, svcErr.Invalid("unknown city option")
	}
	if !db.ValidStatus(in.Status) {
		return ProfileView{}, svcErr.Invalid("unknown status option")
	}
	if !db.ValidChildAge(in.ChildAge) {
		return ProfileView{}, svcErr.Invalid("unknown childAge option")
	}

	p := db.Profile{
		UserID:   userID,
		Name:     in.Name,
		City:     in.City,
		Status:   in.Status,
		ChildAge: in.ChildAge,
	}
	if err := s.profileRepo.Upsert(ctx, p); err != nil {
		s.appCtx.Logger.Error("profile save failed", "user", userID, "err", err)
		return ProfileView{}, err
	}

	if err := s.appCtx.RedisCache.InvalidateMatchList(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("match cache invalidation failed", "user", userID, "err", err)
	}

	stored, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return ProfileView{}, err
	}
	return profileView(stored), nil
}

// GetDashboard produces the viewer's ranked candidate list.
//
// Behavior:
//   - An absent or incomplete viewer profile short-circuits to
//     needsProfile; incomplete viewers never participate in matching.
//   - Cache-first: a fresh ranked list is served from Redis when
//     present; otherwise all profiles are read, ranked by the scorer
//     and the result cached with a short TTL.
//   - A failed read of the profile set surfaces the error; the list is
//     left empty and nothing is retried automatically.
func (s *Service) GetDashboard(ctx context.Context, viewerID string) (Dashboard, error) {
	viewer, err := s.profileRepo.Get(ctx, viewerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Dashboard{NeedsProfile: true, Candidates: []Candidate{}}, nil
	}
	if err != nil {
		return Dashboard{}, err
	}
	if !viewer.Complete() {
		return Dashboard{NeedsProfile: true, Candidates: []Candidate{}}, nil
	}

	key := s.appCtx.RedisCache.KeyForMatchList(viewerID)
	if cached, _ := s.appCtx.RedisCache.Get(ctx, key); cached != "" {
		var candidates []Candidate
		if err := json.Unmarshal([]byte(cached), &candidates); err == nil {
			return Dashboard{Candidates: candidates}, nil
		}
	}

	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		s.appCtx.Logger.Error("profile list read failed", "viewer", viewerID, "err", err)
		return Dashboard{}, err
	}

	ranked := match.Rank(viewer, profiles)
	candidates := make([]Candidate, 0, len(ranked))
	for _, m := range ranked {
		candidates = append(candidates, Candidate{
			UserID:     m.Profile.UserID,
			Name:       m.Profile.DisplayName(),
			City:       m.Profile.City,
			Status:     m.Profile.Status,
			ChildAge:   m.Profile.ChildAge,
			MatchScore: m.MatchScore,
		})
	}

	if payload, err := json.Marshal(candidates); err == nil {
		if err := s.appCtx.RedisCache.Set(ctx, key, payload, cache.MatchListTTL); err != nil {
			s.appCtx.Logger.Warn("match cache write failed", "viewer", viewerID, "err", err)
		}
	}

	return Dashboard{Candidates: candidates}, nil
}

// Connect records a connection request from the viewer to the target.
//
// Behavior:
//   - Self-connections are rejected.
//   - requestedAt is the client's clock; stored for display/audit only.
//   - The append runs under bounded exponential backoff; exhaustion
//     surfaces the last error to the caller.
//   - A repeated request for the same target is a no-op (created=false)
//     rather than a duplicate ledger entry.
//   - The viewer's cached dashboard is invalidated so the new target
//     disappears from their candidate list immediately.
//
// Connect does not open the chat room; callers compose it with the chat
// service so an accept/reject gate can be inserted between the two
// operations later.
func (s *Service) Connect(ctx context.Context, viewerID, targetID string, requestedAt time.Time) (bool, error) {
	if targetID == "" {
		return false, svcErr.Invalid("targetId is required")
	}
	if viewerID == targetID {
		return false, svcErr.Invalid("cannot connect to yourself")
	}
	if requestedAt.IsZero() {
		requestedAt = time.Now()
	}

	var created bool
	err := retry.Do(ctx, s.retryAttempts, s.retryBase, func() error {
		var appendErr error
		created, appendErr = s.profileRepo.AppendConnection(ctx, viewerID, targetID, requestedAt)
		return appendErr
	})
	if err != nil {
		s.appCtx.Logger.Error("connection append failed", "viewer", viewerID, "target", targetID, "err", err)
		return false, err
	}

	if err := s.appCtx.RedisCache.InvalidateMatchList(ctx, viewerID); err != nil {
		s.appCtx.Logger.Warn("match cache invalidation failed", "user", viewerID, "err", err)
	}

	return created, nil
}
