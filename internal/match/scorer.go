package match

import (
	"sort"

	"github.com/nasulife/nasutomo/internal/db"
)

// MaxCandidates caps the ranked dashboard list.
const MaxCandidates = 5

// MinScore is the lowest attribute-overlap score that still qualifies
// a candidate for the dashboard.
const MinScore = 2

// PotentialMatch is a candidate profile augmented with its score
// against the viewer. Derived on every ranking pass, never persisted.
type PotentialMatch struct {
	Profile     db.Profile
	MatchScore  int
	IsConnected bool
}

// Score counts the attributes among city, status and childAge that are
// exactly equal between viewer and candidate. Range 0-3. Comparison is
// case-sensitive string equality; the option sets are closed, so no
// normalization is applied.
func Score(viewer, candidate db.Profile) int {
	score := 0
	if viewer.City == candidate.City {
		score++
	}
	if viewer.Status == candidate.Status {
		score++
	}
	if viewer.ChildAge == candidate.ChildAge {
		score++
	}
	return score
}

// Connected reports whether the viewer has already sent a connection
// request to targetID. The request's status is deliberately ignored: a
// pending request suppresses a candidate the same way an accepted one
// would.
func Connected(viewer db.Profile, targetID string) bool {
	for _, c := range viewer.Connections {
		if c.TargetID == targetID {
			return true
		}
	}
	return false
}

// Rank produces the viewer's ranked candidate list.
//
// Behavior:
//   - The viewer itself and any incomplete profile are excluded.
//   - Candidates scoring below MinScore or already connected to the
//     viewer are dropped.
//   - Remaining candidates are ordered by score descending; ties break
//     by lastUpdated descending, then user id ascending, so the
//     ordering is stable across re-reads.
//   - The result is truncated to MaxCandidates.
//
// Pure: Rank never mutates its inputs and has no side effects.
func Rank(viewer db.Profile, candidates []db.Profile) []PotentialMatch {
	if !viewer.Complete() {
		return nil
	}

	ranked := make([]PotentialMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID == viewer.UserID || !c.Complete() {
			continue
		}
		score := Score(viewer, c)
		if score < MinScore {
			continue
		}
		if Connected(viewer, c.UserID) {
			continue
		}
		ranked = append(ranked, PotentialMatch{
			Profile:    c,
			MatchScore: score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MatchScore != ranked[j].MatchScore {
			return ranked[i].MatchScore > ranked[j].MatchScore
		}
		if !ranked[i].Profile.LastUpdated.Equal(ranked[j].Profile.LastUpdated) {
			return ranked[i].Profile.LastUpdated.After(ranked[j].Profile.LastUpdated)
		}
		return ranked[i].Profile.UserID < ranked[j].Profile.UserID
	})

	if len(ranked) > MaxCandidates {
		ranked = ranked[:MaxCandidates]
	}
	return ranked
}
