package match_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasulife/nasutomo/internal/db"
	"github.com/nasulife/nasutomo/internal/match"
)

func viewerProfile() db.Profile {
	return db.Profile{
		UserID:   "viewer",
		City:     "那須塩原市",
		Status:   "転勤族",
		ChildAge: "子供なし",
	}
}

func TestScoreCountsExactAttributeMatches(t *testing.T) {
	viewer := viewerProfile()

	full := viewer
	full.UserID = "other"
	assert.Equal(t, 3, match.Score(viewer, full))

	partial := db.Profile{UserID: "a", City: "那須塩原市", Status: "転勤族", ChildAge: "小学生ママ/パパ"}
	assert.Equal(t, 2, match.Score(viewer, partial))

	low := db.Profile{UserID: "b", City: "那須町", Status: "学生", ChildAge: "子供なし"}
	assert.Equal(t, 1, match.Score(viewer, low))
}

func TestRankFiltersByMinScore(t *testing.T) {
	viewer := viewerProfile()
	a := db.Profile{UserID: "a", City: "那須塩原市", Status: "転勤族", ChildAge: "小学生ママ/パパ"} // score 2
	b := db.Profile{UserID: "b", City: "那須町", Status: "学生", ChildAge: "子供なし"}      // score 1

	ranked := match.Rank(viewer, []db.Profile{a, b})
	require.Len(t, ranked, 1)
	assert.Equal(t, "a", ranked[0].Profile.UserID)
	assert.Equal(t, 2, ranked[0].MatchScore)
}

func TestRankSuppressesAlreadyConnected(t *testing.T) {
	viewer := viewerProfile()
	viewer.Connections = []db.ConnectionRequest{
		{InitiatorID: "viewer", TargetID: "a", Status: db.StatusPending},
	}
	// perfect score, but a request was already sent
	a := viewerProfile()
	a.UserID = "a"

	ranked := match.Rank(viewer, []db.Profile{a})
	assert.Empty(t, ranked)
}

func TestRankExcludesIncompleteProfiles(t *testing.T) {
	viewer := viewerProfile()
	incomplete := db.Profile{UserID: "a", City: "那須塩原市", Status: "転勤族"} // childAge missing

	ranked := match.Rank(viewer, []db.Profile{incomplete})
	assert.Empty(t, ranked)
}

func TestRankExcludesViewerItself(t *testing.T) {
	viewer := viewerProfile()
	ranked := match.Rank(viewer, []db.Profile{viewer})
	assert.Empty(t, ranked)
}

func TestRankIncompleteViewerGetsNothing(t *testing.T) {
	viewer := db.Profile{UserID: "viewer", City: "那須塩原市"}
	candidate := viewerProfile()
	candidate.UserID = "a"

	assert.Empty(t, match.Rank(viewer, []db.Profile{candidate}))
}

func TestRankTruncatesToTopFive(t *testing.T) {
	viewer := viewerProfile()

	// 3 candidates at score 3, 5 at score 2
	var candidates []db.Profile
	for i := 0; i < 3; i++ {
		p := viewerProfile()
		p.UserID = fmt.Sprintf("full-%d", i)
		candidates = append(candidates, p)
	}
	for i := 0; i < 5; i++ {
		candidates = append(candidates, db.Profile{
			UserID:   fmt.Sprintf("partial-%d", i),
			City:     "那須塩原市",
			Status:   "転勤族",
			ChildAge: "小学生ママ/パパ",
		})
	}

	ranked := match.Rank(viewer, candidates)
	require.Len(t, ranked, match.MaxCandidates)

	// every returned score is >= every excluded candidate's score
	for i, m := range ranked {
		if i < 3 {
			assert.Equal(t, 3, m.MatchScore)
		} else {
			assert.Equal(t, 2, m.MatchScore)
		}
	}
}

func TestRankTiebreakIsDeterministic(t *testing.T) {
	viewer := viewerProfile()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newer := viewerProfile()
	newer.UserID = "zed"
	newer.LastUpdated = base.Add(time.Hour)

	older := viewerProfile()
	older.UserID = "amy"
	older.LastUpdated = base

	ranked := match.Rank(viewer, []db.Profile{older, newer})
	require.Len(t, ranked, 2)
	assert.Equal(t, "zed", ranked[0].Profile.UserID)
	assert.Equal(t, "amy", ranked[1].Profile.UserID)

	// equal timestamps fall back to user id ascending
	newer.LastUpdated = base
	ranked = match.Rank(viewer, []db.Profile{newer, older})
	assert.Equal(t, "amy", ranked[0].Profile.UserID)
}

func TestAnonymousName(t *testing.T) {
	assert.Equal(t, "匿名ユーザーabcd", db.AnonymousName("abcdefgh"))
	assert.Equal(t, "匿名ユーザーab", db.AnonymousName("ab"))
	assert.Equal(t, "匿名ユーザーxxxx", db.AnonymousName(""))
}
