package db

import (
	"time"
)

// Connection request lifecycle. Only StatusPending is produced today:
// sending a request and opening the chat are a single user action, so
// there is no accept/reject gate. The remaining states are reserved so
// a handshake can be added without a schema migration.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Closed option sets for profile attributes. Matching relies on exact,
// case-sensitive equality of these strings, so free-form input is
// rejected at the boundary.
var (
	Cities = []string{"大田原市", "那須塩原市", "那須町", "その他"}

	Statuses = []string{"転勤族", "移住者", "地元出身", "学生", "リモートワーカー"}

	ChildAges = []string{"子供なし", "0-2歳児ママ/パパ", "3-5歳児ママ/パパ", "小学生ママ/パパ", "中高生ママ/パパ"}
)

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func ValidCity(v string) bool     { return contains(Cities, v) }
func ValidStatus(v string) bool   { return contains(Statuses, v) }
func ValidChildAge(v string) bool { return contains(ChildAges, v) }

// Profile holds a user's self-reported matching attributes. The user id
// is issued by the external identity provider and is the primary key;
// profiles are only ever written by their own owner.
type Profile struct {
	UserID      string    `gorm:"primaryKey;size:128"`
	Name        string    `gorm:"size:64"`
	City        string    `gorm:"size:32"`
	Status      string    `gorm:"size:32"`
	ChildAge    string    `gorm:"size:32"`
	LastUpdated time.Time `gorm:"autoUpdateTime"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Connections []ConnectionRequest `gorm:"foreignKey:InitiatorID;references:UserID"`
}

// Complete reports whether the profile can participate in matching.
// Incomplete profiles are excluded both as viewer and as candidate.
func (p Profile) Complete() bool {
	return p.City != "" && p.Status != "" && p.ChildAge != ""
}

// DisplayName returns the stored name, or an anonymous label derived
// from the user id when none was set.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return AnonymousName(p.UserID)
}

// AnonymousName builds the generated display label for a user id:
// "匿名ユーザー" plus the first four characters of the id.
func AnonymousName(userID string) string {
	suffix := "xxxx"
	if len(userID) >= 4 {
		suffix = userID[:4]
	} else if userID != "" {
		suffix = userID
	}
	return "匿名ユーザー" + suffix
}

// ConnectionRequest records one user expressing interest in chatting
// with another.
//
// Composite unique key (InitiatorID, TargetID):
//   - Repeating a request for the same target is a no-op rather than a
//     second row, so the ledger holds current state per target instead
//     of an unbounded audit trail.
//
// Timestamps:
//   - RequestedAt is the client's clock at the moment of the request.
//     Display/audit only; nothing orders by it.
//   - CreatedAt is server-assigned.
type ConnectionRequest struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	InitiatorID string    `gorm:"size:128;not null;uniqueIndex:idx_initiator_target,priority:1"`
	TargetID    string    `gorm:"size:128;not null;uniqueIndex:idx_initiator_target,priority:2;index"`
	Status      string    `gorm:"size:16;not null;default:pending"`
	RequestedAt time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// ChatRoom is the shared container for a two-party conversation. Its id
// is a pure function of the unordered participant pair (sorted ids
// joined by "_"), so both sides resolve the same row without
// coordination and creation is naturally idempotent.
type ChatRoom struct {
	ID           string    `gorm:"primaryKey;size:260"`
	ParticipantA string    `gorm:"size:128;not null;index"`
	ParticipantB string    `gorm:"size:128;not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	Messages []Message `gorm:"foreignKey:RoomID;references:ID"`
}

// Participants returns the two member ids in stored (sorted) order.
func (r ChatRoom) Participants() [2]string {
	return [2]string{r.ParticipantA, r.ParticipantB}
}

// Has reports whether userID is a member of the room.
func (r ChatRoom) Has(userID string) bool {
	return userID == r.ParticipantA || userID == r.ParticipantB
}

// Message is one entry in a room's append-only sequence. CreatedAt is
// server-assigned and is the authoritative display order; client clocks
// are never trusted for message ordering.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	RoomID    string    `gorm:"size:260;not null;index:idx_room_created,priority:1"`
	SenderID  string    `gorm:"size:128;not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_room_created,priority:2"`
}
