package models

import "time"

type RelationStatus string

const (
	RelationPending  RelationStatus = "pending"
	RelationAccepted RelationStatus = "accepted"
	RelationDeclined RelationStatus = "declined"
	RelationBlocked  RelationStatus = "blocked"
)

// Follow is a directed user -> organization relation.
type Follow struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	FollowerID     string         `gorm:"not null;size:64;uniqueIndex:idx_follows_pair" json:"follower_id"`
	OrganizationID string         `gorm:"not null;size:64;uniqueIndex:idx_follows_pair;index" json:"organization_id"`
	Status         RelationStatus `gorm:"type:varchar(20);not null;default:'accepted'" json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Connection is a friendship between two users. Either side may request it;
// once accepted both are connected.
type Connection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RequesterID string         `gorm:"not null;size:64;uniqueIndex:idx_connections_pair" json:"requester_id"`
	RecipientID string         `gorm:"not null;size:64;uniqueIndex:idx_connections_pair;index" json:"recipient_id"`
	Status      RelationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Involves reports whether userID is either side of the connection.
func (c *Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}

// Other returns the counterpart of userID.
func (c *Connection) Other(userID string) string {
	if c.RequesterID == userID {
		return c.RecipientID
	}
	return c.RequesterID
}

type SeveranceKind string

const (
	SeveredFollow     SeveranceKind = "follow"
	SeveredConnection SeveranceKind = "connection"
)

// RelationSevered is published when a follow or connection stops granting
// visibility. OwnerID is the party that removed RemovedID.
type RelationSevered struct {
	MessageID string        `json:"message_id"`
	Kind      SeveranceKind `json:"kind"`
	OwnerID   string        `json:"owner_id"`
	RemovedID string        `json:"removed_id"`
	SeveredAt time.Time     `json:"severed_at"`
}

// SocialSnapshot is the requester's side of the social graph at lookup time.
type SocialSnapshot struct {
	UserID        string   `json:"user_id"`
	ConnectionIDs []string `json:"connection_ids"`
	FollowingIDs  []string `json:"following_ids"`
}
