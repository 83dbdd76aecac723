// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipStatus is the explicit state of a user's relationship to a team.
// Transitions: Invited -> Member (accept), Invited -> Removed (revoke),
// Member -> Removed (remove). Removed is terminal except re-invite.
type MembershipStatus string

const (
	MembershipInvited MembershipStatus = "invited"
	MembershipMember  MembershipStatus = "member"
	MembershipRemoved MembershipStatus = "removed"
)

// Valid reports whether s is one of the defined membership states.
func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipInvited, MembershipMember, MembershipRemoved:
		return true
	}
	return false
}

// CanTransitionTo reports whether a membership in state s may move to next.
func (s MembershipStatus) CanTransitionTo(next MembershipStatus) bool {
	switch s {
	case MembershipInvited:
		return next == MembershipMember || next == MembershipRemoved
	case MembershipMember:
		return next == MembershipRemoved
	case MembershipRemoved:
		return next == MembershipInvited
	}
	return false
}

// TeamMembership is one user's row in a team. The resolver's member-id set
// contains only memberships in the Member state.
type TeamMembership struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID primitive.ObjectID `bson:"team_id" json:"team_id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	Status MembershipStatus `bson:"status" json:"status"`

	InvitedAt time.Time  `bson:"invited_at" json:"invited_at"`
	JoinedAt  *time.Time `bson:"joined_at,omitempty" json:"joined_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
