package domain

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID         uuid.UUID  `json:"id"`
	IsGroup    bool       `json:"isGroup"`
	Name       *string    `json:"name,omitempty"`
	GroupImage *string    `json:"groupImage,omitempty"`
	AdminID    *uuid.UUID `json:"admin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	// Joined fields
	Participants  []Participant `json:"participants"`
	LatestMessage *Message      `json:"latestMessage,omitempty"`
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) IsAdmin(userID uuid.UUID) bool {
	return c.AdminID != nil && *c.AdminID == userID
}
