package models

import (
	"strings"
	"time"
)

// List represents a shopping list owned by a single user. Items are embedded
// in the list document and have no identity outside it. SharedWith holds the
// ids of users granted access beyond the owner; the owner is always permitted
// and is not required to appear in it.
type List struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OwnerID        string    `json:"ownerId"`
	Items          []Item    `json:"items"`
	SharedWith     []string  `json:"sharedWith"`
	InvitationCode string    `json:"invitationCode,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Item is a single checkable entry in a list.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// ItemIndex returns the position of the item with the given id, or -1.
func (l *List) ItemIndex(itemID string) int {
	for i, item := range l.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// HasItemNamed reports whether an item with the given name exists in the
// list, compared case-insensitively. An item whose id equals excludeID is
// ignored, so renames don't collide with the item being renamed.
func (l *List) HasItemNamed(name, excludeID string) bool {
	for _, item := range l.Items {
		if item.ID == excludeID {
			continue
		}
		if strings.EqualFold(item.Name, name) {
			return true
		}
	}
	return false
}

// HasMember reports whether userID is already in SharedWith.
func (l *List) HasMember(userID string) bool {
	for _, id := range l.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}
