// Package models holds the records persisted by the directory server.
package models

import "github.com/dmitrijs2005/userdir/internal/timex"

// Account is a registered user: identity, credential and profile.
//
// Status is the presence flag: false is offline, true is online.
// Password is stored as given and never leaves the server.
type Account struct {
	ID           int64
	Username     string
	Password     string
	Status       bool
	CreationDate timex.Date
	Birthday     *timex.Date
	Token        string
}

// Presence names for Status.
const (
	Offline = false
	Online  = true
)

// Clone returns a deep copy, so stores can hand out records without sharing
// the Birthday pointer.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Birthday != nil {
		b := *a.Birthday
		c.Birthday = &b
	}
	return &c
}

// TogglePresence flips Status between offline and online.
func (a *Account) TogglePresence() {
	a.Status = !a.Status
}

// PresenceString is the human-readable presence.
func (a *Account) PresenceString() string {
	if a.Status == Online {
		return "online"
	}
	return "offline"
}
