// Package models holds the client-side view of server data.
package models

import (
	"fmt"

	"github.com/dmitrijs2005/userdir/internal/timex"
)

// Account is an account as the REST API returns it.
type Account struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Status       bool        `json:"status"`
	CreationDate timex.Date  `json:"creationDate"`
	Birthday     *timex.Date `json:"birthday"`
	Token        string      `json:"token"`
}

// Presence renders Status as "online" or "offline".
func (a Account) Presence() string {
	if a.Status {
		return "online"
	}
	return "offline"
}

func (a Account) String() string {
	birthday := "-"
	if a.Birthday != nil {
		birthday = a.Birthday.String()
	}
	return fmt.Sprintf("%d\t%s\t%s\tcreated %s\tbirthday %s", a.ID, a.Username, a.Presence(), a.CreationDate, birthday)
}
