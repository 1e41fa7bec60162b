package models

import "time"

// Link is one shared URL owned by a user. A deleted link stays in the table
// as a tombstone so lagging clients can learn about the removal through an
// incremental sync.
type Link struct {
	Sha       string
	UserID    string
	URL       string
	Deleted   bool
	UpdatedAt time.Time
}
