package model

import "time"

// User owns every canonical record. ID is the identifier issued by the
// external identity provider.
type User struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
}

// SyncToken authenticates push syncs from a spreadsheet script.
type SyncToken struct {
	CreatedAt  time.Time  `json:"createdAt"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	UserID     string     `json:"userId"`
	Token      string     `json:"token"`
	Label      string     `json:"label"`
	ID         int64      `json:"id"`
	IsActive   bool       `json:"isActive"`
}

// UserSheet is a spreadsheet connected for pull syncs.
type UserSheet struct {
	CreatedAt  time.Time  `json:"createdAt"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	UserID     string     `json:"userId"`
	SheetID    string     `json:"sheetId"`
	SheetURL   string     `json:"sheetUrl"`
	Title      string     `json:"title"`
	IsActive   bool       `json:"isActive"`
}
