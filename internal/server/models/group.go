package models

type Group struct {
	ID      int64
	Name    string
	OwnerID string
	// OwnerName is filled by queries that join users.
	OwnerName string
}

// Member is one row of a group's membership joined with the user's name.
type Member struct {
	UserID      string
	DisplayName string
}
