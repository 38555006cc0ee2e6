// Package models defines server-side data models persisted in the database.
package models

// User is an account created by the registration handshake.
//
// KeyDigest is the keyed digest of the access key; the key itself is never
// stored.
type User struct {
	ID          string
	DisplayName string
	ExternalID  string
	KeyDigest   string
}
