package domain

import "time"

// Book is a catalog entry managed by a librarian. The catalog is a
// plain create/read/update surface; no lifecycle rules apply here.
type Book struct {
	ID             string
	Name           string
	Author         string
	LibrarianEmail string
	PriceCents     int64
	CoverURL       string
	Description    string
	CreatedAt      time.Time
}

// User is an account record. Role defaults to "user" at creation;
// librarians are promoted through the user update endpoint.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}
