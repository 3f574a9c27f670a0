package model

import "strings"

// User is an identity record. Users own accounts and may manage branches.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	SSN       string
	Email     string
	Phone     string
}

// FullName returns "First Last", or whichever part is set.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Branch is a physical bank location.
type Branch struct {
	ID        int64
	Name      string
	State     string
	Address   string
	ZipCode   string
	ManagerID *int64
}
