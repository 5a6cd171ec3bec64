// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns the storage layer queries.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table        string
	ID           string
	Username     string
	Email        string
	FullName     string
	Password     string
	AvatarURL    string
	CoverURL     string
	RefreshToken string
	CreatedAt    string
	UpdatedAt    string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:        "users.account",
	ID:           "id",
	Username:     "username",
	Email:        "email",
	FullName:     "fullname",
	Password:     "passwordhash",
	AvatarURL:    "avatarurl",
	CoverURL:     "coverimageurl",
	RefreshToken: "refreshtoken",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// Columns returns every column in the order the repository scans them.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.FullName, t.Password,
		t.AvatarURL, t.CoverURL, t.RefreshToken, t.CreatedAt, t.UpdatedAt,
	}
}
