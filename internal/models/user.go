package models

import (
	"time"
)

type Role string

const (
	RoleUser   Role = "User"
	RoleEditor Role = "Editor"
	RoleAdmin  Role = "Admin"
)

type User struct {
	ID           string    `json:"id" dynamodbav:"id"`
	Email        string    `json:"email" dynamodbav:"email"`
	Name         string    `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Role         Role      `json:"role" dynamodbav:"role"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (u *User) GetPK() string {
	return "USER#" + u.Email
}

func (u *User) GetSK() string {
	return "METADATA"
}
