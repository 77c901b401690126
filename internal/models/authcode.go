package models

import "time"

// AuthorizationCode is the short-lived single-use code issued to a client's
// redirect target during delegated login, later exchanged server-to-server
// for a real token pair.
type AuthorizationCode struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Code        string    `json:"code" dynamodbav:"code"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	ClientID    string    `json:"client_id" dynamodbav:"client_id"`
	RedirectURI string    `json:"redirect_uri" dynamodbav:"redirect_uri"`
	Used        bool      `json:"used" dynamodbav:"used"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt   time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

func (a *AuthorizationCode) GetPK() string {
	return "AUTHCODE#" + a.Code
}

func (a *AuthorizationCode) GetSK() string {
	return "METADATA"
}

func (a *AuthorizationCode) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
