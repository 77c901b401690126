package models

import "time"

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshTokenStatus is the single explicit state of a refresh token.
// Used and Invalidated are terminal; no token is ever reactivated.
type RefreshTokenStatus string

const (
	RefreshTokenActive      RefreshTokenStatus = "active"
	RefreshTokenUsed        RefreshTokenStatus = "used"
	RefreshTokenInvalidated RefreshTokenStatus = "invalidated"
)

// RefreshToken rows are never deleted; superseded and revoked tokens remain
// as an audit trail until the table TTL removes them.
type RefreshToken struct {
	ID        string             `json:"id" dynamodbav:"id"`
	Token     string             `json:"token" dynamodbav:"token"`
	JTI       string             `json:"jti" dynamodbav:"jti"`
	UserID    string             `json:"user_id" dynamodbav:"user_id"`
	Status    RefreshTokenStatus `json:"status" dynamodbav:"token_status"`
	CreatedAt time.Time          `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt time.Time          `json:"expires_at" dynamodbav:"expires_at"`
}

func (t *RefreshToken) GetPK() string {
	return "REFRESH#" + t.Token
}

func (t *RefreshToken) GetSK() string {
	return "METADATA"
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
