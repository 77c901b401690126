package models

import "time"

type OtpCode struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"code" dynamodbav:"code"`
	Used      bool      `json:"used" dynamodbav:"used"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

// One OTP record per email: a fresh PutItem atomically supersedes whatever
// code was active before.
func (o *OtpCode) GetPK() string {
	return "OTP#" + o.Email
}

func (o *OtpCode) GetSK() string {
	return "METADATA"
}

func (o *OtpCode) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
