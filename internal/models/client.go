package models

import "time"

// Client is a registered relying-party application. The auth core only reads
// these records; registry management lives elsewhere.
type Client struct {
	ID           string    `json:"id" dynamodbav:"id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Description  string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Domain       string    `json:"domain" dynamodbav:"domain"`
	RedirectURI  string    `json:"redirect_uri" dynamodbav:"redirect_uri"`
	ClientSecret string    `json:"-" dynamodbav:"client_secret"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}

func (c *Client) GetPK() string {
	return "CLIENT#" + c.ID
}

func (c *Client) GetSK() string {
	return "METADATA"
}
