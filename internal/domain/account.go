package domain

import "time"

const RoleUser = "user"
const RoleAdmin = "admin"

// Account is the identity record for a tenant-portal user.
// Email is the logical lookup key, matched exactly as submitted. The accounts
// table carries no uniqueness constraint on it (lookup is a GSI query), so
// duplicate emails are possible under concurrent sign-ups.
type Account struct {
	AccountID        string    `json:"id" dynamodbav:"account_id"`
	Email            string    `json:"email" dynamodbav:"email"`
	CredentialSecret string    `json:"-" dynamodbav:"credential_secret"`
	Role             string    `json:"role" dynamodbav:"role"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
}
