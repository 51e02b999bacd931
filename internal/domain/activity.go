package domain

import "time"

// Activity is an append-only audit record of a user action (room viewed,
// phone revealed, listing shared). Written best-effort; never read back by
// this service.
type Activity struct {
	ActivityID string    `json:"id" dynamodbav:"activity_id"`
	AccountID  string    `json:"account_id" dynamodbav:"account_id"`
	Action     string    `json:"action" dynamodbav:"action"`
	Details    string    `json:"details" dynamodbav:"details"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}
