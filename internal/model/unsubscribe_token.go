// internal/model/unsubscribe_token.go
package model

import "time"

type UnsubscribeToken struct {
    ID           string     `db:"id" json:"id"`
    SubscriberID string     `db:"subscriber_id" json:"subscriber_id"`
    Token        string     `db:"token" json:"-"`
    UsedAt       *time.Time `db:"used_at" json:"used_at,omitempty"`
    CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
