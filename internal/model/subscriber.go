// internal/model/subscriber.go
package model

import "time"

const (
    SubscriberActive       = "active"
    SubscriberUnsubscribed = "unsubscribed"
)

type Subscriber struct {
    ID             string     `db:"id" json:"id"`
    Email          string     `db:"email" json:"email"`
    Name           *string    `db:"name" json:"name,omitempty"`
    Status         string     `db:"status" json:"status"`
    UnsubscribedAt *time.Time `db:"unsubscribed_at" json:"unsubscribed_at,omitempty"`
    CreatedAt      time.Time  `db:"created_at" json:"created_at"`
    DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// DisplayName falls back to the local part of the address.
func (s *Subscriber) DisplayName() string {
    if s.Name != nil && *s.Name != "" {
        return *s.Name
    }
    for i := 0; i < len(s.Email); i++ {
        if s.Email[i] == '@' {
            return s.Email[:i]
        }
    }
    return s.Email
}
