// internal/model/page_view.go
package model

import "time"

const (
    DeviceDesktop = "desktop"
    DeviceMobile  = "mobile"
    DeviceTablet  = "tablet"
)

type PageView struct {
    ID         int64     `db:"id" json:"id"`
    Path       string    `db:"path" json:"path"`
    Referrer   *string   `db:"referrer" json:"referrer,omitempty"`
    UserAgent  string    `db:"user_agent" json:"user_agent"`
    DeviceType string    `db:"device_type" json:"device_type"`
    SessionID  string    `db:"session_id" json:"session_id"`
    CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
