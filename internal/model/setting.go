// internal/model/setting.go
package model

import "time"

const (
    SettingText = "text"
    SettingJSON = "json"
)

type Setting struct {
    ID        string     `db:"id" json:"id"`
    Key       string     `db:"key" json:"key"`
    ValueTR   *string    `db:"value_tr" json:"value_tr"`
    ValueEN   *string    `db:"value_en" json:"value_en"`
    Type      string     `db:"type" json:"type"`
    CreatedAt time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
    DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
