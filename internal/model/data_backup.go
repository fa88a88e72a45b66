// internal/model/data_backup.go
package model

import (
    "encoding/json"
    "time"
)

const (
    OpInsert  = "INSERT"
    OpUpdate  = "UPDATE"
    OpDelete  = "DELETE"
    OpRestore = "RESTORE"
)

// DataBackup is an append-only snapshot of a row change.
type DataBackup struct {
    ID        string          `db:"id" json:"id"`
    TableName string          `db:"table_name" json:"table_name"`
    RecordID  string          `db:"record_id" json:"record_id"`
    Operation string          `db:"operation" json:"operation"`
    OldData   json.RawMessage `db:"old_data" json:"old_data"`
    NewData   json.RawMessage `db:"new_data" json:"new_data"`
    ChangedAt time.Time       `db:"changed_at" json:"changed_at"`
}
