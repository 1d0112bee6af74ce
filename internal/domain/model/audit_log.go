package model

import (
	"time"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Actor     string    `gorm:"not null;size:100;index" json:"actor"`
	Action    string    `gorm:"not null;size:100;index:idx_audit_log_table_action,priority:2" json:"action"`
	Table     string    `gorm:"column:table_name;not null;size:100;index:idx_audit_log_table_action,priority:1" json:"table_name"`
	RecordID  *int64    `gorm:"index" json:"record_id,omitempty"`
	OldValues JSONB     `gorm:"type:jsonb" json:"old_values,omitempty"`
	NewValues JSONB     `gorm:"type:jsonb" json:"new_values,omitempty"`
	Metadata  JSONB     `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt time.Time `gorm:"default:now();index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "audit_log"
}
