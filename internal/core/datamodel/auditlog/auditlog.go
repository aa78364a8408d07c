package auditlog

import "time"

// AuditLogItem records administrative and bulk actions outside an expense's
// own history (priority toggles, soft deletes, config edits).
type AuditLogItem struct {
	ID         int64     `gorm:"primaryKey"`
	ActorID    int64     `gorm:"column:actor_id;not null;index"`
	ActorName  string    `gorm:"column:actor_name"`
	Action     string    `gorm:"column:action;not null;index"`
	EntityType string    `gorm:"column:entity_type;not null"`
	EntityID   int64     `gorm:"column:entity_id;index"`
	Detail     string    `gorm:"column:detail"`
	CreatedAt  time.Time `gorm:"column:created_at;index"`
}

func (AuditLogItem) TableName() string {
	return "audit_logs"
}
