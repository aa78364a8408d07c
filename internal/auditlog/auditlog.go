package auditlog

import (
	"time"

	auditlogDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/auditlog"
)

// Entry is one recorded administrative or workflow-adjacent action.
// Entries are append-only; there is no update or delete path.
type Entry struct {
	ID         int64     `json:"id"`
	ActorID    int64     `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromDataModel(dm *auditlogDatamodel.AuditLogItem) *Entry {
	return &Entry{
		ID:         dm.ID,
		ActorID:    dm.ActorID,
		ActorName:  dm.ActorName,
		Action:     dm.Action,
		EntityType: dm.EntityType,
		EntityID:   dm.EntityID,
		Detail:     dm.Detail,
		CreatedAt:  dm.CreatedAt,
	}
}

func ToDataModel(e *Entry) *auditlogDatamodel.AuditLogItem {
	return &auditlogDatamodel.AuditLogItem{
		ID:         e.ID,
		ActorID:    e.ActorID,
		ActorName:  e.ActorName,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt,
	}
}
