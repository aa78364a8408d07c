package auditlog

import (
	"context"
	"log/slog"
	"time"
)

type RepositoryAPI interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]*Entry, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record appends an audit entry. Audit writes never fail the operation
// being audited: failures are logged and swallowed.
func (s *Service) Record(ctx context.Context, actorID int64, actorName, action, entityType string, entityID int64, detail string) {
	entry := &Entry{
		ActorID:    actorID,
		ActorName:  actorName,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err)
	}
}

// List returns audit entries, newest first, optionally scoped to one
// entity.
func (s *Service) List(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]*Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, entityType, entityID, limit, offset)
}
