package masterdata

import (
	"context"
	"log/slog"
)

type RepositoryAPI interface {
	GetProjects(ctx context.Context) ([]*Project, error)
	CreateProject(ctx context.Context, p *Project) error
	ProjectExists(ctx context.Context, id int64) (bool, error)
	GetSites(ctx context.Context) ([]*Site, error)
	CreateSite(ctx context.Context, s *Site) error
	SiteExists(ctx context.Context, id int64) (bool, error)
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

func (s *Service) GetProjects(ctx context.Context) ([]*Project, error) {
	return s.repo.GetProjects(ctx)
}

func (s *Service) CreateProject(ctx context.Context, dto CreateProjectDTO) (*Project, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p := &Project{Name: dto.Name, Code: dto.Code, IsActive: true}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		s.logger.Error("failed to create project", "code", dto.Code, "error", err)
		return nil, err
	}

	s.logger.Info("project created", "project_id", p.ID, "code", p.Code)
	return p, nil
}

func (s *Service) GetSites(ctx context.Context) ([]*Site, error) {
	return s.repo.GetSites(ctx)
}

func (s *Service) CreateSite(ctx context.Context, dto CreateSiteDTO) (*Site, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	site := &Site{Name: dto.Name, Code: dto.Code, IsActive: true}
	if err := s.repo.CreateSite(ctx, site); err != nil {
		s.logger.Error("failed to create site", "code", dto.Code, "error", err)
		return nil, err
	}

	s.logger.Info("site created", "site_id", site.ID, "code", site.Code)
	return site, nil
}

// ProjectExists reports whether an active project with the id exists; it
// satisfies the expense service's master data checks.
func (s *Service) ProjectExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.ProjectExists(ctx, id)
}

func (s *Service) SiteExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.SiteExists(ctx, id)
}
