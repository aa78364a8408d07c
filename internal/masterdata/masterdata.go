package masterdata

import (
	"errors"
	"time"

	masterdataDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/masterdata"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrSiteNotFound    = errors.New("site not found")
)

type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Site struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ProjectFromDataModel(dm *masterdataDatamodel.Project) *Project {
	return &Project{
		ID:        dm.ID,
		Name:      dm.Name,
		Code:      dm.Code,
		IsActive:  dm.IsActive,
		CreatedAt: dm.CreatedAt,
		UpdatedAt: dm.UpdatedAt,
	}
}

func ProjectToDataModel(p *Project) *masterdataDatamodel.Project {
	return &masterdataDatamodel.Project{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func SiteFromDataModel(dm *masterdataDatamodel.Site) *Site {
	return &Site{
		ID:        dm.ID,
		Name:      dm.Name,
		Code:      dm.Code,
		IsActive:  dm.IsActive,
		CreatedAt: dm.CreatedAt,
		UpdatedAt: dm.UpdatedAt,
	}
}

func SiteToDataModel(s *Site) *masterdataDatamodel.Site {
	return &masterdataDatamodel.Site{
		ID:        s.ID,
		Name:      s.Name,
		Code:      s.Code,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
