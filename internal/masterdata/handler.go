package masterdata

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal/transport"
)

type ServiceAPI interface {
	GetProjects(ctx context.Context) ([]*Project, error)
	CreateProject(ctx context.Context, dto CreateProjectDTO) (*Project, error)
	GetSites(ctx context.Context) ([]*Site, error)
	CreateSite(ctx context.Context, dto CreateSiteDTO) (*Site, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.GetProjects(r.Context())
	if err != nil {
		h.Logger.Error("GetProjects: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get projects")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var dto CreateProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.CreateProject(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateProject: service error", "error", err)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.Service.GetSites(r.Context())
	if err != nil {
		h.Logger.Error("GetSites: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get sites")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"sites": sites})
}

func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var dto CreateSiteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	site, err := h.Service.CreateSite(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateSite: service error", "error", err)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.WriteJSON(w, http.StatusCreated, site)
}
