package handlers

import (
	"errors"
	"net/http"

	apperrors "github.com/juancollazo-ch/woo-fluxc-service/internal/errors"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	sitesync "github.com/juancollazo-ch/woo-fluxc-service/internal/sync"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CreateSiteRequest registra un sitio; las credenciales no se devuelven nunca
type CreateSiteRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Name     string `json:"name"`
	Origin   string `json:"origin" validate:"required,oneof=WPCOM APPLICATION_PASSWORD"`
	SiteID   int64  `json:"site_id" validate:"gte=0"`
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

type SyncResponse struct {
	sitesync.Summary
	Errors []string `json:"errors,omitempty"`
}

type DeleteSiteResponse struct {
	LocalSiteID int   `json:"local_site_id"`
	RowsDeleted int64 `json:"rows_deleted"`
}

func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req CreateSiteRequest
	if !h.decode(w, r, &req) || !h.validate(w, r, &req) {
		return
	}

	st, err := h.deps.Sites.Insert(r.Context(), site.Site{
		SiteID:   req.SiteID,
		URL:      req.URL,
		Name:     req.Name,
		Origin:   site.Origin(req.Origin),
		Username: req.Username,
		Password: req.Password,
		Token:    req.Token,
	})
	if errors.Is(err, site.ErrInvalidSite) {
		h.writeError(w, r, apperrors.ErrValidation(err.Error(), err))
		return
	}
	if err != nil {
		h.writeError(w, r, apperrors.ErrInternalServer("failed to store site", err))
		return
	}

	logging.FromContext(r.Context(), h.logger).Info("Site registered",
		zap.Int("local_site_id", st.LocalID), zap.String("origin", string(st.Origin)))
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.deps.Sites.List(r.Context())
	if err != nil {
		h.writeError(w, r, apperrors.ErrInternalServer("failed to list sites", err))
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (h *Handler) GetSite(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, siteFrom(r))
}

// DeleteSite borra las filas de dominio del sitio y luego el sitio
func (h *Handler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	st := siteFrom(r)
	rows, err := sitesync.PurgeSite(r.Context(), st.LocalID, h.deps.SiteData...)
	if err != nil {
		h.writeError(w, r, apperrors.ErrInternalServer("failed to delete site data", err).
			WithMetadata("failures", len(multierr.Errors(err))))
		return
	}
	if err := h.deps.Sites.Delete(r.Context(), st.LocalID); err != nil {
		h.writeError(w, r, apperrors.ErrInternalServer("failed to delete site", err))
		return
	}

	logging.FromContext(r.Context(), h.logger).Info("Site deleted", zap.Int64("rows_deleted", rows))
	writeJSON(w, http.StatusOK, DeleteSiteResponse{LocalSiteID: st.LocalID, RowsDeleted: rows})
}

// SyncSite responde 200 con el resumen aunque algún paso falle; los fallos van en errors
func (h *Handler) SyncSite(w http.ResponseWriter, r *http.Request) {
	summary, err := h.deps.Syncer.SyncSite(r.Context(), siteFrom(r))

	resp := SyncResponse{Summary: summary}
	for _, e := range multierr.Errors(err) {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}
