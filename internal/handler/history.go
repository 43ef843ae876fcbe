package handler

import (
	"net/http"
	"strconv"

	"github.com/geotrace/geotrace-go/internal/ipaddr"
	"github.com/geotrace/geotrace-go/internal/middleware"
	"github.com/geotrace/geotrace-go/internal/model"
	"github.com/geotrace/geotrace-go/internal/service"
)

// HistoryHandler handles HTTP requests for the lookup history.
type HistoryHandler struct {
	service *service.HistoryService
	resp    *Responder
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc *service.HistoryService, resp *Responder) *HistoryHandler {
	return &HistoryHandler{service: svc, resp: resp}
}

// HandleSearch handles POST /history/search.
func (h *HistoryHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.resp.Error(w, r, errUnauthorized)
		return
	}

	var req model.LookupRequest
	if !h.resp.decode(w, r, &req) {
		return
	}

	ip, ok := ipaddr.Normalize(req.IP)
	if !ok {
		h.resp.Error(w, r, errInvalidIP)
		return
	}

	geo := h.service.SearchAndRecord(r.Context(), id.ID, ip)
	writeJSON(w, http.StatusOK, model.GeoResponse{Geo: geo})
}

// HandleList handles GET /history?limit=N. A missing or unparsable limit
// means the default page size.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.resp.Error(w, r, errUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.service.ListByUser(r.Context(), id.ID, limit)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if items == nil {
		items = []model.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, model.HistoryListResponse{Items: items})
}

// HandleDelete handles DELETE /history.
func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.resp.Error(w, r, errUnauthorized)
		return
	}

	var req model.DeleteHistoryRequest
	if !h.resp.decode(w, r, &req) {
		return
	}

	n, err := h.service.DeleteMany(r.Context(), id.ID, req.IDs)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteHistoryResponse{Deleted: n})
}
