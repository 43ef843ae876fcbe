package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/geotrace/geotrace-go/internal/apperror"
	"github.com/geotrace/geotrace-go/internal/ipaddr"
	"github.com/geotrace/geotrace-go/internal/model"
	"github.com/geotrace/geotrace-go/internal/service"
)

var errInvalidIP = apperror.Validation("INVALID_IP", "invalid ip address")

// GeoHandler serves direct lookups that are not recorded in history.
type GeoHandler struct {
	geo  service.GeoResolver
	resp *Responder
}

// NewGeoHandler creates a new GeoHandler.
func NewGeoHandler(geo service.GeoResolver, resp *Responder) *GeoHandler {
	return &GeoHandler{geo: geo, resp: resp}
}

// HandleSelf handles GET /geo/self. A caller whose address cannot be
// determined gets "geo": null.
func (h *GeoHandler) HandleSelf(w http.ResponseWriter, r *http.Request) {
	var snap *model.GeoSnapshot
	if ip, ok := ipaddr.ClientIP(r); ok {
		snap = h.geo.Resolve(r.Context(), ip)
	}
	writeJSON(w, http.StatusOK, model.GeoResponse{Geo: snap})
}

// HandleByIP handles GET /geo/{ip}.
func (h *GeoHandler) HandleByIP(w http.ResponseWriter, r *http.Request) {
	// chi matches against RawPath when it is set, leaving escapes in the param.
	raw := chi.URLParam(r, "ip")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(raw)
		if err != nil {
			h.resp.Error(w, r, errInvalidIP)
			return
		}
		raw = unescaped
	}

	ip, ok := ipaddr.Normalize(raw)
	if !ok {
		h.resp.Error(w, r, errInvalidIP)
		return
	}

	writeJSON(w, http.StatusOK, model.GeoResponse{Geo: h.geo.Resolve(r.Context(), ip)})
}
