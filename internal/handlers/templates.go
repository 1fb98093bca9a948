package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/akmatori/snowbridge/internal/alerts"
	"github.com/akmatori/snowbridge/internal/api"
	"github.com/akmatori/snowbridge/internal/middleware"
	"github.com/akmatori/snowbridge/internal/templates"
)

// TemplatesHandler serves the ticket template admin API
type TemplatesHandler struct {
	store  templates.Store
	groups map[alerts.Category]map[alerts.SubtypeGroup]bool
}

// NewTemplatesHandler creates the admin API handler. Only (category, group)
// pairs present in rules can be edited.
func NewTemplatesHandler(store templates.Store, rules []alerts.SubtypeRule) *TemplatesHandler {
	groups := make(map[alerts.Category]map[alerts.SubtypeGroup]bool)
	for _, rule := range rules {
		if groups[rule.Category] == nil {
			groups[rule.Category] = make(map[alerts.SubtypeGroup]bool)
		}
		groups[rule.Category][rule.Group] = true
	}
	return &TemplatesHandler{store: store, groups: groups}
}

// SetupRoutes registers the template routes behind JWT authentication
func (h *TemplatesHandler) SetupRoutes(mux *http.ServeMux, auth *middleware.JWTAuthMiddleware) {
	mux.Handle("GET /api/templates", auth.Wrap(http.HandlerFunc(h.handleList)))
	mux.Handle("PUT /api/templates/{category}/{group}/{issue_key}", auth.Wrap(http.HandlerFunc(h.handlePut)))
	mux.Handle("DELETE /api/templates/{category}/{group}/{issue_key}", auth.Wrap(http.HandlerFunc(h.handleDelete)))
}

func (h *TemplatesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		log.Printf("TemplatesHandler: failed to list templates: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	resp := make([]api.TemplateResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, api.ToTemplateResponse(e))
	}
	api.RespondJSON(w, http.StatusOK, resp)
}

func (h *TemplatesHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}

	var req api.TemplateRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := req.Validate(); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}

	tmpl := req.Template()
	if err := h.store.Put(r.Context(), key, tmpl); err != nil {
		h.respondStoreError(w, key, err)
		return
	}

	log.Printf("TemplatesHandler: %s saved template %s", middleware.GetUserFromContext(r.Context()), key)
	api.RespondJSON(w, http.StatusOK, api.ToTemplateResponse(templates.Entry{Key: key, Template: tmpl}))
}

func (h *TemplatesHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), key); err != nil {
		h.respondStoreError(w, key, err)
		return
	}

	log.Printf("TemplatesHandler: %s deleted template %s", middleware.GetUserFromContext(r.Context()), key)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TemplatesHandler) pathKey(w http.ResponseWriter, r *http.Request) (templates.Key, bool) {
	key := templates.Key{
		Category: alerts.Category(r.PathValue("category")),
		Group:    alerts.SubtypeGroup(r.PathValue("group")),
		IssueKey: r.PathValue("issue_key"),
	}

	if !h.groups[key.Category][key.Group] {
		api.RespondError(w, http.StatusNotFound, "Unknown category or subtype group")
		return key, false
	}
	return key, true
}

func (h *TemplatesHandler) respondStoreError(w http.ResponseWriter, key templates.Key, err error) {
	switch {
	case errors.Is(err, templates.ErrReadOnly):
		api.RespondError(w, http.StatusConflict, "Templates are read from files; edit the configuration directory instead")
	case errors.Is(err, templates.ErrTemplateNotFound):
		api.RespondError(w, http.StatusNotFound, "Template not found")
	default:
		log.Printf("TemplatesHandler: store error for %s: %v", key, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to update template")
	}
}
