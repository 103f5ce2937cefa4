package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hpungsan/slidecraft/internal/ops"
)

// HandleListTemplates handles GET /api/templates and GET /api/admin/templates.
func (h *Handlers) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := ops.ListTemplates(r.Context(), h.env, callerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, templates)
}

// HandleCreateTemplate handles POST /api/admin/templates.
func (h *Handlers) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var input ops.CreateTemplateInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := ops.CreateTemplate(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, t)
}

// HandleUpdateTemplate handles PUT /api/admin/templates/{id}.
func (h *Handlers) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var input ops.UpdateTemplateInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.ID = mux.Vars(r)["id"]
	t, err := ops.UpdateTemplate(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, t)
}

// HandleDeleteTemplate handles DELETE /api/admin/templates/{id}.
func (h *Handlers) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := ops.DeleteTemplate(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetTemplatePreview handles PUT /api/admin/templates/{id}/preview.
// The body names an already uploaded image: {"preview_image": "/uploads/..."}.
func (h *Handlers) HandleSetTemplatePreview(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PreviewImage string `json:"preview_image"`
	}
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := ops.SetTemplatePreview(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"], input.PreviewImage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, t)
}

// HandleListUsers handles GET /api/admin/users.
func (h *Handlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := ops.ListUsers(r.Context(), h.env, callerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, users)
}

// HandleSetAdmin handles PUT /api/admin/users/{id}.
func (h *Handlers) HandleSetAdmin(w http.ResponseWriter, r *http.Request) {
	var input ops.SetAdminInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.UserID = mux.Vars(r)["id"]
	u, err := ops.SetAdmin(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, u)
}

// HandleListPrompts handles GET /api/admin/prompts.
func (h *Handlers) HandleListPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := ops.ListPrompts(r.Context(), h.env, callerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, prompts)
}

// HandleUpdatePrompt handles PUT /api/admin/prompts/{name}.
func (h *Handlers) HandleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var input ops.UpdatePromptInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.Name = mux.Vars(r)["name"]
	p, err := ops.UpdatePrompt(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}
