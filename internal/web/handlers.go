package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/logging"
	"github.com/hpungsan/slidecraft/internal/ops"
)

// Handlers contains HTTP route handlers for the API.
type Handlers struct {
	env    *ops.Env
	logger logging.Logger
}

// fail renders err for the current request.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	renderError(w, r, h.logger, err)
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.env.DB.PingContext(r.Context()); err != nil {
		h.fail(w, r, errors.NewInternal(err))
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.fail(w, r, errors.NewNotFound("route", r.URL.Path))
}

func (h *Handlers) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusMethodNotAllowed, map[string]any{
		"error": map[string]any{
			"code":    "METHOD_NOT_ALLOWED",
			"message": r.Method + " is not allowed on " + r.URL.Path,
			"status":  http.StatusMethodNotAllowed,
		},
	})
}

// HandleRegister handles POST /api/register.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var input ops.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := ops.Register(r.Context(), h.env, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, u)
}

// HandleLogin handles POST /api/login.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input ops.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := ops.Login(r.Context(), h.env, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleListDecks handles GET /api/presentations.
func (h *Handlers) HandleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := ops.ListDecks(r.Context(), h.env, callerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, decks)
}

// HandleCreateDeck handles POST /api/presentations.
func (h *Handlers) HandleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var input ops.CreateDeckInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := ops.CreateDeck(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, d)
}

// HandleGenerateDeck handles POST /api/presentations/generate-ai.
func (h *Handlers) HandleGenerateDeck(w http.ResponseWriter, r *http.Request) {
	var input ops.GenerateDeckInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := ops.GenerateDeck(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// HandleCreateFromTemplate handles POST /api/presentations/from-template.
func (h *Handlers) HandleCreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TemplateID string `json:"template_id"`
	}
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := ops.CreateFromTemplate(r.Context(), h.env, callerFrom(r), input.TemplateID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, d)
}

// HandleGetDeck handles GET /api/presentations/{id}.
func (h *Handlers) HandleGetDeck(w http.ResponseWriter, r *http.Request) {
	d, err := ops.GetDeck(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, d)
}

// HandleUpdateDeck handles PUT /api/presentations/{id}.
func (h *Handlers) HandleUpdateDeck(w http.ResponseWriter, r *http.Request) {
	var input ops.UpdateDeckInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.ID = mux.Vars(r)["id"]
	d, err := ops.UpdateDeck(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, d)
}

// HandleDeleteDeck handles DELETE /api/presentations/{id}.
func (h *Handlers) HandleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := ops.DeleteDeck(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExportDeck handles GET /api/presentations/{id}/export?format=pptx|pdf.
func (h *Handlers) HandleExportDeck(w http.ResponseWriter, r *http.Request) {
	f, err := ops.ExportDeck(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"], r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderFile(w, f.Data, f.FileName, f.ContentType)
}

// HandleAddSlide handles POST /api/presentations/{id}/slides.
func (h *Handlers) HandleAddSlide(w http.ResponseWriter, r *http.Request) {
	s, err := ops.AddSlide(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, s)
}

// HandleReorderSlides handles PUT /api/presentations/{id}/slides/reorder.
func (h *Handlers) HandleReorderSlides(w http.ResponseWriter, r *http.Request) {
	var input ops.ReorderSlidesInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.DeckID = mux.Vars(r)["id"]
	if err := ops.ReorderSlides(r.Context(), h.env, callerFrom(r), input); err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"reordered": len(input.SlideIDs)})
}

// HandleGetSlide handles GET /api/slides/{id}.
func (h *Handlers) HandleGetSlide(w http.ResponseWriter, r *http.Request) {
	s, err := ops.GetSlide(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, s)
}

// HandleUpdateSlide handles PUT /api/slides/{id}.
func (h *Handlers) HandleUpdateSlide(w http.ResponseWriter, r *http.Request) {
	var input ops.UpdateSlideInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.ID = mux.Vars(r)["id"]
	s, err := ops.UpdateSlide(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, s)
}

// HandleDeleteSlide handles DELETE /api/slides/{id}.
func (h *Handlers) HandleDeleteSlide(w http.ResponseWriter, r *http.Request) {
	if err := ops.DeleteSlide(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddElement handles POST /api/slides/{id}/elements.
func (h *Handlers) HandleAddElement(w http.ResponseWriter, r *http.Request) {
	var input ops.AddElementInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.SlideID = mux.Vars(r)["id"]
	e, err := ops.AddElement(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, e)
}

// HandleUpdateElement handles PUT /api/elements/{id}.
func (h *Handlers) HandleUpdateElement(w http.ResponseWriter, r *http.Request) {
	var input ops.UpdateElementInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	input.ID = mux.Vars(r)["id"]
	e, err := ops.UpdateElement(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, e)
}

// HandleDeleteElement handles DELETE /api/elements/{id}.
func (h *Handlers) HandleDeleteElement(w http.ResponseWriter, r *http.Request) {
	if err := ops.DeleteElement(r.Context(), h.env, callerFrom(r), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransformText handles POST /api/ai/transform.
func (h *Handlers) HandleTransformText(w http.ResponseWriter, r *http.Request) {
	var input ops.TransformTextInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := ops.TransformText(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSuggestImage handles POST /api/ai/suggest-image.
func (h *Handlers) HandleSuggestImage(w http.ResponseWriter, r *http.Request) {
	var input ops.SuggestImageInput
	if err := decodeJSON(r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := ops.SuggestImage(r.Context(), h.env, callerFrom(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}
