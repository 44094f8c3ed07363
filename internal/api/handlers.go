package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Nexo-Labs/SyncTionNotion/internal/forms"
	"github.com/Nexo-Labs/SyncTionNotion/internal/logging"
	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/Nexo-Labs/SyncTionNotion/internal/state"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const defaultSubmissionsLimit = 50

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

type FormRequest struct {
	Form *models.Form `json:"form" validate:"required"`
}

type EventRequest struct {
	Form  *models.Form    `json:"form" validate:"required"`
	Old   json.RawMessage `json:"old" validate:"required"`
	Input json.RawMessage `json:"input" validate:"required"`
}

type SecretRequest struct {
	Token string `json:"token" validate:"required,notblank"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FormHandler struct {
	service *forms.Service
	store   state.Store
}

func NewFormHandler(service *forms.Service, store state.Store) *FormHandler {
	return &FormHandler{
		service: service,
		store:   store,
	}
}

func (h *FormHandler) Scratch(w http.ResponseWriter, r *http.Request) {
	form := h.service.ScratchTemplate()
	logging.EnrichForm(r.Context(), form.ID.String(), "scratch")
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req FormRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	logging.EnrichForm(r.Context(), req.Form.ID.String(), "load")

	update, err := h.service.Load(r.Context(), req.Form)
	if err != nil {
		writeError(w, r, err, "load")
		return
	}
	update(req.Form)

	writeJSON(w, http.StatusOK, req.Form)
}

// OnChange applies the changed input to the form and returns the form after
// the change's reaction. 204 means the change needed none.
func (h *FormHandler) OnChange(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	old, err := models.UnmarshalInput(req.Old)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "old: "+err.Error())
		return
	}
	input, err := models.UnmarshalInput(req.Input)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "input: "+err.Error())
		return
	}
	if old.TemplateHeader().ID != input.TemplateHeader().ID {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "old and input must be the same field")
		return
	}

	logging.EnrichForm(r.Context(), req.Form.ID.String(), "change")
	logging.EnrichField(r.Context(), input.TemplateHeader().Name)

	if !req.Form.Replace(input) {
		writeError(w, r, models.ErrInputNotFound, "change")
		return
	}

	update, err := h.service.OnChange(r.Context(), req.Form, old, input)
	if errors.Is(err, models.ErrSkip) {
		logging.EnrichSkipped(r.Context())
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, err, "change")
		return
	}
	if !update(req.Form) {
		logging.EnrichSkipped(r.Context())
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, req.Form)
}

func (h *FormHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req FormRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	logging.EnrichForm(r.Context(), req.Form.ID.String(), "send")

	page, err := h.service.Send(r.Context(), req.Form)
	if err != nil {
		writeError(w, r, err, "send")
		return
	}
	logging.EnrichMetadata(r.Context(), "page_id", page.ID)

	writeJSON(w, http.StatusCreated, page)
}

func (h *FormHandler) Templates(w http.ResponseWriter, r *http.Request) {
	databaseID := mux.Vars(r)["databaseID"]
	logging.EnrichDatabase(r.Context(), databaseID)

	inputs, err := h.service.Templates(r.Context(), databaseID)
	if err != nil {
		writeError(w, r, err, "templates")
		return
	}
	logging.EnrichResults(r.Context(), len(inputs))

	writeJSON(w, http.StatusOK, inputs)
}

func (h *FormHandler) SearchPages(w http.ResponseWriter, r *http.Request) {
	databaseID := mux.Vars(r)["databaseID"]
	query := r.URL.Query().Get("q")
	logging.EnrichDatabase(r.Context(), databaseID)

	options, err := h.service.SearchPages(r.Context(), databaseID, query)
	if errors.Is(err, models.ErrSkip) {
		logging.EnrichSkipped(r.Context())
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, err, "search")
		return
	}
	logging.EnrichResults(r.Context(), len(options))

	writeJSON(w, http.StatusOK, options)
}

func (h *FormHandler) SaveSecret(w http.ResponseWriter, r *http.Request) {
	var req SecretRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.store.SaveSecret(r.Context(), h.service.IntegrationID(), req.Token); err != nil {
		writeError(w, r, err, "secret")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FormHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	limit, err := queryInt(r, "limit", defaultSubmissionsLimit)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	submissions, err := h.service.Submissions(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err, "submissions")
		return
	}

	writeJSON(w, http.StatusOK, submissions)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("invalid " + key)
	}
	return value, nil
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) (int, string) {
	var authErr *models.AuthError
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrInputNotFound):
		return http.StatusBadRequest, "input_not_found"
	case errors.Is(err, forms.ErrDatabaseNotFound):
		return http.StatusNotFound, "database_not_found"
	case errors.Is(err, models.ErrTransformation):
		return http.StatusUnprocessableEntity, "transformation_failure"
	case errors.Is(err, models.ErrDecode):
		return http.StatusBadGateway, "malformed_response"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "cancelled"
	default:
		return http.StatusBadGateway, "upstream_failure"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, stage string) {
	status, code := statusFor(err)
	logging.EnrichError(r.Context(), err, stage)
	writeErrorResponse(w, status, code, err.Error())
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}
