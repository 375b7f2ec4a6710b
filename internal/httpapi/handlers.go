package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/DoyleJ11/minigame-session/internal/areas"
	"github.com/DoyleJ11/minigame-session/internal/hub"
	"github.com/DoyleJ11/minigame-session/internal/store"
	"github.com/DoyleJ11/minigame-session/pkg/types"
)

type handlers struct {
	hub      *hub.Hub
	store    store.Store
	validate *validator.Validate
	log      *zap.Logger
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := areas.FromRequest(req)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.store.Create(r.Context(), a); err != nil {
		h.fail(w, err)
		return
	}

	h.log.Info("minigame area created",
		zap.String("town", a.TownID), zap.String("label", a.Label), zap.String("host", a.HostID))
	writeJSON(w, http.StatusCreated, types.AreaResponse{Area: a.Descriptor()})
}

func (h *handlers) ListAreas(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), param(r, "townID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.AreaListResponse{
		Areas: lo.Map(list, func(a areas.Area, _ int) types.AreaDescriptor { return a.Descriptor() }),
	})
}

func (h *handlers) JoinArea(w http.ResponseWriter, r *http.Request) {
	var req types.JoinAreaRequest
	if !h.decode(w, r, &req) {
		return
	}

	townID, label := param(r, "townID"), param(r, "label")
	a, err := h.store.AddPlayer(r.Context(), townID, label, req.PlayerID)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.log.Info("player joined minigame area",
		zap.String("town", townID), zap.String("label", label), zap.String("player", req.PlayerID))
	writeJSON(w, http.StatusOK, types.AreaResponse{Area: a.Descriptor()})
}

// RemoveArea drops the area from the canonical list and abandons its channel.
func (h *handlers) RemoveArea(w http.ResponseWriter, r *http.Request) {
	townID, label := param(r, "townID"), param(r, "label")
	if err := h.store.Delete(r.Context(), townID, label); err != nil {
		h.fail(w, err)
		return
	}
	h.hub.Send(r.Context(), hub.RemoveRoom{Label: label})

	h.log.Info("minigame area removed", zap.String("town", townID), zap.String("label", label))
	w.WriteHeader(http.StatusNoContent)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, describe(err))
		return false
	}
	return true
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	})
	return "invalid request: " + strings.Join(parts, "; ")
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, areas.ErrAreaNotFound):
		return http.StatusNotFound
	case errors.Is(err, areas.ErrAreaExists),
		errors.Is(err, areas.ErrAreaFull),
		errors.Is(err, areas.ErrAlreadyJoined):
		return http.StatusConflict
	case errors.Is(err, areas.ErrEmptyLabel),
		errors.Is(err, areas.ErrEmptyHost),
		errors.Is(err, areas.ErrEmptyPlayer),
		errors.Is(err, areas.ErrHostMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func param(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
