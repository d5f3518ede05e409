package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/teamops/curator-rotation/entity"
	"github.com/teamops/curator-rotation/rotation"
)

// ActorResolver is the access-control collaborator: it turns a request
// into an authenticated actor, or nil when there is none.
type ActorResolver interface {
	ActorFromRequest(r *http.Request) (*entity.Actor, error)
}

type Handler struct {
	scheduler *rotation.Scheduler
	actors    ActorResolver
}

func NewHandler(scheduler *rotation.Scheduler, actors ActorResolver) *Handler {
	return &Handler{scheduler: scheduler, actors: actors}
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	lookback := 0
	if v := r.URL.Query().Get("lookback"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "lookback must be a number")
			return
		}
		lookback = n
	}

	st, err := h.scheduler.Status(r.Context(), lookback)
	if err != nil {
		log.Printf("Get rotation status: %v.", err)
		writeError(w, http.StatusInternalServerError, "rotation store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, st)
}

type createAssignmentRequest struct {
	AnchorOn   string `json:"anchor_on"`
	MemberID   int    `json:"member_id"`
	MemberName string `json:"member_name"`
}

type createAssignmentResponse struct {
	Assignment *entity.Assignment `json:"assignment"`
	Member     *entity.Member     `json:"member,omitempty"`
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := h.actors.ActorFromRequest(r)
	if err != nil {
		log.Printf("Resolve actor: %v.", err)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var anchor time.Time
	if req.AnchorOn != "" {
		anchor, err = time.Parse(time.DateOnly, req.AnchorOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "anchor_on: must be YYYY-MM-DD")
			return
		}
	}

	// A caller-supplied assignee makes this a manual override;
	// otherwise the fairness selector picks.
	if req.MemberID != 0 || req.MemberName != "" {
		a, err := h.scheduler.AssignTo(ctx, actor, anchor, req.MemberID, req.MemberName)
		if err != nil {
			h.writeSchedulerError(w, "Create manual assignment", err)
			return
		}

		writeJSON(w, http.StatusCreated, createAssignmentResponse{Assignment: a})
		return
	}

	a, m, err := h.scheduler.Assign(ctx, actor, anchor)
	if err != nil {
		h.writeSchedulerError(w, "Create assignment", err)
		return
	}

	writeJSON(w, http.StatusCreated, createAssignmentResponse{Assignment: a, Member: m})
}

type toggleSkipRequest struct {
	Skip bool `json:"skip"`
}

func (h *Handler) ToggleSkip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := h.actors.ActorFromRequest(r)
	if err != nil {
		log.Printf("Resolve actor: %v.", err)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a number")
		return
	}

	var req toggleSkipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.scheduler.ToggleSkip(ctx, actor, id, req.Skip)
	if err != nil {
		h.writeSchedulerError(w, "Toggle skip", err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

type optOutRequest struct {
	Excluded bool `json:"excluded"`
}

func (h *Handler) SetRotationOptOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := h.actors.ActorFromRequest(r)
	if err != nil {
		log.Printf("Resolve actor: %v.", err)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a number")
		return
	}

	var req optOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.scheduler.SetRotationOptOut(ctx, actor, id, req.Excluded)
	if err != nil {
		h.writeSchedulerError(w, "Set rotation opt-out", err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) writeSchedulerError(w http.ResponseWriter, op string, err error) {
	var ve *rotation.ValidationError
	var ce *rotation.ConflictError

	switch {
	case errors.Is(err, rotation.ErrAuthenticationRequired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, rotation.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, rotation.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rotation.ErrNoEligibleCurators):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Error())
	default:
		log.Printf("%s: %v.", op, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encode response: %v.", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
