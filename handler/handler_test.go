package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/teamops/curator-rotation/entity"
	"github.com/teamops/curator-rotation/rotation"
)

type memberStore struct {
	members []*entity.Member
}

func (s *memberStore) ListEligible(ctx context.Context) ([]*entity.Member, error) {
	return s.members, nil
}

func (s *memberStore) Get(ctx context.Context, id int) (*entity.Member, error) {
	for _, m := range s.members {
		if m.ID == id {
			return m, nil
		}
	}

	return nil, nil
}

func (s *memberStore) FindByName(ctx context.Context, name string) (*entity.Member, error) {
	return nil, nil
}

func (s *memberStore) GrantCurator(ctx context.Context, id int) error { return nil }

func (s *memberStore) SetExcluded(ctx context.Context, id int, excluded bool) error { return nil }

type assignmentStore struct {
	rows []*entity.Assignment
}

func (s *assignmentStore) Create(ctx context.Context, a *entity.Assignment) (int, error) {
	cp := *a
	cp.ID = len(s.rows) + 1
	s.rows = append(s.rows, &cp)

	return cp.ID, nil
}

func (s *assignmentStore) Get(ctx context.Context, id int) (*entity.Assignment, error) {
	for _, a := range s.rows {
		if a.ID == id {
			return a, nil
		}
	}

	return nil, nil
}

func (s *assignmentStore) Recent(ctx context.Context, limit int) ([]*entity.Assignment, error) {
	return nil, nil
}

func (s *assignmentStore) LatestActive(ctx context.Context) (*entity.Assignment, error) {
	return nil, nil
}

func (s *assignmentStore) FindOverlapping(ctx context.Context, start, end time.Time) (*entity.Assignment, error) {
	for _, a := range s.rows {
		if !a.EndOn.Before(start) && !a.StartOn.After(end) {
			return a, nil
		}
	}

	return nil, nil
}

func (s *assignmentStore) SetSkip(ctx context.Context, id int, skip bool) error { return nil }

func (s *assignmentStore) CountsByName(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func (s *assignmentStore) Count(ctx context.Context) (int, error) { return len(s.rows), nil }

type tally struct{}

func (tally) CountsByName(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

type outbox struct{}

func (outbox) Enqueue(ctx context.Context, task *entity.NotificationTask) error { return nil }

func (outbox) Pending(ctx context.Context, limit, maxAttempts int) ([]*entity.NotificationTask, error) {
	return nil, nil
}

func (outbox) MarkSent(ctx context.Context, id int) error { return nil }

func (outbox) MarkFailed(ctx context.Context, id int, reason string) error { return nil }

func newTestRouter(members *memberStore, assignments *assignmentStore) chi.Router {
	scheduler := rotation.NewScheduler(members, assignments, tally{}, outbox{})
	h := NewHandler(scheduler, HeaderActorResolver{})

	r := chi.NewRouter()
	r.Get("/rotation", h.GetStatus)
	r.Post("/rotation/assignments", h.CreateAssignment)
	r.Patch("/rotation/assignments/{id}/skip", h.ToggleSkip)
	r.Patch("/rotation/members/{id}/rotation-opt-out", h.SetRotationOptOut)

	return r
}

func asAdmin(req *http.Request) *http.Request {
	req.Header.Set("X-Actor-ID", "u1")
	req.Header.Set("X-Actor-Name", "Dana Admin")
	req.Header.Set("X-Actor-Role", "admin")

	return req
}

func TestHandler_GetStatus(t *testing.T) {
	r := newTestRouter(&memberStore{}, &assignmentStore{})

	req := httptest.NewRequest(http.MethodGet, "/rotation", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got, want := rec.Code, http.StatusOK; got != want {
		t.Fatalf("Status is %d, but want %d.", got, want)
	}
}

func TestHandler_CreateAssignment(t *testing.T) {
	members := &memberStore{members: []*entity.Member{
		{ID: 1, Name: "Alice", SlackID: "UALICE", IsActive: true},
	}}
	r := newTestRouter(members, &assignmentStore{})

	body := `{"anchor_on":"2024-01-01"}`
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/rotation/assignments", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got, want := rec.Code, http.StatusCreated; got != want {
		t.Fatalf("Status is %d, but want %d: %s", got, want, rec.Body.String())
	}

	// member_id serializes as a plain number, not a wrapped struct.
	var resp struct {
		Assignment map[string]any `json:"assignment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Should not be fail: %v.", err)
	}
	if got, want := resp.Assignment["member_id"], float64(1); got != want {
		t.Fatalf("member_id is %v, but want %v.", got, want)
	}

	// Overlapping window.
	req = asAdmin(httptest.NewRequest(http.MethodPost, "/rotation/assignments", strings.NewReader(`{"anchor_on":"2024-01-08"}`)))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got, want := rec.Code, http.StatusConflict; got != want {
		t.Fatalf("Status is %d, but want %d.", got, want)
	}
}

func TestHandler_CreateAssignment_Authorization(t *testing.T) {
	r := newTestRouter(&memberStore{}, &assignmentStore{})

	req := httptest.NewRequest(http.MethodPost, "/rotation/assignments", strings.NewReader(`{"anchor_on":"2024-01-01"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got, want := rec.Code, http.StatusUnauthorized; got != want {
		t.Fatalf("Status is %d, but want %d.", got, want)
	}

	req = httptest.NewRequest(http.MethodPost, "/rotation/assignments", strings.NewReader(`{"anchor_on":"2024-01-01"}`))
	req.Header.Set("X-Actor-ID", "u2")
	req.Header.Set("X-Actor-Role", "member")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got, want := rec.Code, http.StatusForbidden; got != want {
		t.Fatalf("Status is %d, but want %d.", got, want)
	}
}

func TestHandler_CreateAssignment_NoEligibleCurators(t *testing.T) {
	r := newTestRouter(&memberStore{}, &assignmentStore{})

	req := asAdmin(httptest.NewRequest(http.MethodPost, "/rotation/assignments", strings.NewReader(`{"anchor_on":"2024-01-01"}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got, want := rec.Code, http.StatusUnprocessableEntity; got != want {
		t.Fatalf("Status is %d, but want %d.", got, want)
	}
}

func TestHandler_ToggleSkip_NotFound(t *testing.T) {
	r := newTestRouter(&memberStore{}, &assignmentStore{})

	req := asAdmin(httptest.NewRequest(http.MethodPatch, "/rotation/assignments/99/skip", strings.NewReader(`{"skip":true}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got, want := rec.Code, http.StatusNotFound; got != want {
		t.Fatalf("Status is %d, but want %d.", got, want)
	}
}
