package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"

	"github.com/courtside/club-games/middleware"
	"github.com/courtside/club-games/models"
	"github.com/courtside/club-games/repositories"
	"github.com/courtside/club-games/services"
)

// stubGameService and stubAdmissionService let each test pin the service
// outcome and assert the HTTP translation in isolation.
type stubGameService struct {
	createFn func(ctx context.Context, input services.CreateGameInput, creatorID int) (*models.Game, error)
	listFn   func(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error)
	getFn    func(ctx context.Context, gameID int) (*models.GameDetail, error)
	statusFn func(ctx context.Context, gameID, actorID int, target models.GameStatus) (models.GameStatus, error)
}

func (s *stubGameService) CreateGame(ctx context.Context, input services.CreateGameInput, creatorID int) (*models.Game, error) {
	return s.createFn(ctx, input, creatorID)
}

func (s *stubGameService) ListGames(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
	return s.listFn(ctx, filter)
}

func (s *stubGameService) GetGame(ctx context.Context, gameID int) (*models.GameDetail, error) {
	return s.getFn(ctx, gameID)
}

func (s *stubGameService) UpdateStatus(ctx context.Context, gameID, actorID int, target models.GameStatus) (models.GameStatus, error) {
	return s.statusFn(ctx, gameID, actorID, target)
}

type stubAdmissionService struct {
	joinFn    func(ctx context.Context, gameID, userID int, input services.JoinGameInput) (*services.JoinResult, error)
	leaveFn   func(ctx context.Context, gameID, userID int) error
	approveFn func(ctx context.Context, gameID, actorID, targetUserID int) (*models.Participant, error)
	rejectFn  func(ctx context.Context, gameID, actorID, targetUserID int) (*models.Participant, error)
}

func (s *stubAdmissionService) Join(ctx context.Context, gameID, userID int, input services.JoinGameInput) (*services.JoinResult, error) {
	return s.joinFn(ctx, gameID, userID, input)
}

func (s *stubAdmissionService) Leave(ctx context.Context, gameID, userID int) error {
	return s.leaveFn(ctx, gameID, userID)
}

func (s *stubAdmissionService) Approve(ctx context.Context, gameID, actorID, targetUserID int) (*models.Participant, error) {
	return s.approveFn(ctx, gameID, actorID, targetUserID)
}

func (s *stubAdmissionService) Reject(ctx context.Context, gameID, actorID, targetUserID int) (*models.Participant, error) {
	return s.rejectFn(ctx, gameID, actorID, targetUserID)
}

func newTestRouter(gs services.GameService, as services.AdmissionService) *chi.Mux {
	h := NewGameHandler(gs, as)
	r := chi.NewRouter()
	r.Route("/games", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/join", h.Join)
		r.Post("/{id}/leave", h.Leave)
		r.Post("/{id}/participants/{userID}/approve", h.Approve)
		r.Post("/{id}/participants/{userID}/reject", h.Reject)
		r.Patch("/{id}/status", h.UpdateStatus)
	})
	return r
}

func authenticated(r *http.Request, userID int) *http.Request {
	claims := jwt.MapClaims{"user_id": float64(userID)}
	return r.WithContext(middleware.WithUserClaims(r.Context(), claims))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreateRequiresAuth(t *testing.T) {
	router := newTestRouter(&stubGameService{}, &stubAdmissionService{})

	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestCreateGameHandler(t *testing.T) {
	gs := &stubGameService{
		createFn: func(_ context.Context, input services.CreateGameInput, creatorID int) (*models.Game, error) {
			if creatorID != 10 {
				t.Errorf("expected creatorID 10, got %d", creatorID)
			}
			if input.ClubID != 1 {
				t.Errorf("expected ClubID 1, got %d", input.ClubID)
			}
			return &models.Game{ID: 7, ClubID: input.ClubID, Status: models.GameStatusScheduled}, nil
		},
	}
	router := newTestRouter(gs, &stubAdmissionService{})

	body := `{"club_id":1,"starts_at":"2026-04-01T18:00:00Z","ends_at":"2026-04-01T19:30:00Z"}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/games", bytes.NewBufferString(body)), 10)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Game models.Game `json:"game"`
	}
	decodeBody(t, rec, &resp)
	if resp.Game.ID != 7 {
		t.Errorf("expected game id 7, got %d", resp.Game.ID)
	}
}

func TestCreateGameHandlerValidation(t *testing.T) {
	gs := &stubGameService{
		createFn: func(context.Context, services.CreateGameInput, int) (*models.Game, error) {
			return nil, services.ErrInvalidTimeRange
		},
	}
	router := newTestRouter(gs, &stubAdmissionService{})

	body := `{"club_id":1,"starts_at":"2026-04-01T19:00:00Z","ends_at":"2026-04-01T18:00:00Z"}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/games", bytes.NewBufferString(body)), 10)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreateGameHandlerRejectsUnknownFields(t *testing.T) {
	router := newTestRouter(&stubGameService{}, &stubAdmissionService{})

	req := authenticated(httptest.NewRequest(http.MethodPost, "/games",
		bytes.NewBufferString(`{"club_id":1,"surprise":true}`)), 10)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListGamesHandler(t *testing.T) {
	gs := &stubGameService{
		listFn: func(_ context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
			if filter.ClubID == nil || *filter.ClubID != 3 {
				t.Errorf("expected club_id filter 3, got %v", filter.ClubID)
			}
			if filter.Status == nil || *filter.Status != models.GameStatusScheduled {
				t.Errorf("expected status filter SCHEDULED, got %v", filter.Status)
			}
			if filter.Limit != 5 {
				t.Errorf("expected limit 5, got %d", filter.Limit)
			}
			return []*models.Game{{ID: 1}, {ID: 2}}, nil
		},
	}
	router := newTestRouter(gs, &stubAdmissionService{})

	req := httptest.NewRequest(http.MethodGet, "/games?club_id=3&status=SCHEDULED&limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Games []models.Game `json:"games"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Games) != 2 {
		t.Errorf("expected 2 games, got %d", len(resp.Games))
	}
}

func TestListGamesHandlerBadQuery(t *testing.T) {
	router := newTestRouter(&stubGameService{}, &stubAdmissionService{})

	for _, query := range []string{
		"club_id=zero",
		"status=PAUSED",
		"from=yesterday",
		"offset=-1",
		"limit=0",
	} {
		req := httptest.NewRequest(http.MethodGet, "/games?"+query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestGetGameHandler(t *testing.T) {
	detail := &models.GameDetail{
		Game: models.Game{ID: 7, MaxPlayers: 4, Status: models.GameStatusScheduled},
		Stats: models.GameStats{
			GoingCount: 1,
			FreeSlots:  3,
		},
	}
	gs := &stubGameService{
		getFn: func(_ context.Context, gameID int) (*models.GameDetail, error) {
			if gameID != 7 {
				return nil, services.ErrGameNotFound
			}
			return detail, nil
		},
	}
	router := newTestRouter(gs, &stubAdmissionService{})

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/games/7", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got models.GameDetail
		decodeBody(t, rec, &got)
		if got.Game.ID != 7 || got.Stats.FreeSlots != 3 {
			t.Errorf("unexpected payload: id=%d freeSlots=%d", got.Game.ID, got.Stats.FreeSlots)
		}
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/games/8", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/games/seven", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestJoinHandler(t *testing.T) {
	as := &stubAdmissionService{
		joinFn: func(_ context.Context, gameID, userID int, input services.JoinGameInput) (*services.JoinResult, error) {
			if gameID != 7 || userID != 20 {
				t.Errorf("unexpected args: game=%d user=%d", gameID, userID)
			}
			return &services.JoinResult{
				Status:     models.ParticipationWaitlist,
				Role:       models.RoleReserve,
				IsWaitlist: true,
			}, nil
		},
	}
	router := newTestRouter(&stubGameService{}, as)

	// No body at all is a valid join request.
	req := authenticated(httptest.NewRequest(http.MethodPost, "/games/7/join", nil), 20)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var result services.JoinResult
	decodeBody(t, rec, &result)
	if !result.IsWaitlist || result.Status != models.ParticipationWaitlist {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestJoinHandlerErrors(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "already joined", serviceErr: services.ErrAlreadyJoined, wantStatus: http.StatusConflict},
		{name: "game not joinable", serviceErr: services.ErrGameNotJoinable, wantStatus: http.StatusConflict},
		{name: "game missing", serviceErr: services.ErrGameNotFound, wantStatus: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			as := &stubAdmissionService{
				joinFn: func(context.Context, int, int, services.JoinGameInput) (*services.JoinResult, error) {
					return nil, tc.serviceErr
				},
			}
			router := newTestRouter(&stubGameService{}, as)

			req := authenticated(httptest.NewRequest(http.MethodPost, "/games/7/join", nil), 20)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestLeaveHandler(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "ok", serviceErr: nil, wantStatus: http.StatusOK},
		{name: "organizer immutable", serviceErr: services.ErrOrganizerImmutable, wantStatus: http.StatusConflict},
		{name: "never joined", serviceErr: services.ErrParticipantNotFound, wantStatus: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			as := &stubAdmissionService{
				leaveFn: func(context.Context, int, int) error { return tc.serviceErr },
			}
			router := newTestRouter(&stubGameService{}, as)

			req := authenticated(httptest.NewRequest(http.MethodPost, "/games/7/leave", nil), 20)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestApproveHandler(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "ok", serviceErr: nil, wantStatus: http.StatusOK},
		{name: "forbidden", serviceErr: services.ErrManageForbidden, wantStatus: http.StatusForbidden},
		{name: "game full", serviceErr: services.ErrGameFull, wantStatus: http.StatusConflict},
		{name: "not waitlisted", serviceErr: services.ErrNotWaitlisted, wantStatus: http.StatusConflict},
		{name: "participant missing", serviceErr: services.ErrParticipantNotFound, wantStatus: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			as := &stubAdmissionService{
				approveFn: func(_ context.Context, gameID, actorID, targetUserID int) (*models.Participant, error) {
					if gameID != 7 || actorID != 10 || targetUserID != 20 {
						t.Errorf("unexpected args: game=%d actor=%d target=%d", gameID, actorID, targetUserID)
					}
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return &models.Participant{
						GameID: gameID,
						UserID: targetUserID,
						Status: models.ParticipationGoing,
						Role:   models.RolePlayer,
					}, nil
				},
			}
			router := newTestRouter(&stubGameService{}, as)

			req := authenticated(httptest.NewRequest(http.MethodPost, "/games/7/participants/20/approve", nil), 10)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRejectHandlerRequiresAuth(t *testing.T) {
	router := newTestRouter(&stubGameService{}, &stubAdmissionService{})

	req := httptest.NewRequest(http.MethodPost, "/games/7/participants/20/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateStatusHandler(t *testing.T) {
	gs := &stubGameService{
		statusFn: func(_ context.Context, gameID, actorID int, target models.GameStatus) (models.GameStatus, error) {
			if target != models.GameStatusOngoing {
				t.Errorf("expected ONGOING, got %s", target)
			}
			return target, nil
		},
	}
	router := newTestRouter(gs, &stubAdmissionService{})

	req := authenticated(httptest.NewRequest(http.MethodPatch, "/games/7/status",
		bytes.NewBufferString(`{"status":"ONGOING"}`)), 10)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["status"] != "ONGOING" {
		t.Errorf("expected status ONGOING, got %q", resp["status"])
	}
}

func TestUpdateStatusHandlerConflict(t *testing.T) {
	gs := &stubGameService{
		statusFn: func(context.Context, int, int, models.GameStatus) (models.GameStatus, error) {
			return "", fmt.Errorf("%w: FINISHED -> ONGOING", services.ErrInvalidStatusTransition)
		},
	}
	router := newTestRouter(gs, &stubAdmissionService{})

	req := authenticated(httptest.NewRequest(http.MethodPatch, "/games/7/status",
		bytes.NewBufferString(`{"status":"ONGOING"}`)), 10)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}
