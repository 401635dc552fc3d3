package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/courtside/club-games/middleware"
	"github.com/courtside/club-games/models"
	"github.com/courtside/club-games/repositories"
	"github.com/courtside/club-games/services"
)

type GameHandler struct {
	gameService      services.GameService
	admissionService services.AdmissionService
}

func NewGameHandler(gs services.GameService, as services.AdmissionService) *GameHandler {
	return &GameHandler{
		gameService:      gs,
		admissionService: as,
	}
}

// Create godoc
// @Summary Create a game
// @Tags games
// @Description Creates a scheduled game; the caller becomes its organizer and is seated as GOING.
// @Accept json
// @Produce json
// @Param body body services.CreateGameInput true "Game attributes"
// @Success 201 {object} map[string]interface{} "Created game"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /games [post]
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary List games
// @Tags games
// @Description Lists games ordered by start time ascending.
// @Produce json
// @Param club_id query int false "Filter by club"
// @Param status query string false "Filter by status" Enums(SCHEDULED, ONGOING, FINISHED, CANCELLED)
// @Param from query string false "Earliest start time (RFC3339)"
// @Param to query string false "Latest start time (RFC3339)"
// @Param offset query int false "Page offset"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{} "Games page"
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Router /games [get]
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseGameFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.gameService.ListGames(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary Get game details
// @Tags games
// @Description Returns the game with grouped participants, eligibility flags and slot counters.
// @Produce json
// @Param id path int true "Game ID"
// @Success 200 {object} models.GameDetail
// @Failure 404 {object} map[string]string "Game not found"
// @Router /games/{id} [get]
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.gameService.GetGame(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, detail, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Join godoc
// @Summary Request to join a game
// @Tags games
// @Description Queues the caller on the waitlist; an organizer approval admits them.
// @Accept json
// @Produce json
// @Param id path int true "Game ID"
// @Param body body services.JoinGameInput false "Join request"
// @Success 201 {object} services.JoinResult
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Game not found"
// @Failure 409 {object} map[string]string "Already joined or game not joinable"
// @Security BearerAuth
// @Router /games/{id}/join [post]
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.JoinGameInput
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	result, err := h.admissionService.Join(r.Context(), gameID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Leave godoc
// @Summary Leave a game
// @Tags games
// @Description Marks the caller's participation as NOT_GOING; repeated calls are safe.
// @Produce json
// @Param id path int true "Game ID"
// @Success 200 {object} map[string]interface{} "Acknowledgement"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Game or participation not found"
// @Failure 409 {object} map[string]string "Organizer cannot leave"
// @Security BearerAuth
// @Router /games/{id}/leave [post]
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.admissionService.Leave(r.Context(), gameID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ok": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Approve godoc
// @Summary Approve a waitlisted participant
// @Tags games
// @Description Admits a waitlisted participant to GOING; capacity is re-checked in the same transaction.
// @Produce json
// @Param id path int true "Game ID"
// @Param userID path int true "Target user ID"
// @Success 200 {object} map[string]interface{} "Updated participant"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not an organizer or club owner/admin"
// @Failure 404 {object} map[string]string "Game or participant not found"
// @Failure 409 {object} map[string]string "Game full or participant not waitlisted"
// @Security BearerAuth
// @Router /games/{id}/participants/{userID}/approve [post]
func (h *GameHandler) Approve(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	targetUserID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participant, err := h.admissionService.Approve(r.Context(), gameID, currentUserID, targetUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reject godoc
// @Summary Reject a participation request
// @Tags games
// @Description Marks the target participation as NOT_GOING; rejecting twice is safe.
// @Produce json
// @Param id path int true "Game ID"
// @Param userID path int true "Target user ID"
// @Success 200 {object} map[string]interface{} "Updated participant"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not an organizer or club owner/admin"
// @Failure 404 {object} map[string]string "Game or participant not found"
// @Failure 409 {object} map[string]string "Organizer cannot be rejected"
// @Security BearerAuth
// @Router /games/{id}/participants/{userID}/reject [post]
func (h *GameHandler) Reject(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	targetUserID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participant, err := h.admissionService.Reject(r.Context(), gameID, currentUserID, targetUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatus godoc
// @Summary Update game status
// @Tags games
// @Description Advances the game lifecycle (SCHEDULED → ONGOING → FINISHED, or CANCELLED).
// @Accept json
// @Produce json
// @Param id path int true "Game ID"
// @Param body body object{status=string} true "Target status"
// @Success 200 {object} map[string]string "New status"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not an organizer or club owner/admin"
// @Failure 404 {object} map[string]string "Game not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Security BearerAuth
// @Router /games/{id}/status [patch]
func (h *GameHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		Status models.GameStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	status, err := h.gameService.UpdateStatus(r.Context(), gameID, currentUserID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseGameFilter(r *http.Request) (repositories.GameFilter, error) {
	var filter repositories.GameFilter
	query := r.URL.Query()

	if v := query.Get("club_id"); v != "" {
		clubID, err := strconv.Atoi(v)
		if err != nil || clubID <= 0 {
			return filter, fmt.Errorf("invalid club_id parameter: %q", v)
		}
		filter.ClubID = &clubID
	}
	if v := query.Get("status"); v != "" {
		status := models.GameStatus(v)
		if !status.Valid() {
			return filter, fmt.Errorf("invalid status parameter: %q", v)
		}
		filter.Status = &status
	}
	if v := query.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("invalid from parameter: %q", v)
		}
		filter.From = &from
	}
	if v := query.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("invalid to parameter: %q", v)
		}
		filter.To = &to
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("invalid offset parameter: %q", v)
		}
		filter.Offset = offset
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return filter, fmt.Errorf("invalid limit parameter: %q", v)
		}
		filter.Limit = limit
	}
	return filter, nil
}
