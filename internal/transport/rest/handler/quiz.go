package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"clipquiz/internal/game"
	"clipquiz/internal/service"
	"clipquiz/internal/transport/rest/middleware"
)

// QuizHandler handles room join and quiz control endpoints
type QuizHandler struct {
	quiz     *game.Manager
	authSvc  *service.AuthService
	statsSvc *service.StatsService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quiz *game.Manager, authSvc *service.AuthService, statsSvc *service.StatsService) *QuizHandler {
	return &QuizHandler{
		quiz:     quiz,
		authSvc:  authSvc,
		statsSvc: statsSvc,
	}
}

// JoinRoomRequest is the request body for joining a room
type JoinRoomRequest struct {
	Nickname string `json:"nickname"`
}

// JoinRoom handles POST /v1/rooms/{room}/join — issues the room token
// used for the WebSocket and the quiz control endpoints
func (h *QuizHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Nickname == "" {
		writeError(w, http.StatusBadRequest, "nickname required")
		return
	}

	token, claims, err := h.authSvc.IssuePlayerToken(room, req.Nickname)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"playerId": claims.PlayerID,
		"roomId":   room,
	})
}

// StartQuizRequest is the request body for starting a quiz
type StartQuizRequest struct {
	PackID      string `json:"packId"`
	VoiceTarget string `json:"voiceTarget,omitempty"` // defaults to the room's own channel
}

// Start handles POST /v1/rooms/{room}/quiz/start
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	player := middleware.GetPlayerID(r.Context())
	if middleware.GetRoomID(r.Context()) != room {
		writeError(w, http.StatusForbidden, "token not valid for this room")
		return
	}

	var req StartQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PackID == "" {
		writeError(w, http.StatusBadRequest, "packId required")
		return
	}
	if req.VoiceTarget == "" {
		req.VoiceTarget = room
	}

	if err := h.quiz.Start(r.Context(), room, req.PackID, player, req.VoiceTarget); err != nil {
		writeError(w, quizErrorStatus(err), err.Error())
		return
	}

	if err := h.statsSvc.RecordPackPlay(r.Context(), req.PackID); err != nil {
		log.Printf("pack %s: record play: %v", req.PackID, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// Stop handles POST /v1/rooms/{room}/quiz/stop
func (h *QuizHandler) Stop(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	player := middleware.GetPlayerID(r.Context())

	if err := h.quiz.Stop(room, player); err != nil {
		writeError(w, quizErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// JoinQuiz handles POST /v1/rooms/{room}/quiz/join
func (h *QuizHandler) JoinQuiz(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	player := middleware.GetPlayerID(r.Context())

	if err := h.quiz.Join(room, player); err != nil {
		writeError(w, quizErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// LeaveQuiz handles POST /v1/rooms/{room}/quiz/leave
func (h *QuizHandler) LeaveQuiz(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	player := middleware.GetPlayerID(r.Context())

	if err := h.quiz.Leave(room, player); err != nil {
		writeError(w, quizErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// Status handles GET /v1/rooms/{room}/quiz
func (h *QuizHandler) Status(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	status, ok := h.quiz.Snapshot(room)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active": true,
		"quiz":   status,
	})
}

// Winners handles GET /v1/stats/winners
func (h *QuizHandler) Winners(w http.ResponseWriter, r *http.Request) {
	entries, err := h.statsSvc.TopWinners(r.Context(), 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func quizErrorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionActive):
		return http.StatusConflict
	case errors.Is(err, game.ErrNoSession), errors.Is(err, game.ErrPackNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotModerator):
		return http.StatusForbidden
	case errors.Is(err, game.ErrEmptyPack), errors.Is(err, game.ErrNoVoiceTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
