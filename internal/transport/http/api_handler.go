package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
)

const defaultQuestionCount = 10

// APIHandler exposes the quiz REST API. Every response carries a success flag
// and either a data payload or an error message.
type APIHandler struct {
	questions *app.QuestionService
	progress  *app.ProgressService
	catalog   app.CountryCatalog
	now       func() time.Time
}

func NewAPIHandler(questions *app.QuestionService, progress *app.ProgressService, catalog app.CountryCatalog) *APIHandler {
	return &APIHandler{
		questions: questions,
		progress:  progress,
		catalog:   catalog,
		now:       time.Now,
	}
}

// Register wires the API routes into the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/countries", h.listCountries)
	mux.HandleFunc("GET /api/questions/{difficulty}/{count}", h.generateQuestions)
	mux.HandleFunc("POST /api/scores", h.submitScore)
	mux.HandleFunc("GET /api/user/{userId}/progress", h.userProgress)
	mux.HandleFunc("GET /api/leaderboard/{gameType}/{difficulty}", h.leaderboard)
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("/", h.notFound)
}

func (h *APIHandler) listCountries(w http.ResponseWriter, r *http.Request) {
	var countries []domain.Country
	var err error
	if raw := r.URL.Query().Get("difficulty"); raw != "" {
		tier, perr := domain.ParseDifficulty(raw)
		if perr != nil {
			h.writeError(w, perr)
			return
		}
		countries, err = h.catalog.ByDifficulty(r.Context(), tier)
	} else {
		countries, err = h.catalog.Countries(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    countries,
		"total":   len(countries),
	})
}

func (h *APIHandler) generateQuestions(w http.ResponseWriter, r *http.Request) {
	difficulty := r.PathValue("difficulty")
	count, err := strconv.Atoi(r.PathValue("count"))
	if err != nil {
		count = defaultQuestionCount
	}

	questions, err := h.questions.Generate(r.Context(), difficulty, count)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       questions,
		"difficulty": difficulty,
		"total":      len(questions),
	})
}

func (h *APIHandler) submitScore(w http.ResponseWriter, r *http.Request) {
	var submission domain.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		h.writeError(w, domain.ErrValidation)
		return
	}
	result, err := h.progress.Submit(r.Context(), submission)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}

func (h *APIHandler) userProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	gameType := r.URL.Query().Get("gameType")
	if gameType == "" {
		gameType = "flag"
	}

	view, err := h.progress.QueryProgress(r.Context(), userID, gameType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    view,
	})
}

func (h *APIHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	gameType := r.PathValue("gameType")
	tier, err := domain.ParseDifficulty(r.PathValue("difficulty"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	entries, err := h.progress.QueryLeaderboard(r.Context(), gameType, tier, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       entries,
		"gameType":   gameType,
		"difficulty": tier,
		"total":      len(entries),
	})
}

// health reports liveness and how many countries are loaded. It stays green
// while the dataset is unavailable; pool-dependent routes fail on their own.
func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	loaded := 0
	if countries, err := h.catalog.Countries(r.Context()); err == nil {
		loaded = len(countries)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"status":          "OK",
		"timestamp":       h.now().UTC().Format(time.RFC3339),
		"countriesLoaded": loaded,
	})
}

func (h *APIHandler) notFound(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "Route not found",
	})
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrDatasetUnavailable):
		status = http.StatusServiceUnavailable
		message = err.Error()
	case errors.Is(err, domain.ErrInsufficientPool),
		errors.Is(err, domain.ErrUnknownDifficulty),
		errors.Is(err, domain.ErrInvalidCount),
		errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	default:
		log.Printf("api error: %v", err)
	}

	h.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
