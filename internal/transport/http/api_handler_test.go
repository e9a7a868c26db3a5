package http

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/infra/memory"
)

func TestListCountries(t *testing.T) {
	server := newTestServer(t, testCountries())
	defer server.Close()

	body := getJSON(t, server, "/api/countries", http.StatusOK)
	if body["success"] != true {
		t.Fatalf("expected success, got %+v", body)
	}
	if body["total"].(float64) != 5 {
		t.Fatalf("expected 5 countries, got %v", body["total"])
	}

	body = getJSON(t, server, "/api/countries?difficulty=hard", http.StatusOK)
	if body["total"].(float64) != 1 {
		t.Fatalf("expected 1 hard country, got %v", body["total"])
	}
}

func TestGenerateQuestionsEndpoint(t *testing.T) {
	server := newTestServer(t, testCountries())
	defer server.Close()

	body := getJSON(t, server, "/api/questions/easy/3", http.StatusOK)
	if body["success"] != true || body["difficulty"] != "easy" {
		t.Fatalf("unexpected response %+v", body)
	}
	questions := body["data"].([]any)
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	first := questions[0].(map[string]any)
	if len(first["options"].([]any)) != 4 {
		t.Fatalf("expected 4 options, got %+v", first["options"])
	}
	if _, ok := first["correctAnswerId"]; !ok {
		t.Fatalf("expected explicit correct answer id, got %+v", first)
	}
}

func TestGenerateQuestionsInsufficientPool(t *testing.T) {
	server := newTestServer(t, testCountries())
	defer server.Close()

	body := getJSON(t, server, "/api/questions/hard/3", http.StatusBadRequest)
	if body["success"] != false || body["error"] == "" {
		t.Fatalf("expected error envelope, got %+v", body)
	}
}

func TestQuestionsServiceUnavailableWithoutDataset(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	getJSON(t, server, "/api/questions/easy/3", http.StatusServiceUnavailable)

	// Health stays green with the dataset missing.
	body := getJSON(t, server, "/api/health", http.StatusOK)
	if body["status"] != "OK" || body["countriesLoaded"].(float64) != 0 {
		t.Fatalf("unexpected health %+v", body)
	}
}

func TestSubmitScoreAndLeaderboard(t *testing.T) {
	server := newTestServer(t, testCountries())
	defer server.Close()

	res := postJSON(t, server, "/api/scores", map[string]any{
		"userId":            "u1",
		"gameType":          "flag",
		"difficulty":        "easy",
		"score":             80,
		"questionsAnswered": 10,
		"correctAnswers":    8,
	}, http.StatusOK)
	data := res["data"].(map[string]any)
	if data["newBestScore"] != true || data["bestScore"].(float64) != 80 {
		t.Fatalf("unexpected submission result %+v", data)
	}
	levels := data["unlockedLevels"].([]any)
	if len(levels) != 2 || levels[1] != "medium" {
		t.Fatalf("expected medium unlocked, got %v", levels)
	}

	body := getJSON(t, server, "/api/leaderboard/flag/easy?limit=5", http.StatusOK)
	entries := body["data"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected 1 leaderboard entry, got %d", len(entries))
	}
	top := entries[0].(map[string]any)
	if top["userId"] != "u1" || top["rank"].(float64) != 1 || top["accuracy"].(float64) != 80 {
		t.Fatalf("unexpected top entry %+v", top)
	}

	progress := getJSON(t, server, "/api/user/u1/progress?gameType=flag", http.StatusOK)
	view := progress["data"].(map[string]any)
	if view["totalGamesPlayed"].(float64) != 1 {
		t.Fatalf("unexpected progress %+v", view)
	}
	high := view["highScores"].(map[string]any)
	if high["easy"].(float64) != 80 || high["medium"].(float64) != 0 {
		t.Fatalf("unexpected high scores %+v", high)
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	server := newTestServer(t, testCountries())
	defer server.Close()

	body := postJSON(t, server, "/api/scores", map[string]any{
		"gameType":   "flag",
		"difficulty": "easy",
		"score":      10,
	}, http.StatusBadRequest)
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %+v", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(t, testCountries())
	defer server.Close()

	body := getJSON(t, server, "/api/nope", http.StatusNotFound)
	if body["error"] != "Route not found" {
		t.Fatalf("unexpected 404 body %+v", body)
	}
}

func newTestServer(t *testing.T, countries []domain.Country) *httptest.Server {
	t.Helper()
	catalog := memory.NewCatalog(memory.NewStaticCountryLoader(countries), time.Minute)
	questions := app.NewQuestionServiceWithRand(catalog, rand.New(rand.NewSource(7)))
	progress := app.NewProgressService(memory.NewScoreStore(), memory.NewProgressStore())

	mux := http.NewServeMux()
	NewAPIHandler(questions, progress, catalog).Register(mux)
	return httptest.NewServer(mux)
}

func getJSON(t *testing.T, server *httptest.Server, path string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("get %s: status %d, want %d", path, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return body
}

func postJSON(t *testing.T, server *httptest.Server, path string, payload any, wantStatus int) map[string]any {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("post %s: status %d, want %d", path, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return body
}

func testCountries() []domain.Country {
	return []domain.Country{
		{ID: 1, Name: "France", Flag: "/flags/fr.png", Difficulty: domain.DifficultyEasy},
		{ID: 2, Name: "Japan", Flag: "/flags/jp.png", Difficulty: domain.DifficultyEasy},
		{ID: 3, Name: "Brazil", Flag: "/flags/br.png", Difficulty: domain.DifficultyEasy},
		{ID: 4, Name: "Canada", Flag: "/flags/ca.png", Difficulty: domain.DifficultyEasy},
		{ID: 5, Name: "Moldova", Flag: "/flags/md.png", Difficulty: domain.DifficultyHard},
	}
}
