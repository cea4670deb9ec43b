package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/service"
	"github.com/wricardo/mcp-training/triviarace/game/store"
)

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *service.StateView {
	return &service.StateView{
		ConfigName:  "classic",
		TurnNumber:  4,
		CurrentTeam: 1,
		Phase:       engine.PhaseAwaitingQuestion,
		Stage:       1,
		StageName:   "Foothills",
		PathLength:  42,
		Teams: []engine.Team{
			{ID: 0, Name: "Red", Position: 5, Durability: engine.Durability{Engine: 3, Tires: 2, Steering: 3}, CorrectCount: 2},
			{ID: 1, Name: "Blue", Position: engine.StagingPosition, Durability: engine.Durability{Engine: 3, Tires: 3, Steering: 3}, WrongCount: 1},
		},
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080/"
	client := NewClient(baseURL)

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]any
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Unexpected response %v", response)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"json error", http.StatusConflict, `{"error":"wrong phase: roll during awaiting_question"}`, "wrong phase"},
		{"plain error", http.StatusInternalServerError, "Internal Server Error", "API error: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).apiCall(context.Background(), "POST", "/api/sessions/x/roll", nil, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_createSession(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "ab12",
			ConfigName: "sprint",
			GameState:  sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), toolRequest("create_session", map[string]any{"config_name": "sprint"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "ab12") || !strings.Contains(text, "sprint") {
		t.Errorf("Expected session ID and config in result, got: %s", text)
	}
	if gotBody["config_id"] != "sprint" {
		t.Errorf("Expected config_id sprint in request, got %v", gotBody)
	}
}

func TestClient_handleAnswer(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		wantBody string
		wantErr  bool
	}{
		{"letter", map[string]any{"session_id": "ab12", "letter": "c"}, `"letter":"c"`, false},
		{"index", map[string]any{"session_id": "ab12", "index": float64(2)}, `"answer":2`, false},
		{"missing answer", map[string]any{"session_id": "ab12"}, "", true},
		{"missing session", map[string]any{"letter": "A"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/sessions/ab12/answer" {
					t.Errorf("Unexpected path %s", r.URL.Path)
				}
				data, _ := io.ReadAll(r.Body)
				gotBody = string(data)

				correct := true
				answer := 2
				json.NewEncoder(w).Encode(service.TurnOutcome{
					TurnResult:    &engine.TurnResult{TeamID: 0, Phase: engine.PhaseAwaitingRoll, Correct: &correct},
					CorrectAnswer: &answer,
					Message:       "Correct! Red may roll.",
					State:         sampleState(),
				})
			}))
			defer server.Close()

			result, err := NewClient(server.URL).handleAnswer(context.Background(), toolRequest("answer", tt.args))
			if err != nil {
				t.Fatalf("handleAnswer returned error: %v", err)
			}
			if result.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v", result.IsError, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !strings.Contains(gotBody, tt.wantBody) {
				t.Errorf("Expected request body containing %s, got %s", tt.wantBody, gotBody)
			}
			text := resultText(t, result)
			if !strings.Contains(text, "✓ Correct (answer: C)") {
				t.Errorf("Expected verdict in result, got: %s", text)
			}
		})
	}
}

func TestClient_handleRollPropagatesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "wrong phase: roll during awaiting_question"})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleRoll(context.Background(), toolRequest("roll", map[string]any{"session_id": "ab12"}))
	if err != nil {
		t.Fatalf("handleRoll returned error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error result")
	}
}

func TestClient_handleHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "5" || q.Get("order") != "asc" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(service.HistoryResponse{
			Events: []engine.Event{
				{Kind: engine.EventRoll, Turn: 3, Message: "Red rolled 4"},
				{Kind: engine.EventCheckpoint, Turn: 3, Message: "Red passed checkpoint 13"},
			},
			TotalEvents: 12,
			Page:        2,
			PageSize:    5,
			TotalPages:  3,
			HasNext:     true,
		})
	}))
	defer server.Close()

	args := map[string]any{"session_id": "ab12", "page": float64(2), "limit": float64(5), "order": "asc"}
	result, err := NewClient(server.URL).handleHistory(context.Background(), toolRequest("history", args))
	if err != nil {
		t.Fatalf("handleHistory failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Page 2/3", "Total: 12", "[turn 3] roll: Red rolled 4", "More events on page 3"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in history, got: %s", want, text)
		}
	}
}

func TestClient_handleResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "3" {
			t.Errorf("Expected limit=3, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []store.Result{
			{SessionID: "ab12", ConfigName: "classic", WinnerName: "Red", Turns: 31, FinishedAt: time.Now()},
		}})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleResults(context.Background(), toolRequest("recent_results", map[string]any{"limit": float64(3)}))
	if err != nil {
		t.Fatalf("handleResults failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Red won on turn 31") {
		t.Errorf("Expected winner line, got: %s", text)
	}
}

func TestFormatState(t *testing.T) {
	state := sampleState()
	state.Question = &service.QuestionView{ID: 7, Stage: 1, Text: "Capital of France?", Options: []string{"Lyon", "Paris"}}

	result := formatState(state)

	expected := []string{
		"Turn 4 • Phase: awaiting_question • Stage 1: Foothills",
		"Current team: Blue",
		"Question #7 (stage 1): Capital of France?",
		"B) Paris",
		"- Red: 5/41 [E3 T2 S3]",
		"- Blue: staging",
	}
	for _, field := range expected {
		if !strings.Contains(result, field) {
			t.Errorf("Expected '%s' in formatted output, got: %s", field, result)
		}
	}
}

func TestFormatState_Winner(t *testing.T) {
	state := sampleState()
	winner := 0
	state.GameOver = true
	state.Winner = &winner
	state.Phase = engine.PhaseGameOver

	result := formatState(state)

	if !strings.Contains(result, "🏆 WINNER: Red") {
		t.Errorf("Expected winner line, got: %s", result)
	}
	if strings.Contains(result, "Current team") {
		t.Errorf("Finished race should not show a current team: %s", result)
	}
}

func TestFormatOutcome_Roll(t *testing.T) {
	out := &service.TurnOutcome{
		TurnResult: &engine.TurnResult{
			TeamID:   0,
			Phase:    engine.PhaseAwaitingQuestion,
			Movement: &engine.Movement{Mode: engine.ModeDefault, Rolls: []int{4}, Steps: 4, Direction: engine.Forward},
			From:     10,
			To:       14,
			Crossed:  []int{13},
			Tile: &engine.TileOutcome{
				Tile:       engine.TileRepairAll,
				Applied:    true,
				Descriptor: engine.DescribeTile(engine.TileRepairAll),
			},
			Events: []engine.Event{{Kind: engine.EventCheckpoint, Message: "Red passed checkpoint 13"}},
		},
		State: sampleState(),
	}

	result := formatOutcome(out)

	for _, want := range []string{"Rolled [4] (default): 4 steps, 10 → 14", "Checkpoints passed: [13]", "Supply Depot", "- checkpoint: Red passed checkpoint 13"} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in outcome, got: %s", want, result)
		}
	}
}

func TestFormatStandings(t *testing.T) {
	result := formatStandings([]engine.Standing{
		{Rank: 1, Name: "Red", Position: 14, StageName: "Foothills", Condition: "healthy", CorrectCount: 4},
		{Rank: 2, Name: "Blue", InStaging: true, StageName: "Start", Condition: "healthy", WrongCount: 2},
	})

	if !strings.Contains(result, "1. Red: tile 14") || !strings.Contains(result, "2. Blue: staging") {
		t.Errorf("Unexpected standings output: %s", result)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", map[string]any{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"Trivia Race - Complete Instructions", "TURN FLOW:", "VEHICLE PARTS:", "COMBO:", "TILES:"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}
