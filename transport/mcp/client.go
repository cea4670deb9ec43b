package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/service"
	"github.com/wricardo/mcp-training/triviarace/game/store"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			// Rolls wait for the step animation of long moves
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Trivia Race",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Trivia Race - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Teams race along a path of tiles. Answer a trivia question correctly to earn
a dice roll, then move. The first team to reach the finish tile wins.

TURN FLOW:
1. begin_turn - draw the question for the current team
2. answer (or timeout) - a wrong answer or timeout passes the turn
3. roll - after a correct answer, roll and move

AVAILABLE TOOLS:
- create_session, get_session, list_sessions: session management
- game_state: current phase, question and team positions
- begin_turn, answer, timeout, roll: play the current turn
- history: past turn events
- standings: teams ranked by progress
- list_configs, recent_results: configurations and finished races
- game_instructions: complete rules`),
	)

	c.registerTools()
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"session_id": map[string]any{
				"type":        "string",
				"description": "Session ID",
			},
		},
		Required: []string{"session_id"},
	}
}

func emptySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]any{},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new race session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_name": map[string]any{
					"type":        "string",
					"description": "Name of the config to use (optional, defaults to classic)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active race sessions",
		InputSchema: emptySchema(),
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Turn operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current race state: phase, open question and team positions",
		InputSchema: sessionOnlySchema(),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "begin_turn",
		Description: "Draw the trivia question for the team whose turn it is",
		InputSchema: sessionOnlySchema(),
	}, c.handleBeginTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "answer",
		Description: "Answer the open question by option letter (A, B, C...) or 0-based index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": map[string]any{
					"type":        "string",
					"description": "Session ID",
				},
				"letter": map[string]any{
					"type":        "string",
					"description": "Option letter, e.g. B",
				},
				"index": map[string]any{
					"type":        "integer",
					"description": "0-based option index, used when letter is empty",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of why this option was chosen",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAnswer)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "timeout",
		Description: "Report that the current team ran out of time; the turn passes",
		InputSchema: sessionOnlySchema(),
	}, c.handleTimeout)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "roll",
		Description: "Roll the dice after a correct answer and resolve the movement",
		InputSchema: sessionOnlySchema(),
	}, c.handleRoll)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "history",
		Description: "Get the event history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": map[string]any{
					"type":        "string",
					"description": "Session ID",
				},
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]any{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "standings",
		Description: "Get the teams ranked by progress",
		InputSchema: sessionOnlySchema(),
	}, c.handleStandings)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available race configurations",
		InputSchema: emptySchema(),
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "recent_results",
		Description: "List recently finished races",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Number of results (default 10)",
				},
			},
		},
	}, c.handleResults)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: emptySchema(),
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configName := request.GetString("config_name", "")

	body := map[string]string{}
	if configName != "" {
		body["config_id"] = configName
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil {
			status = fmt.Sprintf("turn %d, %s", s.GameState.TurnNumber, s.GameState.Phase)
			if s.GameState.GameOver {
				status = "finished"
			}
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s, %s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), status)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state service.StateView
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatState(&state)), nil
}

func (c *Client) handleBeginTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.turnCall(ctx, request, "/turn", nil)
}

func (c *Client) handleAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// The intent argument is only for the agent's own reasoning
	body := map[string]any{}
	if letter := strings.TrimSpace(request.GetString("letter", "")); letter != "" {
		body["letter"] = letter
	} else if _, ok := request.GetArguments()["index"]; ok {
		body["answer"] = request.GetInt("index", 0)
	} else {
		return mcp.NewToolResultError("letter or index is required"), nil
	}
	return c.turnCall(ctx, request, "/answer", body)
}

func (c *Client) handleTimeout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.turnCall(ctx, request, "/timeout", nil)
}

func (c *Client) handleRoll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.turnCall(ctx, request, "/roll", nil)
}

// turnCall posts one turn operation and renders its outcome
func (c *Client) turnCall(ctx context.Context, request mcp.CallToolRequest, suffix string, body any) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var outcome service.TurnOutcome
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), body, &outcome); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatOutcome(&outcome)), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleStandings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		SessionID string            `json:"session_id"`
		Standings []engine.Standing `json:"standings"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/standings"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStandings(response.Standings)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Teams: %d, Path: %d tiles, Checkpoints: %d, Stages: %d\n\n",
			config.Name, config.ConfigID, config.Description,
			config.Teams, config.PathLength, config.Checkpoints, config.Stages)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/results"
	if limit := request.GetInt("limit", 0); limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var response struct {
		Results []store.Result `json:"results"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Results) == 0 {
		return mcp.NewToolResultText("No finished races yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Finished Races (%d):\n\n", len(response.Results))
	for _, r := range response.Results {
		fmt.Fprintf(&b, "- %s [%s]: %s won on turn %d (%s)\n",
			r.SessionID, r.ConfigName, r.WinnerName, r.Turns, r.FinishedAt.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🏁 Trivia Race - Complete Instructions

GAME OBJECTIVE:
Several teams race along a winding path. The first team to land on or pass
the finish tile wins the race.

TURN FLOW:
1. begin_turn draws a question matching the current stage of the race.
2. answer it with an option letter, or call timeout when time runs out.
   • Wrong answer or timeout: the turn passes to the next team.
   • Correct answer by a team in staging: the team enters the track on tile 0.
   • Correct answer on the track: call roll to move.
3. roll throws the dice and resolves the movement, the tile effect and the
   end-of-turn wear. The turn then passes to the next team.

STAGES:
Checkpoints divide the path into stages. The furthest team sets the stage,
and later stages draw harder questions.

VEHICLE PARTS:
Every vehicle has an engine, tires and steering. Parts wear down every few
turns and when hit by hazards.
• Engine broken: the roll is halved.
• Steering broken: an odd roll moves backwards.
• Tires broken: landing on a bonus tile slides one tile further.
• Everything broken: a 1 sends the team back, 6 jumps to the next checkpoint.
Passing a checkpoint repairs the vehicle and grants a turn without wear.

COMBO:
Consecutive correct answers build a combo. At the threshold every roll gets
a bonus step.

TILES:
• Mines and hazards damage parts; repair shops and depots fix them.
• Tailwind doubles the next roll, Shelter prevents wear for a turn.
• Ambush skips the next turn, Crossroads and Traps swap places with the
  nearest team, Airlift flies ahead to the next checkpoint.

TIPS:
• game_state never reveals the correct answer; answer carefully.
• standings shows who leads and the condition of each vehicle.
• history lists every event: rolls, checkpoints, tile effects and wear.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatters

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nCreated: %s\nPath: %d tiles\n",
		session.ID, session.ConfigName, session.CreatedAt.Format(time.RFC3339), len(session.Path))
	if session.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatState(session.GameState))
	}
	return b.String()
}

func formatState(state *service.StateView) string {
	if state == nil {
		return "State: unavailable\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d • Phase: %s • Stage %d: %s\n",
		state.TurnNumber, state.Phase, state.Stage, state.StageName)
	if state.CurrentTeam >= 0 && state.CurrentTeam < len(state.Teams) && !state.GameOver {
		fmt.Fprintf(&b, "Current team: %s\n", state.Teams[state.CurrentTeam].Name)
	}
	if state.ComboBonus > 0 {
		fmt.Fprintf(&b, "Combo bonus: +%d\n", state.ComboBonus)
	}
	if state.Question != nil {
		b.WriteString("\n")
		b.WriteString(formatQuestion(state.Question))
	}

	b.WriteString("\nTeams:\n")
	for _, team := range state.Teams {
		b.WriteString(formatTeamLine(team, state.PathLength))
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", state.Message)
	}
	if state.GameOver && state.Winner != nil && *state.Winner < len(state.Teams) {
		fmt.Fprintf(&b, "🏆 WINNER: %s\n", state.Teams[*state.Winner].Name)
	}
	return b.String()
}

func formatQuestion(q *service.QuestionView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question #%d (stage %d): %s\n", q.ID, q.Stage, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "  %c) %s\n", 'A'+i, opt)
	}
	return b.String()
}

func formatTeamLine(team engine.Team, pathLength int) string {
	pos := "staging"
	if !team.InStaging() {
		pos = fmt.Sprintf("%d/%d", team.Position, pathLength-1)
	}
	var flags []string
	if team.Status.IsFrozen {
		flags = append(flags, "frozen")
	}
	if team.Status.HasDoubleDiceNextRoll {
		flags = append(flags, "double dice")
	}
	if team.Status.ImmuneTurnsRemaining > 0 || team.Status.ImmuneNextTurn {
		flags = append(flags, "immune")
	}
	line := fmt.Sprintf("- %s: %s [E%d T%d S%d] ✓%d ✗%d",
		team.Name, pos, team.Durability.Engine, team.Durability.Tires, team.Durability.Steering,
		team.CorrectCount, team.WrongCount)
	if len(flags) > 0 {
		line += " (" + strings.Join(flags, ", ") + ")"
	}
	return line + "\n"
}

func formatOutcome(out *service.TurnOutcome) string {
	var b strings.Builder

	if out.Message != "" {
		b.WriteString(out.Message)
		b.WriteString("\n")
	}
	if out.Question != nil {
		b.WriteString("\n")
		b.WriteString(formatQuestion(out.Question))
	}
	if out.TurnResult != nil {
		r := out.TurnResult
		if r.Correct != nil {
			verdict := "✗ Wrong"
			if *r.Correct {
				verdict = "✓ Correct"
			}
			b.WriteString(verdict)
			if out.CorrectAnswer != nil {
				fmt.Fprintf(&b, " (answer: %c)", 'A'+*out.CorrectAnswer)
			}
			b.WriteString("\n")
		}
		if r.TimedOut {
			b.WriteString("⏱ Time expired\n")
		}
		if m := r.Movement; m != nil {
			fmt.Fprintf(&b, "Rolled %v (%s): %d steps, %d → %d\n", m.Rolls, m.Mode, m.Steps*m.Direction, r.From, r.To)
		}
		if len(r.Crossed) > 0 {
			fmt.Fprintf(&b, "Checkpoints passed: %v\n", r.Crossed)
		}
		if t := r.Tile; t != nil && t.Applied {
			fmt.Fprintf(&b, "%s %s: %s\n", t.Descriptor.Icon, t.Descriptor.Title, t.Descriptor.Text)
		}
		if len(r.Events) > 0 {
			b.WriteString("\nEvents:\n")
			for _, ev := range r.Events {
				fmt.Fprintf(&b, "- %s: %s\n", ev.Kind, ev.Message)
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(formatState(out.State))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event History (Page %d/%d) • Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalEvents)

	for _, ev := range history.Events {
		fmt.Fprintf(&b, "[turn %d] %s: %s\n", ev.Turn, ev.Kind, ev.Message)
	}
	if history.HasNext {
		fmt.Fprintf(&b, "\nMore events on page %d\n", history.Page+1)
	}
	return b.String()
}

func formatStandings(standings []engine.Standing) string {
	var b strings.Builder
	b.WriteString("Standings:\n\n")
	for _, s := range standings {
		pos := "staging"
		if !s.InStaging {
			pos = fmt.Sprintf("tile %d", s.Position)
		}
		fmt.Fprintf(&b, "%d. %s: %s, stage %s, vehicle %s (✓%d ✗%d)\n",
			s.Rank, s.Name, pos, s.StageName, s.Condition, s.CorrectCount, s.WrongCount)
	}
	return b.String()
}
