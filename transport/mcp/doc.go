// Package mcp exposes trivia races to AI agents through the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST call against a
// running server, so agents and browser viewers share the same sessions.
//
// MCP Tools:
//   - create_session, get_session, list_sessions: session management
//   - game_state: phase, open question and team positions
//   - begin_turn: draw the question for the current team
//   - answer: answer by option letter or 0-based index
//   - timeout: the current team ran out of time
//   - roll: roll and resolve the movement after a correct answer
//   - history: paginated event log
//   - standings: teams ranked by progress
//   - list_configs, recent_results: configurations and finished races
//   - game_instructions: complete rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
