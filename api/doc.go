// Package api provides the HTTP REST API for trivia race sessions.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Sessions with leader, phase and winner
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Turn Operations:
//   - POST /api/sessions/{id}/turn - Draw the question for the current team
//   - POST /api/sessions/{id}/answer - Answer it ({"answer": 2} or {"letter": "C"})
//   - POST /api/sessions/{id}/timeout - The team ran out of time
//   - POST /api/sessions/{id}/roll - Roll and resolve the movement
//
// Game State:
//   - GET /api/sessions/{id}/state - Client state view, never includes answers
//   - GET /api/sessions/{id}/history - Event log (?page=&limit=&order=asc|desc)
//   - GET /api/sessions/{id}/standings - Teams ranked by progress
//
// Configuration and results:
//   - GET /api/configs - List available configurations
//   - POST /api/configs - Save a configuration (a full config JSON with its name)
//   - GET /api/configs/{name} - Get a configuration
//   - GET /api/results - Finished races (?limit=N)
//   - GET /api/health - Liveness probe
//
// WebSocket:
//   - GET /ws?session={id} - Live outcome, step and state_update messages
//
// Turn calls respond with the outcome of the call and the new state view.
// After every turn call the state view is also broadcast to the session's
// WebSocket viewers.
//
// Error Handling:
//
// Errors are returned as JSON:
//
//	{"error": "wrong phase: roll during awaiting_question"}
//
// Unknown sessions and configs map to 404, calls made in the wrong phase or
// after the race ended map to 409, malformed answers and configs map to 400.
package api
