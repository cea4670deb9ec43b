// Package websocket streams race progress to viewers.
//
// A central Hub keeps the connected clients of every session and fans out
// three kinds of messages:
//   - outcome: every engine event (answers, rolls, checkpoints, tile effects, victory)
//   - step: one message per single-tile move while a team walks the path
//   - state_update: the full client state view after a turn call
//
// Clients pick their session with the sessionId query parameter
// (/ws?sessionId=abc1). Viewers never send commands; turns are played through
// the REST API or MCP tools.
//
// Usage:
//
//	hub := websocket.NewHubWithLogger(logger)
//	go hub.Run(ctx)
//
//	wiring.Sink = func(id string, _ *engine.GameConfig) engine.EventSink { return hub.Sink(id) }
//	wiring.Animator = func(id string) engine.Animator { return hub.StepAnimator(id, 150*time.Millisecond) }
//
// Broadcasting never blocks the engine. Messages beyond the queue capacity are
// dropped with a warning, and a client whose buffer is full is disconnected.
package websocket
