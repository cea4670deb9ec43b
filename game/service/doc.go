// Package service provides the business logic layer for the trivia race server.
//
// The service package implements:
//   - Multi-session game management
//   - Turn operations (begin, answer, timeout, roll) with per-session locking
//   - Client views that never leak the pending question's answer
//   - Event history pagination and standings
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
// Wiring decides how each session's engine is assembled.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the turn engine. Each session owns an engine and a question deck. Calls for
// one session are serialized by the session lock, so a slow animated roll
// never blocks other games.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	turn, err := gameService.BeginTurn(ctx, info.ID)
//	turn, err = gameService.Answer(ctx, info.ID, 2)
//	turn, err = gameService.Roll(ctx, info.ID)
package service
