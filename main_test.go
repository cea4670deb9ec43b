package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/service"
	"github.com/wricardo/mcp-training/triviarace/game/session"
	"github.com/wricardo/mcp-training/triviarace/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Trivia Race Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

// parseSettings runs the command with an action that only captures settings
func parseSettings(t *testing.T, args ...string) settings {
	t.Helper()
	var got settings
	cmd := buildCommand()
	cmd.Commands = nil
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		got = settingsFrom(c)
		return nil
	}
	if err := cmd.Run(context.Background(), append([]string{"triviarace"}, args...)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return got
}

func TestFlagDefaults(t *testing.T) {
	s := parseSettings(t)

	if s.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", s.Port)
	}
	if s.Host != "localhost" {
		t.Errorf("Expected default host localhost, got %s", s.Host)
	}
	if s.ConfigDir != "configs" || s.SessionsDir != "sessions" {
		t.Errorf("Unexpected default directories %q %q", s.ConfigDir, s.SessionsDir)
	}
	if s.StepDelay != 150*time.Millisecond {
		t.Errorf("Expected default step delay 150ms, got %v", s.StepDelay)
	}
	if s.Ngrok {
		t.Error("Ngrok should be disabled by default")
	}
}

func TestFlagsAndEnvironment(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/race.db")
	t.Setenv("NGROK_AUTH_TOKEN", "secret")

	s := parseSettings(t, "--port", "9090", "--step-delay", "0s", "--question-mode", "stage")

	if s.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", s.Port)
	}
	if s.StepDelay != 0 {
		t.Errorf("Expected no step delay, got %v", s.StepDelay)
	}
	if s.QuestionMode != "stage" {
		t.Errorf("Expected stage question mode, got %s", s.QuestionMode)
	}
	if s.DBPath != "/tmp/race.db" {
		t.Errorf("Expected DB_PATH from environment, got %s", s.DBPath)
	}
	if s.NgrokAuth != "secret" {
		t.Errorf("Expected ngrok token from NGROK_AUTH_TOKEN, got %q", s.NgrokAuth)
	}
	if s.addr() != "localhost:9090" {
		t.Errorf("Unexpected addr %s", s.addr())
	}
}

func testSettings(t *testing.T) settings {
	dir := t.TempDir()
	return settings{
		Port:         0,
		Host:         "127.0.0.1",
		ConfigDir:    "configs",
		SessionsDir:  filepath.Join(dir, "sessions"),
		DBPath:       filepath.Join(dir, "race.db"),
		QuestionMode: "sequential",
	}
}

func TestInitializeServices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := initializeServices(ctx, testSettings(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer a.Close()

	sess, err := a.service.CreateSession(ctx, "sprint")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if _, err := a.service.BeginTurn(ctx, sess.ID); err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}

	// The store sink records the events of the session
	deadline := time.Now().Add(time.Second)
	for {
		events, err := a.store.Events(sess.ID)
		if err != nil {
			t.Fatalf("Events() error = %v", err)
		}
		if len(events) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("No events recorded for the new session")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	s := testSettings(t)
	s.ConfigDir = "/non/existent/path"

	if _, err := initializeServices(context.Background(), s, zerolog.Nop()); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestInitializeServices_InvalidQuestionMode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := testSettings(t)
	s.QuestionMode = "random"

	if _, err := initializeServices(ctx, s, zerolog.Nop()); err == nil {
		t.Error("Expected error for unknown question mode")
	}
}

type fakePersistence struct {
	existing map[string]bool
}

func (f *fakePersistence) Save(*service.Session) error           { return nil }
func (f *fakePersistence) Load(string) (*service.Session, error) { return nil, service.ErrSessionNotFound }
func (f *fakePersistence) Delete(string) error                   { return nil }
func (f *fakePersistence) ListAll() ([]string, error)            { return nil, nil }
func (f *fakePersistence) Exists(id string) bool                 { return f.existing[id] }

func TestPruneOrphans(t *testing.T) {
	persistence := &fakePersistence{existing: map[string]bool{}}
	manager := session.NewManagerWithPersistence(persistence)

	kept, err := manager.Create("kept", engine.DefaultGameConfig())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := manager.Create("dropped", engine.DefaultGameConfig()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	persistence.existing[kept.ID] = true

	if pruned := pruneOrphans(manager, persistence, zerolog.Nop()); pruned != 1 {
		t.Fatalf("Expected 1 pruned session, got %d", pruned)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session left in memory, got %d", manager.Count())
	}
	if err := manager.DeleteFromMemory("dropped"); err == nil {
		t.Error("Session without a file should no longer be in memory")
	}
	if _, err := manager.Get(kept.ID); err != nil {
		t.Errorf("Session with a file should be kept: %v", err)
	}
	if pruneOrphans(manager, nil, zerolog.Nop()) != 0 {
		t.Error("Nothing is pruned without persistence")
	}
}

func TestMCPHandlerRejectsGet(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://localhost:8080"))

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}
