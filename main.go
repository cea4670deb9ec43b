// Command triviarace starts the trivia race server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the config, session and database locations,
// logging, movement pacing and optional ngrok tunneling for easy external
// access during development. Every flag can also be set from the
// environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/triviarace/api"
	"github.com/wricardo/mcp-training/triviarace/game/config"
	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/questions"
	"github.com/wricardo/mcp-training/triviarace/game/service"
	"github.com/wricardo/mcp-training/triviarace/game/session"
	"github.com/wricardo/mcp-training/triviarace/game/store"
	"github.com/wricardo/mcp-training/triviarace/logging"
	"github.com/wricardo/mcp-training/triviarace/transport/mcp"
	"github.com/wricardo/mcp-training/triviarace/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Trivia Race Server"
)

// settings is the process configuration resolved from flags and environment
type settings struct {
	Port         int
	Host         string
	ConfigDir    string
	SessionsDir  string
	DBPath       string
	Environment  string
	LogLevel     string
	StepDelay    time.Duration
	QuestionMode string
	Ngrok        bool
	NgrokAuth    string
	NgrokDomain  string
}

func (s settings) addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// app holds the long-lived services shared by both modes
type app struct {
	service     service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	store       *store.Store
	hub         *websocket.Hub
	logger      zerolog.Logger
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	cmd := buildCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		if envErr != nil && !os.IsNotExist(envErr) {
			fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", envErr)
		}
		os.Exit(1)
	}
}

// buildCommand declares the CLI: global flags plus one subcommand per mode
func buildCommand() *cli.Command {
	return &cli.Command{
		Name:    "triviarace",
		Usage:   "Trivia-driven board race server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "db", Value: "data/triviarace.db", Usage: "SQLite file recording events and results", Sources: cli.EnvVars("DB_PATH")},
			&cli.StringFlag{Name: "env", Value: "development", Usage: "Environment (production logs JSON)", Sources: cli.EnvVars("ENVIRONMENT")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.DurationFlag{Name: "step-delay", Value: 150 * time.Millisecond, Usage: "Pause between broadcast movement steps", Sources: cli.EnvVars("STEP_DELAY")},
			&cli.StringFlag{Name: "question-mode", Value: string(questions.Sequential), Usage: "Question order: sequential or stage", Sources: cli.EnvVars("QUESTION_MODE")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  stdioAction,
			},
		},
		Action: serverAction,
	}
}

func settingsFrom(cmd *cli.Command) settings {
	return settings{
		Port:         int(cmd.Int("port")),
		Host:         cmd.String("host"),
		ConfigDir:    cmd.String("config-dir"),
		SessionsDir:  cmd.String("sessions-dir"),
		DBPath:       cmd.String("db"),
		Environment:  cmd.String("env"),
		LogLevel:     cmd.String("log-level"),
		StepDelay:    cmd.Duration("step-delay"),
		QuestionMode: cmd.String("question-mode"),
		Ngrok:        cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
	}
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	s := settingsFrom(cmd)
	logger := logging.Setup(s.Environment, s.LogLevel)
	logger.Info().Str("version", Version).Str("mode", "server").Msgf("Starting %s", AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := initializeServices(ctx, s, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer a.Close()

	return runHTTPServer(ctx, s, a)
}

func stdioAction(ctx context.Context, cmd *cli.Command) error {
	s := settingsFrom(cmd)
	// stdout carries the MCP protocol
	logger := logging.SetupWriter(os.Stderr, s.Environment, s.LogLevel)
	logger.Info().Str("version", Version).Str("mode", "stdio-mcp").Msgf("Starting %s", AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := initializeServices(ctx, s, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer a.Close()

	return runStdioMCPWithInternalServer(ctx, s, a)
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, s settings, a *app) error {
	logger := a.logger
	addr := s.addr()

	apiServer := api.NewServer(a.service, a.hub, api.WithResults(a.store), api.WithLogger(logger))

	// Create MCP client for /mcp endpoint
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		// Rolls wait for the paced step broadcast
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		logger.Info().Msgf("REST API: http://%s/api", addr)
		logger.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		logger.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if s.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, s, mainRouter, logger)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down...")
	case err = <-serveErr:
		logger.Error().Err(err).Msg("HTTP server failed")
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn().Err(shutdownErr).Msg("HTTP server shutdown error")
	}
	if saveErr := a.sessions.SaveAllSessions(); saveErr != nil {
		logger.Warn().Err(saveErr).Msg("Failed to save sessions on shutdown")
	}

	wg.Wait()
	logger.Info().Msg("Server stopped")
	return err
}

// mcpHandler serves single JSON-RPC messages over HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, s settings, handler http.Handler, logger zerolog.Logger) {
	if s.NgrokAuth == "" {
		logger.Warn().Msg("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	logger.Info().Msg("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if s.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.NgrokDomain))
		logger.Info().Str("domain", s.NgrokDomain).Msg("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(s.NgrokAuth))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logger.Info().Str("url", ngrokURL).Msg("Ngrok tunnel established")
	logger.Info().Msgf("  REST API (ngrok): %s/api", ngrokURL)
	logger.Info().Msgf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	logger.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn().Err(err).Msg("Ngrok server error")
	}
	logger.Info().Msg("Ngrok tunnel closed")
}

// newWiring assembles how session engines talk to the outside world: the
// question bank of the config directory, the live viewer hub and the
// SQLite recorder
func newWiring(s settings, configs *config.Manager, hub *websocket.Hub, db *store.Store, logger zerolog.Logger) (*service.Wiring, error) {
	mode, err := questions.ParseMode(s.QuestionMode)
	if err != nil {
		return nil, err
	}

	return &service.Wiring{
		Questions: configs.Questions(),
		Mode:      mode,
		Logger:    logger,
		Animator: func(id string) engine.Animator {
			return hub.StepAnimator(id, s.StepDelay)
		},
		Sink: func(id string, cfg *engine.GameConfig) engine.EventSink {
			return engine.MultiSink{
				hub.Sink(id),
				db.Sink(id, cfg.Name, logging.WithSession(logger, id)),
			}
		},
	}, nil
}

// initializeServices wires config, store, session managers and the game service.
// It also starts background routines to prune stale sessions.
func initializeServices(ctx context.Context, s settings, logger zerolog.Logger) (*app, error) {
	configManager, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	db, err := store.Open(s.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	hub := websocket.NewHubWithLogger(logger.With().Str("component", "websocket").Logger())
	go hub.Run(ctx)

	wiring, err := newWiring(s, configManager, hub, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	persistence, err := session.NewFilePersistence(s.SessionsDir, configManager, wiring)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	sessionManager.SetWiring(wiring)
	sessionManager.SetLogger(logger)

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn().Err(err).Msg("Failed to load persisted sessions")
	}

	gameService := service.NewGameServiceWithLogger(sessionManager, configManager, logger)

	go sessionCleanupRoutine(ctx, sessionManager, logger)
	go filesystemSyncRoutine(ctx, sessionManager, persistence, logger)

	return &app{
		service:     gameService,
		sessions:    sessionManager,
		persistence: persistence,
		store:       db,
		hub:         hub,
		logger:      logger,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				logger.Info().Int("removed", removed).Msg("Cleaned up expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine periodically removes sessions from memory when their
// files were deleted on disk.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, logger zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneOrphans(manager, persistence, logger); pruned > 0 {
				logger.Info().Int("pruned", pruned).Msg("Filesystem sync: pruned orphaned sessions from memory")
			}
		}
	}
}

func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence, logger zerolog.Logger) int {
	if persistence == nil {
		return 0
	}
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.Debug().Str("session", sess.ID).Msg("Pruned session from memory (file deleted)")
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured address; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, s settings, a *app) error {
	logger := a.logger
	externalURL := fmt.Sprintf("http://%s", s.addr())
	baseURL := externalURL

	logger.Info().Str("url", externalURL).Msg("Checking for external API server")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logger.Info().Str("url", externalURL).Msg("External API server found, using it for MCP")
	} else {
		logger.Info().Msg("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		httpServer := &http.Server{
			Handler: api.NewServer(a.service, a.hub, api.WithResults(a.store), api.WithLogger(logger)),
		}

		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
		logger.Info().Str("addr", internalAddr).Msg("Internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	if err := a.sessions.SaveAllSessions(); err != nil {
		logger.Warn().Err(err).Msg("Failed to save sessions on exit")
	}
	return nil
}
