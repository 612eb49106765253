package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"markpad/internal/auth"
	"markpad/internal/db"
	mcpserver "markpad/internal/mcp"
	"markpad/internal/notes"
	"markpad/internal/users"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	// Config
	mongoURI := getEnv("MONGODB_URI", "mongodb://localhost:27017")
	port := getEnv("PORT", "3000")

	// Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Context for startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	logger.Info("connecting to MongoDB", "uri", mongoURI)
	database, err := db.Connect(ctx, mongoURI, "markpad")
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	logger.Info("connected to MongoDB")

	// Wire dependencies
	userRepo := users.NewRepo(database)
	sessionRepo := auth.NewSessionRepo(database)
	noteRepo := notes.NewRepo(database)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure user indexes", "error", err)
	}
	if err := sessionRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure session indexes", "error", err)
	}
	if err := noteRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure note indexes", "error", err)
	}

	sessions := auth.NewManager(sessionRepo, userRepo)
	authHandler := auth.NewHandler(sessions, userRepo, auth.NewHasher(), logger)
	noteSvc := notes.NewService(noteRepo)
	noteHandler := notes.NewHandler(noteSvc, logger)

	// Create MCP server
	mcpSrv := mcpserver.NewServer(sessions, noteSvc)

	// HTTP router
	mux := http.NewServeMux()

	// Auth endpoints
	mux.HandleFunc("POST /api/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/me", authHandler.Me)

	// Note endpoints
	mux.HandleFunc("GET /api/notes", noteHandler.ListNotes)
	mux.HandleFunc("POST /api/notes", noteHandler.CreateNote)
	mux.HandleFunc("DELETE /api/notes", noteHandler.DeleteArchived)
	mux.HandleFunc("GET /api/notes/{id}", noteHandler.GetNote)
	mux.HandleFunc("PATCH /api/notes/{id}", noteHandler.EditNote)
	mux.HandleFunc("POST /api/notes/{id}/archive", noteHandler.ArchiveNote)
	mux.HandleFunc("DELETE /api/notes/{id}", noteHandler.DeleteNote)

	// MCP endpoint (HTTP transport)
	// MCP uses POST for requests and GET for SSE streams
	mcpHTTP := server.NewStreamableHTTPServer(mcpSrv)
	mux.Handle("POST /mcp", mcpHTTP)
	mux.Handle("GET /mcp", mcpHTTP)
	mux.Handle("DELETE /mcp", mcpHTTP)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      auth.Middleware(sessions)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "port", port)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	logger.Info("server stopped")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
