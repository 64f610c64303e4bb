package main

import (
	stdctx "context"
	"fmt"
	"log"
	"net/http"

	"threadpost/internal/config"
	"threadpost/internal/database"
	"threadpost/internal/engine"
	"threadpost/internal/handlers"
	"threadpost/internal/hooks"
	"threadpost/internal/middleware"
	"threadpost/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	metrics := utils.NewMetricsCollector()

	// Select the storage backend
	var db database.DBAdapter
	switch cfg.Database.Type {
	case "postgres":
		pg, err := database.NewPostgresDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		if err := pg.InitializeTables(stdctx.Background()); err != nil {
			log.Fatalf("Failed to initialize tables: %v", err)
		}
		db = pg
	case "memory":
		log.Println("Using in-memory storage, data will not persist")
		db = database.NewMemoryDB()
	default:
		log.Fatalf("Unsupported database type: %s", cfg.Database.Type)
	}
	defer db.Close(stdctx.Background())

	// Lifecycle hooks: audit log first so the history entry exists before the
	// edit notification that references the change goes out.
	registry := hooks.NewRegistry()
	registry.Register(hooks.NewAuditRecorder(db), hooks.EventMessageEdited)
	registry.Register(hooks.NewNotificationFanout(db),
		hooks.EventMessageCreated, hooks.EventMessageEdited, hooks.EventMessageRead)

	// Initialize actor system
	system := actor.NewActorSystem()
	appEngine := engine.NewEngine(system, db, registry, metrics)

	server := handlers.NewServer(system, system.Root, appEngine, metrics, db)

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	route := func(path string, handler http.HandlerFunc) {
		http.HandleFunc(path, middleware.ApplyCORS(middleware.ApplyJWTMiddleware(handler, path), corsConfig))
	}

	route("/health", server.HandleHealth())

	route("/user/register", server.HandleUserRegistration())
	route("/user/login", server.HandleUserLogin())
	route("/user/profile", server.HandleUserProfile())
	route("/user/summary", server.HandleUserDataSummary())
	route("/user", server.HandleDeleteUser())

	route("/messages", server.HandleMessages())
	route("/message", server.HandleMessage())
	route("/message/read", server.HandleMarkMessageRead())
	route("/message/history", server.HandleMessageHistory())
	route("/message/replies", server.HandleReplies())
	route("/message/thread", server.HandleThread())
	route("/messages/read-all", server.HandleMarkAllRead())
	route("/conversation", server.HandleConversation())

	route("/inbox", server.HandleInbox())
	route("/inbox/unread", server.HandleUnread())
	route("/inbox/unread/count", server.HandleUnreadCount())
	route("/inbox/unread/threads", server.HandleUnreadThreads())

	route("/notifications", server.HandleNotifications())

	if cfg.Server.MetricsEnabled {
		http.Handle("/metrics", metrics.Handler())
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, nil); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
