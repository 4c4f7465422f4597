package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"canvasgroup/internal/config"
	"canvasgroup/internal/domain"
	"canvasgroup/internal/handler"
	"canvasgroup/internal/hub"
	"canvasgroup/internal/loader"
	"canvasgroup/internal/repository/sqlite"
	"canvasgroup/internal/service"
	"canvasgroup/internal/watcher"
)

func main() {
	// Command line flags override the config file
	configPath := flag.String("config", "", "Config file path (default: search "+config.EnvConfigPath+" and standard locations)")
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite journal path")
	scenePath := flag.String("scene", "", "Seed scene file (YAML or JSON)")
	debug := flag.Bool("debug", false, "Validate the tree after every mutation")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting canvasgroup server...")

	var (
		cfg     *config.Config
		cfgFrom string
		err     error
	)
	if *configPath != "" {
		cfg, cfgFrom, err = config.LoadFromPath(*configPath)
	} else {
		cfg, cfgFrom, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *scenePath != "" {
		cfg.Scene.Path = *scenePath
	}
	if *debug {
		cfg.Editor.DebugInvariants = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfgFrom != "" {
		log.Printf("Config loaded: %s", cfgFrom)
	}
	log.Printf("Configuration:\n%s", cfg.Summary())

	domain.SetDebug(cfg.Editor.DebugInvariants)

	// Initialize edit journal
	journal, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer journal.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	// Load the seed scene, or start from an empty global group
	root := domain.NewGroup(domain.GlobalGroupID)
	if cfg.Scene.Path != "" {
		root, _, err = loader.LoadTree(cfg.Scene.Path)
		if err != nil {
			log.Fatalf("Failed to load scene: %v", err)
		}
		items, wires, groups := root.Counts()
		log.Printf("Scene loaded: %s (%d items, %d wires, %d groups)", cfg.Scene.Path, items, wires, groups)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize event bus and SSE hub
	eventBus := service.NewEventBus()
	// the hub stops first on shutdown so open streams do not hold it up
	hubCtx, hubCancel := context.WithCancel(ctx)
	defer hubCancel()
	sseHub := hub.New(cfg.Editor.EventBuffer)
	go sseHub.Run(hubCtx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, cfg.Editor.EventBuffer)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventChan:
				sseHub.Broadcast(hub.Message{Event: string(ev.Type), ID: ev.Version, Data: ev})
			}
		}
	}()

	// Start the edit thread
	editor := service.NewEditor(root, service.Options{
		Journal:     journal,
		Bus:         eventBus,
		GroupWidth:  cfg.Editor.Group.Width,
		GroupHeight: cfg.Editor.Group.Height,
	})
	editorDone := make(chan struct{})
	go func() {
		defer close(editorDone)
		if err := editor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Editor stopped: %v", err)
		}
	}()

	// Reload the tree when the scene file changes
	if cfg.Scene.Watch {
		w := watcher.New(cfg.Scene.Path, editor.Replace).WithDebounce(cfg.Scene.Debounce.Duration())
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Scene watcher stopped: %v", err)
			}
		}()
		log.Printf("Watching scene file: %s", cfg.Scene.Path)
	}

	// Setup HTTP routes
	mux := http.NewServeMux()
	handler.NewTreeHandler(editor, journal).WithScenePath(cfg.Scene.Path).Register(mux)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := newServer(cfg.Server, finalHandler, hubCancel)

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Stop the edit thread once no handler can submit to it
	cancel()
	<-editorDone
	log.Printf("Editor stopped after %d edits", editor.Edits())

	log.Println("Server stopped")
}

// newServer creates the HTTP server. onShutdown runs as soon as Shutdown is
// called, before Shutdown waits for active connections.
func newServer(cfg config.ServerConfig, h http.Handler, onShutdown ...func()) *http.Server {
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout.Duration(),
		WriteTimeout: cfg.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}
	for _, fn := range onShutdown {
		server.RegisterOnShutdown(fn)
	}
	return server
}
