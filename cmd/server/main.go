package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/cors"

	"arcai/internal/auth"
	"arcai/internal/bus"
	"arcai/internal/capabilities"
	"arcai/internal/config"
	"arcai/internal/handler"
	"arcai/internal/handler/sse"
	"arcai/internal/httputil"
	"arcai/internal/middleware"
	"arcai/internal/repository/postgres"
	"arcai/internal/service/chat"
	"arcai/internal/service/image"
	"arcai/internal/service/links"
	"arcai/internal/service/llm"
	"arcai/internal/service/llm/providers/anthropic"
	"arcai/internal/service/llm/providers/lorem"
	openaiprovider "arcai/internal/service/llm/providers/openai"
	"arcai/internal/service/prefs"
	"arcai/internal/service/search"
	"arcai/internal/service/search/external"
	"arcai/internal/service/stream"
	"arcai/internal/storage"
	"arcai/internal/voice"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}

	sessionRepo := postgres.NewSessionRepository(repoConfig)
	messageRepo := postgres.NewMessageRepository(repoConfig)
	searchRepo := postgres.NewSearchSessionRepository(repoConfig)
	linkRepo := postgres.NewLinkListRepository(repoConfig)
	prefsRepo := postgres.NewUserPreferencesRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// LLM providers. Lorem is always available so dev works without keys.
	providerRegistry := llm.NewRegistry()
	providerRegistry.Register(lorem.NewProvider())
	if cfg.AnthropicAPIKey != "" {
		anthropicProvider, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			log.Fatalf("Failed to create anthropic provider: %v", err)
		}
		providerRegistry.Register(anthropicProvider)
	}
	if cfg.OpenAIAPIKey != "" {
		openaiProvider, err := openaiprovider.NewProvider(cfg.OpenAIAPIKey)
		if err != nil {
			log.Fatalf("Failed to create openai provider: %v", err)
		}
		providerRegistry.Register(openaiProvider)
	}
	logger.Info("llm providers registered", "providers", providerRegistry.Names())

	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}

	// Streaming executor registry with background cleanup of finished
	// executors.
	executorRegistry := stream.NewRegistry(time.Minute, 10*time.Minute)
	go executorRegistry.StartCleanup(ctx)

	eventBus := bus.New()

	tavilyClient := external.NewTavilyClient(cfg.TavilyAPIKey)

	uploader := storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket)
	openaiClient := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
	imageService := image.NewService(image.Deps{
		Client:       openaiClient,
		Messages:     messageRepo,
		Uploader:     uploader,
		Providers:    providerRegistry,
		DefaultModel: cfg.DefaultImageModel,
		Logger:       logger,
	})

	chatService := chat.NewService(chat.Deps{
		Sessions:     sessionRepo,
		Messages:     messageRepo,
		Prefs:        prefsRepo,
		Tx:           txManager,
		Executors:    executorRegistry,
		Providers:    providerRegistry,
		Searcher:     tavilyClient,
		Images:       imageService,
		Events:       eventBus,
		DefaultModel: cfg.DefaultModel,
		Logger:       logger,
	})
	go chatService.StartTitleWorker(ctx)
	go chatService.StartCanvasWorker(ctx)

	searchService := search.NewService(search.Deps{
		Sessions:     searchRepo,
		Providers:    providerRegistry,
		Searcher:     tavilyClient,
		DefaultModel: cfg.DefaultModel,
		Logger:       logger,
	})
	linksService := links.NewService(linkRepo, txManager, logger)
	prefsService := prefs.NewService(prefsRepo, logger)
	voiceProxy := voice.NewProxy(cfg.VoiceUpstreamURL, cfg.VoiceUpstreamKey, jwtVerifier, logger)

	chatHandler := handler.NewChatHandler(chatService, logger)
	streamHandler := handler.NewStreamHandler(chatService, sse.DefaultConfig(), logger)
	searchHandler := handler.NewSearchHandler(searchService, logger)
	linksHandler := handler.NewLinksHandler(linksService, logger)
	imagesHandler := handler.NewImagesHandler(imageService, logger)
	prefsHandler := handler.NewPrefsHandler(prefsService, logger)
	modelsHandler := handler.NewModelsHandler(capabilityRegistry)

	logger.Info("services initialized")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Session routes
	mux.HandleFunc("POST /api/sessions", chatHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions", chatHandler.ListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", chatHandler.GetSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", chatHandler.RenameSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", chatHandler.DeleteSession)

	// Message routes
	mux.HandleFunc("GET /api/sessions/{id}/messages", chatHandler.ListMessages)
	mux.HandleFunc("POST /api/sessions/{id}/messages", chatHandler.SendMessage)
	mux.HandleFunc("DELETE /api/sessions/{id}/messages", chatHandler.ClearMessages)
	mux.HandleFunc("PATCH /api/messages/{id}", chatHandler.EditMessage)

	// Streaming routes
	mux.HandleFunc("GET /api/messages/{id}/stream", streamHandler.StreamMessage)
	mux.HandleFunc("POST /api/messages/{id}/cancel", streamHandler.CancelMessage)

	// Canvas routes
	mux.HandleFunc("GET /api/sessions/{id}/canvas", chatHandler.GetCanvas)
	mux.HandleFunc("PUT /api/sessions/{id}/canvas", chatHandler.UpdateCanvas)

	// Search routes
	mux.HandleFunc("POST /api/search", searchHandler.RunSearch)
	mux.HandleFunc("GET /api/search/sessions", searchHandler.ListSessions)
	mux.HandleFunc("GET /api/search/sessions/{id}", searchHandler.GetSession)
	mux.HandleFunc("PUT /api/search/sessions/{id}", searchHandler.SyncSession)
	mux.HandleFunc("DELETE /api/search/sessions/{id}", searchHandler.DeleteSession)
	mux.HandleFunc("POST /api/search/sessions/{id}/followup", searchHandler.Followup)

	// Link routes
	mux.HandleFunc("GET /api/links", linksHandler.GetAll)
	mux.HandleFunc("PUT /api/links", linksHandler.Sync)
	mux.HandleFunc("POST /api/links/lists", linksHandler.CreateList)
	mux.HandleFunc("DELETE /api/links/{listID}", linksHandler.DeleteList)
	mux.HandleFunc("POST /api/links/{listID}", linksHandler.SaveLink)
	mux.HandleFunc("DELETE /api/links/{listID}/{linkID}", linksHandler.RemoveLink)

	// Image routes
	mux.HandleFunc("POST /api/images/generate", imagesHandler.Generate)
	mux.HandleFunc("POST /api/images/edit", imagesHandler.Edit)
	mux.HandleFunc("POST /api/images/analyze", imagesHandler.Analyze)

	// Voice relay (does its own token auth; the middleware skips it)
	mux.Handle("GET /api/voice/ws", voiceProxy)

	// Preferences and model capability routes
	mux.HandleFunc("GET /api/users/me/preferences", prefsHandler.Get)
	mux.HandleFunc("PATCH /api/users/me/preferences", prefsHandler.Update)
	mux.HandleFunc("GET /api/models/capabilities", modelsHandler.Capabilities)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	var httpHandler http.Handler = mux
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
