package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"legal-rag/internal/config"
	"legal-rag/internal/db"
	"legal-rag/internal/handlers"
	"legal-rag/internal/repositories"
	"legal-rag/internal/routes"
	"legal-rag/internal/services"
)

// Server owns the HTTP server and the storage clients it was wired with.
type Server struct {
	httpServer *http.Server
	redis      *db.RedisClient
	chroma     *db.ChromaClient
	cfg        config.Config
	logger     *zap.Logger
}

// corsMiddleware adds CORS headers to all responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// New wires storage, providers, services and handlers into a ready
// HTTP server. Both storage backends must be reachable at startup.
func New(cfg config.Config, logger *zap.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()

	redisClient := db.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Info("redis connected", zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))

	chromaClient := db.NewChromaClient(cfg.Chroma)
	if err := chromaClient.Heartbeat(ctx); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("chromadb connection failed: %w", err)
	}
	if _, err := chromaClient.EnsureCollection(ctx, cfg.Chroma.Collection); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("chromadb collection setup failed: %w", err)
	}
	logger.Info("chromadb connected",
		zap.String("host", cfg.Chroma.Host),
		zap.Int("port", cfg.Chroma.Port),
		zap.String("collection", cfg.Chroma.Collection))

	docRepo := repositories.NewRedisDocumentRepository(redisClient.GetClient())
	vectorRepo := repositories.NewChromaVectorRepository(chromaClient, cfg.Chroma.Collection)

	fileStore, err := services.NewDiskFileStore(cfg.Ingestion.UploadDir)
	if err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("upload dir setup failed: %w", err)
	}

	llmClient := services.NewLLMClient(cfg.Providers)
	scrapeClient := services.NewScrapeClient(cfg.Providers)
	legalClient := services.NewLegalSearchClient(cfg.Providers)
	extractor := services.NewDocumentExtractor()

	ingestion := services.NewIngestionService(
		docRepo, vectorRepo, llmClient, extractor, fileStore,
		scrapeClient, legalClient, cfg.Ingestion, logger,
	)
	retrieval := services.NewRetrievalService(
		vectorRepo, docRepo, llmClient, scrapeClient,
		cfg.Retrieval, cfg.Ingestion.AllowedDomains, logger,
	)
	generation := services.NewGenerationService(retrieval, llmClient, cfg.Generation, logger)

	h := &routes.Handlers{
		Health:   handlers.NewHealthHandler(docRepo, vectorRepo, logger),
		Document: handlers.NewDocumentHandler(ingestion, docRepo, vectorRepo, logger),
		Search:   handlers.NewSearchHandler(retrieval, logger),
		Chat:     handlers.NewChatHandler(generation, logger),
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
	))

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: corsMiddleware(router),
		},
		redis:  redisClient,
		chroma: chromaClient,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// ListenAndServe starts serving requests. It blocks until Shutdown is
// called or the listener fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the storage clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.redis.Close(); cerr != nil && err == nil {
		err = cerr
	}
	s.chroma.Close()
	return err
}
