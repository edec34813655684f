// Package main Legal RAG API Server
//
//	@title			Legal RAG API
//	@version		1.0
//	@description	Retrieval-augmented question answering over Indian legal and financial documents
//
//	@host		localhost:8080
//	@BasePath	/
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "legal-rag/docs" // swagger docs registration
	"legal-rag/internal/config"
	"legal-rag/internal/logger"
	"legal-rag/internal/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	srv, err := server.New(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		zlog.Fatal("server failed", zap.Error(err))
	case sig := <-stop:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
}
