package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ridwanfathin/invoice-extraction-service/internal/config"
	"github.com/ridwanfathin/invoice-extraction-service/internal/handler"
	"github.com/ridwanfathin/invoice-extraction-service/internal/middleware"
	"github.com/ridwanfathin/invoice-extraction-service/internal/model"

	// Registers the OpenAPI document served by the Swagger UI
	_ "github.com/ridwanfathin/invoice-extraction-service/docs"
)

// shutdownTimeout bounds how long in-flight requests get to finish
const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server for the invoice extraction service
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	logger     *slog.Logger
}

// NewServer creates and configures a new server instance
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	// Create router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestResponseLogger(middleware.LoggerConfig{
		Logger:    logger,
		LogBodies: cfg.LogLevel == "debug",
	}))

	// Create server
	server := &Server{
		router: router,
		config: cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	// Configure routes
	server.setupRoutes()

	return server
}

// Router returns the gin router instance
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the routes that do not depend on a handler
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.HealthResponse{Status: "ok"})
	})

	// API documentation endpoints
	// Access the Swagger UI at http://localhost:8080/api-docs/index.html
	swaggerHandler := ginSwagger.WrapHandler(swaggerFiles.Handler)
	s.router.GET("/api-docs/*any", swaggerHandler)

	s.router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})

	// Locally stored invoice images
	if s.config.ImageStorage == config.ImageStorageLocal {
		s.router.Static(s.config.StaticURLPrefix, s.config.StaticDir)
	}
}

// RegisterInvoiceRoutes registers the invoice API routes
func (s *Server) RegisterInvoiceRoutes(invoiceHandler *handler.InvoiceHandler) {
	invoiceHandler.RegisterRoutes(s.router)
}

// Start begins listening for requests and handles graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Start server in a goroutine
	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", slog.Int("port", s.config.Port))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal or a listen failure
	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		s.logger.Info("server.shutdown.start", slog.String("signal", sig.String()))
	}

	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server.shutdown.ok")
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}
