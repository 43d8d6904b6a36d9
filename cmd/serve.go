package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/ingest-platform/internal/runstate"
	"github.com/killallgit/ingest-platform/internal/search"
	"github.com/killallgit/ingest-platform/pkg/config"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API for the active site",
	Long: `Start the HTTP server exposing /api/v1/search for the site named by
SITE_ID, restoring its search index from the blob store on first request.

Example:
  ingest-platform serve
  ingest-platform serve --port 9090`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	ctx := context.Background()
	_, store, err := newSiteBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	var runStore *runstate.Store
	db, err := openRunStateDB(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run-state database unavailable: %v\n", err)
	} else {
		defer func() { _ = db.Close() }()
		runStore = runstate.New(db.DB)
	}

	engine := search.NewEngine(store)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(search.CORS())
	if cfg.RateLimiting.Enabled {
		router.Use(search.RateLimit(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.Burst))
	}

	handler := search.NewHandler(engine)
	handler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "healthy", "site": cfg.Site.ID}
		if runStore != nil {
			if runs, err := runStore.Recent(c.Request.Context(), cfg.Site.ID, 1); err == nil && len(runs) > 0 {
				body["lastRun"] = runs[0]
			}
		}
		c.JSON(http.StatusOK, body)
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", serverHost, serverPort),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	serverErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	fmt.Printf("Serving search API for site %q at %s:%d\n", cfg.Site.ID, serverHost, serverPort)

	select {
	case <-stop:
		fmt.Println("\nShutting down server...")
	case err := <-serverErr:
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Server forced to shutdown: %v\n", err)
		return err
	}

	fmt.Println("Server gracefully stopped")
	return nil
}
