package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"shortsmith/config"
	"shortsmith/handlers"
	"shortsmith/models"
	"shortsmith/services"
	"shortsmith/store"
	"shortsmith/utils"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "shortsmith",
		Short:        "Assemble narrated short-form videos with ffmpeg",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newRenderCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log.Printf("Configuration loaded: %s", cfg)
			return serve(cmd.Context(), cfg)
		},
	}
}

func newRenderCmd() *cobra.Command {
	var manifestPath, outputPath, workDir string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene manifest to an MP4 file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			manifest, err := models.LoadManifest(manifestPath)
			if err != nil {
				return err
			}

			aspect, err := models.ParseAspect(cfg.DefaultAspect)
			if err != nil {
				return err
			}
			ffmpeg := utils.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath)
			renderer := services.NewRenderer(ffmpeg, cfg.Render, aspect, cfg.FontPath)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := renderer.Render(ctx, services.RenderRequest{
				Scenes:     manifest.Scenes,
				Options:    manifest.Options,
				OutputPath: outputPath,
				WorkDir:    workDir,
				Progress: func(step string, progress int) {
					log.Printf("[render] %s (%d%%)", step, progress)
				},
			})
			if err != nil {
				return err
			}

			for _, skipped := range result.Report.SkippedScenes {
				log.Printf("[render] scene %d skipped: %v", skipped.Index, skipped.Err)
			}
			for _, dropped := range result.Report.DroppedFeatures {
				log.Printf("[render] %s dropped: %v", dropped.Feature, dropped.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%.2fs, %d scenes)\n", result.OutputPath, result.Duration, result.Scenes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "scene manifest (YAML or JSON)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "output.mp4", "output MP4 path")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "keep intermediates in this directory")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func openStore(cfg *config.Config) (store.JobStore, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, keeping jobs in memory")
		return store.NewMemoryStore(), nil
	}
	return store.OpenPostgres(cfg.DatabaseURL)
}

func newRouter(cfg *config.Config, videoHandler *handlers.VideoHandler) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", videoHandler.Health)

	api := router.Group("/api")
	if cfg.JWTSecret != "" {
		api.Use(handlers.JWTAuth(cfg.JWTSecret))
	}
	{
		api.POST("/render", videoHandler.Render)
		api.POST("/generate", videoHandler.Generate)
		api.GET("/jobs", videoHandler.ListJobs)
		api.GET("/status/:job_id", videoHandler.GetStatus)
		api.GET("/download/:job_id", videoHandler.Download)
		api.GET("/download-subtitle/:job_id", videoHandler.DownloadSubtitle)
		api.GET("/ws/:job_id", videoHandler.StreamStatus)
	}

	return router
}

func serve(ctx context.Context, cfg *config.Config) error {
	jobs, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}

	router := newRouter(cfg, handlers.NewVideoHandler(cfg, jobs))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
	}()

	log.Printf("Starting server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
