package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/mindful-mate/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mindful-mate/backend/internal/config"
	"github.com/zhouzirui/mindful-mate/backend/internal/handler"
	"github.com/zhouzirui/mindful-mate/backend/internal/observability"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/ai"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/conversation"
	emotionservice "github.com/zhouzirui/mindful-mate/backend/internal/service/emotion"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/technique"
)

var (
	cfgPath string
	cfg     *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "mindfulmate",
		Short:             "MindfulMate emotional support backend",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              serve,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "config file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "probe",
		Short: "Check connectivity to the configured model and exit",
		RunE:  probe,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	// Load .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		observability.Component("main").WithError(err).Warn("failed to load .env file")
	}

	loaded, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := observability.Configure(loaded.Log.Level, loaded.Log.Format); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	cfg = loaded
	return nil
}

func probe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AI.Timeout())
	defer cancel()

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "model %s ready\n", aiService.ModelName())
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := observability.Component("main")

	// 启动前必须能连上模型
	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("initialize ai service: %w", err)
	}
	log.WithField("model", aiService.ModelName()).Info("AI service initialized successfully")

	emotionSvc := emotionservice.NewService(nil)
	if cfg.AI.EmotionLLMEnabled {
		emotionSvc = emotionservice.NewService(aiService)
		log.Info("Emotion classifier service enabled")
	} else {
		log.Info("Emotion classifier disabled by configuration, using keyword analysis")
	}

	sessions := conversation.NewManager(conversation.Config{
		MaxHistory: cfg.Conversation.MaxHistory,
		Timeout:    cfg.Conversation.Timeout(),
	})
	go sessions.Run(ctx, cfg.Conversation.CleanupInterval())

	detector := crisis.NewDetector(cfg.Crisis.ScoreThreshold)
	log.WithField("threshold", detector.Threshold()).Info("Crisis detector ready")
	chatSvc := chat.NewService(sessions, emotionSvc, aiService, detector)

	router := handler.NewRouter(handler.Deps{
		Chat:      chatSvc,
		Model:     aiService,
		Sessions:  sessions,
		Technique: technique.Default(),
	})

	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	observability.Component("main").WithField("addr", addr).Info("MindfulMate backend listening")
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
