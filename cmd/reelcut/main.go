package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelcut/reelcut-agent/internal/api"
	"github.com/reelcut/reelcut-agent/internal/config"
	"github.com/reelcut/reelcut-agent/internal/logging"
	"github.com/reelcut/reelcut-agent/internal/session"
	"github.com/reelcut/reelcut-agent/internal/ui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run(args []string) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch command {
	case "serve":
		return serve(cfg)
	case "version":
		fmt.Printf("reelcut %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
		return nil
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}

	if _, ok := commands[command]; !ok {
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}

	// CLI output owns stdout; logs go to stderr
	logger := logging.NewLoggerTo(os.Stderr, cfg.LogLevel())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return runCommand(ctx, a, command, args, os.Stdout)
}

func serve(cfg config.Config) error {
	startTime := time.Now()

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting reelcut agent", "version", config.Version, "data_dir", cfg.DataDir())

	a, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	agentToken, err := ensureAuthToken(a.repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                    REELCUT AGENT v%-23s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", agentToken)
	fmt.Printf("║  Backend:    %-45s ║\n", a.backend)
	fmt.Printf("║  Exports:    %-45s ║\n", truncate(cfg.ExportDir(), 45))
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	origins := cfg.AllowedOrigins()
	uiBase := ""
	if len(origins) > 0 {
		uiBase = origins[0]
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Version:        config.Version,
		AllowedOrigins: origins,
		UIBaseURL:      uiBase,
		Backend:        a.backend,
		Tokens:         a.repo,
		Session:        a.session,
		Upload:         a.upload,
		Shorts:         a.shorts,
		Library:        a.library,
		Media:          a.media,
		ExportDir:      cfg.ExportDir(),
		Music:          a.music,
		Logger:         logger,
		StartTime:      startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Uploads: a.upload,
			APIURL:  fmt.Sprintf("http://127.0.0.1:%d", cfg.Port()),
			Logger:  logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// ensureAuthToken returns the bearer token local clients must present,
// generating and persisting one on first start.
func ensureAuthToken(store session.Store) (string, error) {
	ctx := context.Background()

	existing, err := store.GetConfig(ctx, api.AgentTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := store.SetConfig(ctx, api.AgentTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n+3:])
}
