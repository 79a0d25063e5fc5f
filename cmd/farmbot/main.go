package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"farmbot/internal/config"
	"farmbot/internal/provider"
	"farmbot/internal/server"
	"farmbot/internal/whatsapp"

	"github.com/spf13/cobra"
)

var (
	version    = "1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "farmbot",
		Short: "FarmBot: WhatsApp agricultural assistant powered by Gemini",
		Long:  "FarmBot relays WhatsApp messages to Google Gemini under a fixed agriculture guardrail and sends the reply back to the farmer.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.farmbot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig builds the immutable startup configuration: defaults, then the
// optional config file, then plain environment overrides.
func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	config.ApplyEnv(cfg)
	return cfg
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}
			cfg := config.Defaults()
			cfg.WhatsApp.VerifyToken = "${VERIFY_TOKEN}"
			cfg.WhatsApp.AccessToken = "${WHATSAPP_TOKEN}"
			cfg.WhatsApp.PhoneNumberID = "${PHONE_NUMBER_ID}"
			cfg.Gemini.APIKey = "${GEMINI_API_KEY}"
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the FarmBot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("farmbot v%s\n", version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the WhatsApp webhook server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.General.LogLevel),
	}))

	if missing := config.MissingCredentials(cfg); len(missing) > 0 {
		for _, m := range missing {
			logger.Error("missing credential", "name", m)
		}
		return fmt.Errorf("%d required credential(s) missing, run 'farmbot doctor'", len(missing))
	}

	// Graceful shutdown on signals.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gemini := provider.NewGemini(provider.GeminiConfig{
		APIKey:  cfg.Gemini.APIKey,
		APIBase: cfg.Gemini.APIBase,
		Model:   cfg.Gemini.Model,
		Logger:  logger.With("component", "gemini"),
	})

	wa := whatsapp.NewClient(whatsapp.ClientConfig{
		Config: cfg.WhatsApp,
		Logger: logger.With("component", "whatsapp"),
	})

	srv := server.New(server.Config{
		Config:    cfg,
		Logger:    logger.With("component", "server"),
		Completer: gemini,
		Media:     wa,
		Sender:    wa,
		Version:   version,
	})

	logger.Info("farmbot starting", "version", version, "model", cfg.Gemini.Model, "port", cfg.Server.Port)
	return srv.Start(ctx)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
