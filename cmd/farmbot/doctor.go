package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"farmbot/internal/config"
	"farmbot/internal/provider"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	var skipNetwork bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your FarmBot setup",
		Long: `Verifies that FarmBot's configuration, credentials, listen port, and
Gemini connectivity are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("FarmBot Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file (optional: env vars alone can carry the config)
			if _, err := os.Stat(cfgPath); err != nil {
				printWarn("Config file", fmt.Sprintf("not found at %s (using defaults + env)", cfgPath))
				warned++
			} else {
				printPass("Config file", cfgPath)
				passed++
			}

			cfg := loadConfig()
			if err := config.Validate(cfg); err != nil {
				printFail("Config validation", err.Error())
				failed++
			} else {
				printPass("Config validation", "valid")
				passed++
			}

			// 2. Credentials present
			missing := config.MissingCredentials(cfg)
			if len(missing) == 0 {
				printPass("Credentials", "all configured")
				passed++
			}
			for _, m := range missing {
				printFail("Credential", m+" is not set")
				failed++
			}

			// 3. Listen port free
			if err := checkPort(cfg.Server.Port); err != nil {
				printWarn("Listen port", fmt.Sprintf("port %d may be in use: %v", cfg.Server.Port, err))
				warned++
			} else {
				printPass("Listen port", fmt.Sprintf(":%d available", cfg.Server.Port))
				passed++
			}

			// 4. Gemini reachable with the configured key
			if skipNetwork {
				printWarn("Gemini API", "skipped (--offline)")
				warned++
			} else if cfg.Gemini.APIKey == "" {
				printFail("Gemini API", "no API key to test with")
				failed++
			} else {
				gemini := provider.NewGemini(provider.GeminiConfig{
					APIKey:  cfg.Gemini.APIKey,
					APIBase: cfg.Gemini.APIBase,
					Model:   cfg.Gemini.Model,
					Logger:  logger,
				})
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := gemini.Healthy(ctx); err != nil {
					printFail("Gemini API", err.Error())
					failed++
				} else {
					printPass("Gemini API", cfg.Gemini.Model+" reachable")
					passed++
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running FarmBot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nFarmBot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! FarmBot is ready to run.\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipNetwork, "offline", false, "skip checks that need network access")
	return cmd
}

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
