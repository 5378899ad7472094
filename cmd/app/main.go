package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/HiroshiOkada/update-notes/internal"
	pkgconfig "github.com/HiroshiOkada/update-notes/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the YAML config and applies CLI overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil || cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	if v := cmd.String("input-dir"); v != "" {
		cfg.Vault.InputDir = v
	}
	if v := cmd.String("output-dir"); v != "" {
		cfg.Vault.OutputDir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app serve error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app mcp error: %w", err)
	}
	return nil
}

func main() {
	vaultFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "vault",
			Aliases: []string{"v"},
			Usage:   "Path to the Obsidian vault directory",
			Sources: cli.EnvVars("UPDATE_NOTES_VAULT"),
		},
		&cli.StringFlag{
			Name:    "input-dir",
			Aliases: []string{"i"},
			Usage:   "Daily-notes directory name inside the vault",
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Output directory name inside the vault (default: input dir + まとめ)",
		},
	}

	cmd := &cli.Command{
		Name:   "update-notes",
		Usage:  "Consolidate daily Obsidian notes into per-heading topic files",
		Action: runAction,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		}, vaultFlags...),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Process past daily notes once and exit",
				Action: runAction,
				Flags:  vaultFlags,
			},
			{
				Name:   "serve",
				Usage:  "Expose consolidation runs and history over HTTP",
				Action: serveAction,
				Flags:  vaultFlags,
			},
			{
				Name:   "mcp",
				Usage:  "Expose consolidation tools over the Model Context Protocol (stdio)",
				Action: mcpAction,
				Flags:  vaultFlags,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
