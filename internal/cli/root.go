package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	lipgloss "github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/venrik/skydeck/internal/api"
	"github.com/venrik/skydeck/internal/auth"
	"github.com/venrik/skydeck/internal/chat"
	"github.com/venrik/skydeck/internal/cloud"
	"github.com/venrik/skydeck/internal/config"
	"github.com/venrik/skydeck/internal/session"
	"github.com/venrik/skydeck/internal/store"
	"github.com/venrik/skydeck/internal/ui"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "skydeck",
		Short:         "Terminal dashboard for your cloud documents",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          runDashboard,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.PersistentFlags().String("base-url", "", "backend base URL (overrides config)")

	return rootCmd
}

func loadConfig(path string) (config.Config, error) {
	configPath := path
	if configPath == "" {
		configPath = filepath.Join(config.Default().DataDir, "config.toml")
	}
	return config.LoadOrCreate(configPath)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	baseURL, _ := cmd.Flags().GetString("base-url")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if !isInteractive() {
		lipgloss.Println(styledError("skydeck needs an interactive terminal",
			"run it from a tty, not a pipe"))
		return fmt.Errorf("stdout is not a terminal")
	}

	setupLogging(cfg)

	backing := store.New(cfg.DataDir)
	tokens := store.NewTokenStore(backing)
	sessions := session.NewService(tokens, backing)

	gateway, err := api.NewGateway(api.Options{
		BaseURL:      cfg.BaseURL,
		Tokens:       tokens,
		Timeout:      time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		RetryMax:     cfg.HTTP.RetryMax,
		RetryBackoff: time.Duration(cfg.HTTP.RetryBackoffMs) * time.Millisecond,
		LogResponses: cfg.Debug.LogResponses,
	})
	if err != nil {
		return fmt.Errorf("build gateway: %w", err)
	}

	client := api.NewClient(gateway)

	events := make(chan tea.Msg, 16)
	cloudSession := cloud.NewSession(cloud.Options{
		API:      client,
		Sessions: sessions,
		Navigate: func(path string) { events <- ui.NavigateTo(path) },
		OnChange: func(state cloud.State) { events <- ui.CloudChanged(state) },
	})

	assistant := chat.NewAssistant(client, &chat.FileTranscripts{BaseDir: cfg.DataDir})
	actions := &auth.Actions{Client: client, Tokens: tokens, Sessions: sessions}

	program := tea.NewProgram(ui.New(ui.Deps{
		Config:   cfg,
		Client:   client,
		Auth:     actions,
		Sessions: sessions,
		Cloud:    cloudSession,
		Chat:     assistant,
		Events:   events,
	}), tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

// setupLogging routes slog to the configured log file. Writing to stderr
// would tear up the alternate screen, so an unopenable log file means the
// logs are discarded.
func setupLogging(cfg config.Config) {
	var out io.Writer = io.Discard

	if cfg.Debug.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Debug.LogFile), 0o755); err == nil {
			if file, err := os.OpenFile(cfg.Debug.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				out = file
			}
		}
	}

	level := slog.LevelInfo
	if cfg.Debug.LogResponses {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
}
