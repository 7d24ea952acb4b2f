package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"
	"github.com/vietddude/streampay/internal/control"
	"github.com/vietddude/streampay/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "streamctl",
	Short: "Payment stream client",
	Long:  `streamctl creates, cancels, withdraws from and inspects token and native payment streams.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

var appConfig *config.AppConfig

func setupLogging() {
	_ = godotenv.Load()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	appConfig = cfg

	slogLevel := logLevel(cfg.Logging, isDebug)
	if cfg.Logging.Format == "json" {
		slog.SetDefault(slog.New(jsonHandler(os.Stderr, slogLevel)))
		return
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
}

func logLevel(cfg config.LoggingConfig, debug bool) slog.Level {
	switch {
	case debug || cfg.Level == "debug":
		return slog.LevelDebug
	case cfg.Level == "warn":
		return slog.LevelWarn
	case cfg.Level == "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// jsonHandler backs logging.format: json.
func jsonHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// loadConfig falls back to defaults plus environment when the file is absent.
func loadConfig(path string) (*config.AppConfig, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
		cfg.Wallet.RPCURL = os.Getenv("STREAMPAY_RPC_URL")
		cfg.Wallet.PrivateKey = os.Getenv("STREAMPAY_PRIVATE_KEY")
		return cfg, nil
	}
	return cfg, err
}

// connectApp builds the app and connects the wallet synchronously.
func connectApp(ctx context.Context) *control.App {
	app := control.NewApp(appConfig)
	if err := app.Session().Connect(ctx); err != nil {
		slog.Error("Wallet connection required", "error", err)
		os.Exit(1)
	}
	return app
}
