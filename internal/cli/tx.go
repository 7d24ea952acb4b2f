package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/streampay/internal/core/domain"
)

var (
	createTo       string
	createAmount   string
	createDuration time.Duration
	createNative   bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a payment stream",
	Example: `  streamctl create --to 0xabc... --amount 100 --duration 720h
  streamctl create --to 0xabc... --amount 0.5 --duration 1h --native`,
	Run: runCreate,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <stream-id>",
	Short: "Cancel a stream and settle both parties",
	Args:  cobra.ExactArgs(1),
	Run:   runCancel,
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <stream-id> <amount>",
	Short: "Withdraw streamed funds as the recipient",
	Args:  cobra.ExactArgs(2),
	Run:   runWithdraw,
}

func init() {
	createCmd.Flags().StringVar(&createTo, "to", "", "recipient address")
	createCmd.Flags().StringVar(&createAmount, "amount", "", "deposit in whole units, e.g. 12.5")
	createCmd.Flags().DurationVar(&createDuration, "duration", 0, "stream length, e.g. 24h")
	createCmd.Flags().BoolVar(&createNative, "native", false, "deposit the native coin instead of "+domain.TokenSymbol)
	_ = createCmd.MarkFlagRequired("to")
	_ = createCmd.MarkFlagRequired("amount")
	_ = createCmd.MarkFlagRequired("duration")

	rootCmd.AddCommand(createCmd, cancelCmd, withdrawCmd)
}

// signalContext is cancelled only by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runCreate(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	app := connectApp(ctx)
	defer app.Session().Close()

	id, err := app.Streams().CreateStream(ctx, createTo, createAmount, createDuration, createNative)
	if err != nil {
		slog.Error("Create stream failed", "error", err)
		os.Exit(1)
	}

	symbol := domain.TokenSymbol
	if createNative {
		symbol = "native"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stream %s created: %s %s to %s over %s\n",
		id, createAmount, symbol, createTo, createDuration)
}

func runCancel(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	app := connectApp(ctx)
	defer app.Session().Close()

	if err := app.Streams().CancelStream(ctx, args[0]); err != nil {
		slog.Error("Cancel stream failed", "stream_id", args[0], "error", err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stream %s cancelled\n", args[0])
}

func runWithdraw(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	app := connectApp(ctx)
	defer app.Session().Close()

	if err := app.Streams().WithdrawFromStream(ctx, args[0], args[1]); err != nil {
		slog.Error("Withdraw failed", "stream_id", args[0], "error", err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Withdrew %s from stream %s\n", args[1], args[0])
}
