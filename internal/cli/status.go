package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vietddude/streampay/internal/core/domain"
)

var showCmd = &cobra.Command{
	Use:   "show <stream-id>",
	Short: "Show the details of one stream",
	Args:  cobra.ExactArgs(1),
	Run:   runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the streams of the connected account",
	Run:   runList,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the connected account",
	Run:   runWhoami,
}

func init() {
	rootCmd.AddCommand(showCmd, listCmd, whoamiCmd)
}

func runShow(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	app := connectApp(ctx)
	defer app.Session().Close()

	st, err := app.Streams().GetStreamDetails(ctx, args[0])
	if err != nil {
		slog.Error("Failed to read stream", "stream_id", args[0], "error", err)
		os.Exit(1)
	}
	printStream(cmd.OutOrStdout(), st, time.Now())
}

func runList(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	app := connectApp(ctx)
	defer app.Session().Close()

	printStreams(cmd.OutOrStdout(), app.Streams().GetUserStreams(ctx), time.Now())
}

func runWhoami(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	app := connectApp(ctx)
	defer app.Session().Close()

	addr, err := app.Session().Address()
	if err != nil {
		slog.Error("Failed to read address", "error", err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
}

func assetOf(st *domain.Stream) string {
	if st.IsNative {
		return "native"
	}
	return domain.TokenSymbol
}

func printStream(out io.Writer, st *domain.Stream, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID\t%s\n", st.ID)
	_, _ = fmt.Fprintf(w, "Status\t%s\n", st.Status(now))
	_, _ = fmt.Fprintf(w, "Sender\t%s\n", st.Sender)
	_, _ = fmt.Fprintf(w, "Recipient\t%s\n", st.Recipient)
	_, _ = fmt.Fprintf(w, "Deposit\t%s %s\n", st.Deposit, assetOf(st))
	_, _ = fmt.Fprintf(w, "Rate\t%s/s\n", st.RatePerSecond)
	_, _ = fmt.Fprintf(w, "Remaining\t%s\n", st.RemainingBalance)
	_, _ = fmt.Fprintf(w, "Start\t%s (%s)\n", st.StartTime.Format(time.RFC3339), humanize.RelTime(st.StartTime, now, "ago", "from now"))
	_, _ = fmt.Fprintf(w, "Stop\t%s (%s)\n", st.StopTime.Format(time.RFC3339), humanize.RelTime(st.StopTime, now, "ago", "from now"))
	_, _ = fmt.Fprintf(w, "Duration\t%s\n", st.Duration())
	_ = w.Flush()
}

func printStreams(out io.Writer, streams []*domain.Stream, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tDIRECTION\tDEPOSIT\tREMAINING\tSTATUS\tENDS")

	for _, st := range streams {
		direction := "out"
		if st.IsIncoming {
			direction = "in"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
			st.ID, direction, st.Deposit, assetOf(st), st.RemainingBalance,
			st.Status(now), humanize.RelTime(st.StopTime, now, "ago", "from now"))
	}
	_ = w.Flush()
}
