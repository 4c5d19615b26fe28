package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/client"
	"github.com/psds-microservice/helpdesk-service/internal/csvio"
	"github.com/psds-microservice/helpdesk-service/internal/importer"
)

var importOpts struct {
	format string
	yes    bool
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Create tickets from a CSV export, one request per row",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importOpts.format, "format", csvio.FormatLabeled.Name, "column layout: labeled or columns")
	f.BoolVarP(&importOpts.yes, "yes", "y", false, "skip the confirmation prompt")
}

func runImport(cmd *cobra.Command, args []string) error {
	format, err := csvio.FormatByName(importOpts.format)
	if err != nil {
		return err
	}
	cl, _, err := adminClient()
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	confirm := func(rows int) bool {
		if importOpts.yes {
			return true
		}
		return askYesNo(stdinLines(cmd), out, fmt.Sprintf("Import %d tickets? [y/N] ", rows))
	}
	refresh := func(ctx context.Context) {
		list, err := cl.ListAdminTickets(ctx, client.AdminQuery{Limit: 1})
		if err != nil {
			slog.Warn("import: refresh failed", "err", err)
			return
		}
		fmt.Fprintf(out, "Tickets in store: %d\n", list.Total)
	}

	im := importer.New(client.ImportCreator{Client: cl}, format, importer.WithRefresh(refresh))
	sum, err := im.ImportReader(cmd.Context(), f, confirm)
	var missing *csvio.MissingHeadersError
	switch {
	case errors.Is(err, importer.ErrDeclined):
		fmt.Fprintln(out, "Import cancelled")
		return nil
	case errors.As(err, &missing):
		return fmt.Errorf("import: incomplete CSV header: %w", missing)
	case errors.Is(err, importer.ErrUnreadable), errors.Is(err, csvio.ErrEmpty):
		return fmt.Errorf("import: cannot read CSV file: %w", err)
	case err != nil:
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintln(out, sum.String())
	return nil
}

var stdin *bufio.Reader

// stdinLines shares one buffered reader so consecutive prompts do not lose input.
func stdinLines(cmd *cobra.Command) *bufio.Reader {
	if stdin == nil {
		stdin = bufio.NewReader(cmd.InOrStdin())
	}
	return stdin
}

// askYesNo reads one answer line from in; the rest stays buffered for the next prompt.
func askYesNo(in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "ya":
		return true
	}
	return false
}
