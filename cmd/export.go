package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/csvio"
	"github.com/psds-microservice/helpdesk-service/internal/database"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

var exportOpts struct {
	format string
	out    string
	direct bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all tickets to tickets_export_<timestamp>.csv",
	Long: "Export all tickets, newest first. By default the file is fetched from the API with the " +
		"stored admin session; --db reads the database directly.",
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.format, "format", csvio.FormatLabeled.Name, "column layout: labeled or columns")
	f.StringVar(&exportOpts.out, "out", ".", "directory to write the file into")
	f.BoolVar(&exportOpts.direct, "db", false, "read tickets from the database instead of the API")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := csvio.FormatByName(exportOpts.format)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	var data []byte
	name := csvio.FileName(time.Now())
	if exportOpts.direct {
		if data, err = exportFromDB(ctx, format); err != nil {
			return err
		}
	} else {
		cl, _, err := adminClient()
		if err != nil {
			return err
		}
		var served string
		if data, served, err = cl.ExportTickets(ctx, format.Name); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if served != "" {
			name = filepath.Base(served)
		}
	}

	if err := os.MkdirAll(exportOpts.out, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	path := filepath.Join(exportOpts.out, name)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	slog.Info("export: done", "file", path, "bytes", len(data))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func exportFromDB(ctx context.Context, format csvio.Format) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	tickets, _, err := service.NewTicketService(db, nil).List(ctx, nil, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	slog.Info("export: found tickets", "count", len(tickets))
	var buf bytes.Buffer
	if err := csvio.NewEncoder(format, time.Local).Encode(&buf, tickets); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
