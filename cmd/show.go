package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/client"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one ticket with its progress and admin note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("show: invalid id %q", args[0])
		}
		t, err := client.New(cfg.ServerURL).GetTicket(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("show: %w", err)
		}
		if showOutput != "table" {
			return writeTickets(cmd.OutOrStdout(), showOutput, []model.Ticket{*t})
		}
		return writeTicketDetail(cmd.OutOrStdout(), t)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "table", "table, json or yaml")
}

// writeTicketDetail prints the ticket fields and marks the reached workflow steps.
func writeTicketDetail(w io.Writer, t *model.Ticket) error {
	v := viewOf(*t)
	fmt.Fprintf(w, "ID:        %s\n", v.ID)
	fmt.Fprintf(w, "Subjek:    %s\n", v.Subject)
	fmt.Fprintf(w, "Kategori:  %s\n", v.Category)
	fmt.Fprintf(w, "Pengirim:  %s <%s>\n", v.Name, v.Email)
	fmt.Fprintf(w, "Dibuat:    %s\n", v.CreatedAt)
	fmt.Fprintf(w, "Deskripsi: %s\n", v.Description)

	steps := make([]string, len(model.StatusFlow))
	reached := t.Status.Step()
	for i, s := range model.StatusFlow {
		mark := "[ ]"
		if i <= reached {
			mark = "[x]"
		}
		steps[i] = mark + " " + string(s)
	}
	fmt.Fprintf(w, "Status:    %s\n", strings.Join(steps, "  "))

	notes := v.AdminNotes
	if notes == "" {
		notes = "-"
	}
	_, err := fmt.Fprintf(w, "Catatan:   %s\n", notes)
	return err
}
