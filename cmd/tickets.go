package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/client"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Admin ticket management (requires helpdesk login)",
}

var ticketsListOpts struct {
	query  string
	status string
	limit  int
	offset int
	output string
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, _, err := adminClient()
		if err != nil {
			return err
		}
		list, err := cl.ListAdminTickets(cmd.Context(), client.AdminQuery{
			Query:  ticketsListOpts.query,
			Status: strings.ToUpper(ticketsListOpts.status),
			Limit:  ticketsListOpts.limit,
			Offset: ticketsListOpts.offset,
		})
		if err != nil {
			return fmt.Errorf("tickets: %w", err)
		}
		if ticketsListOpts.output == "table" {
			c := list.Counts
			fmt.Fprintf(cmd.OutOrStdout(), "ALL: %d  %s: %d  %s: %d  %s: %d  %s: %d\n", c.All,
				model.TicketStatusSubmitted, c.ByStatus[model.TicketStatusSubmitted],
				model.TicketStatusApproved, c.ByStatus[model.TicketStatusApproved],
				model.TicketStatusInProgress, c.ByStatus[model.TicketStatusInProgress],
				model.TicketStatusDone, c.ByStatus[model.TicketStatusDone])
		}
		return writeTickets(cmd.OutOrStdout(), ticketsListOpts.output, list.Tickets)
	},
}

var ticketsUpdateOpts struct {
	status  string
	notes   string
	advance bool
}

var ticketsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change a ticket's status or admin notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("tickets: invalid id %q", args[0])
		}
		cl, _, err := adminClient()
		if err != nil {
			return err
		}
		var status *model.TicketStatus
		switch {
		case ticketsUpdateOpts.advance:
			t, err := cl.GetTicket(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("tickets: %w", err)
			}
			next, ok := t.Status.Next()
			if !ok {
				return errors.New("tickets: ticket is already SELESAI")
			}
			status = &next
		case ticketsUpdateOpts.status != "":
			s := model.TicketStatus(strings.ToUpper(ticketsUpdateOpts.status))
			status = &s
		}
		var notes *string
		if cmd.Flags().Changed("notes") {
			notes = &ticketsUpdateOpts.notes
		}
		t, err := cl.UpdateTicket(cmd.Context(), id, status, notes)
		if err != nil {
			return fmt.Errorf("tickets: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t.ID, t.Status)
		return nil
	},
}

var ticketsDeleteYes bool

var ticketsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a ticket permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("tickets: invalid id %q", args[0])
		}
		cl, _, err := adminClient()
		if err != nil {
			return err
		}
		if !ticketsDeleteYes && !askYesNo(stdinLines(cmd), cmd.OutOrStdout(), "Delete ticket "+id.String()+"? [y/N] ") {
			return nil
		}
		if err := cl.DeleteTicket(cmd.Context(), id); err != nil {
			return fmt.Errorf("tickets: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
		return nil
	},
}

func init() {
	lf := ticketsListCmd.Flags()
	lf.StringVarP(&ticketsListOpts.query, "query", "q", "", "search subject, name or email")
	lf.StringVar(&ticketsListOpts.status, "status", "ALL", "ALL, DIAJUKAN, DISETUJUI, DIPROSES or SELESAI")
	lf.IntVar(&ticketsListOpts.limit, "limit", 0, "page size (0 = all)")
	lf.IntVar(&ticketsListOpts.offset, "offset", 0, "page offset")
	lf.StringVarP(&ticketsListOpts.output, "output", "o", "table", "table, json or yaml")

	uf := ticketsUpdateCmd.Flags()
	uf.StringVar(&ticketsUpdateOpts.status, "status", "", "new status")
	uf.StringVar(&ticketsUpdateOpts.notes, "notes", "", "admin notes; empty clears them")
	uf.BoolVar(&ticketsUpdateOpts.advance, "next", false, "move to the next workflow step")

	ticketsDeleteCmd.Flags().BoolVarP(&ticketsDeleteYes, "yes", "y", false, "skip the confirmation prompt")

	ticketsCmd.AddCommand(ticketsListCmd, ticketsUpdateCmd, ticketsDeleteCmd)
}
