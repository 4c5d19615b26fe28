package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/client"
	"github.com/psds-microservice/helpdesk-service/internal/filter"
	"github.com/psds-microservice/helpdesk-service/internal/identity"
)

var mineOpts struct {
	email  string
	query  string
	scope  string
	output string
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your submitted tickets",
	RunE:  runMine,
}

func init() {
	f := mineCmd.Flags()
	f.StringVar(&mineOpts.email, "email", "", "submitter email (default: remembered identity)")
	f.StringVarP(&mineOpts.query, "query", "q", "", "search subject or category")
	f.StringVar(&mineOpts.scope, "scope", string(filter.ScopeAll), "ALL, ACTIVE or COMPLETED")
	f.StringVarP(&mineOpts.output, "output", "o", "table", "table, json or yaml")
}

func runMine(cmd *cobra.Command, args []string) error {
	email := mineOpts.email
	if email == "" {
		id, err := identityStore().Load()
		if errors.Is(err, identity.ErrNoIdentity) {
			return errors.New("mine: no remembered email, pass --email or submit a ticket first")
		}
		if err != nil {
			return err
		}
		email = id.Email
	}
	scope := filter.Scope(strings.ToUpper(mineOpts.scope))
	list, err := client.New(cfg.ServerURL).ListTickets(cmd.Context(), email, mineOpts.query, scope)
	if err != nil {
		return fmt.Errorf("mine: %w", err)
	}
	if mineOpts.output == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "Semua: %d  Aktif: %d  Selesai: %d\n",
			list.Counts.All, list.Counts.Active, list.Counts.Completed)
	}
	return writeTickets(cmd.OutOrStdout(), mineOpts.output, list.Tickets)
}
