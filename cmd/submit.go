package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/client"
	"github.com/psds-microservice/helpdesk-service/internal/identity"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

var submitOpts struct {
	name, email, phone, nim string
	subject, category, desc string
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a support ticket",
	Long: "Submit a support ticket. Name, email and phone default to the values remembered " +
		"from the last successful submission.",
	RunE: runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitOpts.name, "name", "", "your name")
	f.StringVar(&submitOpts.email, "email", "", "your email")
	f.StringVar(&submitOpts.phone, "phone", "", "your phone number, 10-15 digits")
	f.StringVar(&submitOpts.nim, "nim", "", "student id (optional)")
	f.StringVar(&submitOpts.subject, "subject", "", "short summary")
	f.StringVar(&submitOpts.category, "category", "", "Wifi, Account, Hardware or Software")
	f.StringVar(&submitOpts.desc, "description", "", "what happened, at least 20 characters")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ids := identityStore()
	remembered, err := ids.Load()
	if err != nil && !errors.Is(err, identity.ErrNoIdentity) {
		slog.Warn("submit: remembered identity unreadable", "err", err)
	}
	in := model.CreateTicket{
		Name:        firstNonEmpty(submitOpts.name, remembered.Name),
		Email:       firstNonEmpty(submitOpts.email, remembered.Email),
		Phone:       firstNonEmpty(submitOpts.phone, remembered.Phone),
		StudentID:   submitOpts.nim,
		Subject:     submitOpts.subject,
		Category:    model.TicketCategory(submitOpts.category),
		Description: submitOpts.desc,
	}
	if err := validate.Ticket(in); err != nil {
		printFieldErrors(cmd, err)
		return errors.New("submit: ticket not sent")
	}

	t, err := client.New(cfg.ServerURL).CreateTicket(cmd.Context(), in)
	if err != nil {
		var fields validate.FieldErrors
		if errors.As(err, &fields) {
			printFieldErrors(cmd, fields)
		}
		return fmt.Errorf("submit: %w", err)
	}
	if err := ids.Remember(in); err != nil {
		slog.Warn("submit: identity not remembered", "err", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tiket berhasil diajukan: %s (%s)\n", t.ID, t.Status)
	return nil
}

func printFieldErrors(cmd *cobra.Command, err error) {
	var fields validate.FieldErrors
	if !errors.As(err, &fields) {
		return
	}
	for _, k := range fields.Keys() {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", k, fields[k])
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
