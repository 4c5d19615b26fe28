package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/psds-microservice/helpdesk-service/internal/csvio"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

type ticketView struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"nama" yaml:"nama"`
	Email       string `json:"email" yaml:"email"`
	Subject     string `json:"subject" yaml:"subject"`
	Category    string `json:"category" yaml:"category"`
	Status      string `json:"status" yaml:"status"`
	Description string `json:"description" yaml:"description"`
	AdminNotes  string `json:"admin_notes,omitempty" yaml:"admin_notes,omitempty"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

func viewOf(t model.Ticket) ticketView {
	v := ticketView{
		ID:          t.ID.String(),
		Name:        t.Name,
		Email:       t.Email,
		Subject:     t.Subject,
		Category:    string(t.Category),
		Status:      string(t.Status),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.In(time.Local).Format(csvio.TimeLayout),
	}
	if t.AdminNotes != nil {
		v.AdminNotes = *t.AdminNotes
	}
	return v
}

// writeTickets renders tickets as a table, json or yaml.
func writeTickets(w io.Writer, output string, tickets []model.Ticket) error {
	views := make([]ticketView, len(tickets))
	for i := range tickets {
		views[i] = viewOf(tickets[i])
	}
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	case "", "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tCATEGORY\tSUBJECT\tEMAIL\tCREATED")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", v.ID, v.Status, v.Category, v.Subject, v.Email, v.CreatedAt)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output %q (want table, json or yaml)", output)
	}
}
