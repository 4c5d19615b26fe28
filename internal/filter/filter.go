// Package filter narrows an already fetched ticket list for search boxes and tabs.
package filter

import (
	"strings"

	"github.com/psds-microservice/helpdesk-service/internal/model"
)

// StatusAll disables the status filter.
const StatusAll = "ALL"

// Scope is the student dashboard tab.
type Scope string

const (
	ScopeAll       Scope = "ALL"
	ScopeActive    Scope = "ACTIVE"
	ScopeCompleted Scope = "COMPLETED"
)

// Predicate selects tickets.
type Predicate func(*model.Ticket) bool

// Apply returns the tickets matching p in their original order.
func Apply(tickets []model.Ticket, p Predicate) []model.Ticket {
	out := make([]model.Ticket, 0, len(tickets))
	for i := range tickets {
		if p(&tickets[i]) {
			out = append(out, tickets[i])
		}
	}
	return out
}

// Admin matches the query against subject, name and email and the status exactly.
// An empty status or StatusAll matches every status.
func Admin(query string, status string) Predicate {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(t *model.Ticket) bool {
		if status != "" && status != StatusAll && string(t.Status) != status {
			return false
		}
		return contains(q, t.Subject, t.Name, t.Email)
	}
}

// Student matches the query against subject and category within a tab.
func Student(query string, scope Scope) Predicate {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(t *model.Ticket) bool {
		switch scope {
		case ScopeActive:
			if t.Status == model.TicketStatusDone {
				return false
			}
		case ScopeCompleted:
			if t.Status != model.TicketStatusDone {
				return false
			}
		}
		return contains(q, t.Subject, string(t.Category))
	}
}

func contains(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Counts holds the tab badges of a listing.
type Counts struct {
	All       int                        `json:"ALL"`
	ByStatus  map[model.TicketStatus]int `json:"by_status"`
	Active    int                        `json:"active"`
	Completed int                        `json:"completed"`
}

func Count(tickets []model.Ticket) Counts {
	c := Counts{All: len(tickets), ByStatus: make(map[model.TicketStatus]int, len(model.StatusFlow))}
	for _, s := range model.StatusFlow {
		c.ByStatus[s] = 0
	}
	for i := range tickets {
		c.ByStatus[tickets[i].Status]++
		if tickets[i].Status == model.TicketStatusDone {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}
