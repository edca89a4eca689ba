package client

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

// Navigator is the shell hook the synchronizer uses to force the
// login view on session expiry.
type Navigator interface {
	NavigateTo(view string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(view string)

func (f NavigatorFunc) NavigateTo(view string) { f(view) }

// Filter is the active ticket-list filter. Status goes to the server;
// SearchQuery is applied client-side on top of server results.
type Filter struct {
	Status      string
	SearchQuery string
}

// TicketList keeps the ticket collection in sync with the server.
// Every refresh bumps a generation counter; a response landing after a
// newer request started is discarded, so the last request wins and the
// displayed list always matches the newest filter.
type TicketList struct {
	api     *API
	session *SessionStore
	nav     Navigator

	mu      sync.Mutex
	gen     uint64
	filter  Filter
	tickets []models.Ticket
	lastErr string
}

func NewTicketList(api *API, session *SessionStore, nav Navigator) *TicketList {
	return &TicketList{api: api, session: session, nav: nav}
}

// Refresh fetches the list for the given filter. On transient errors
// the previous list is kept and an error message recorded; on 401 the
// session is ended and the shell sent to login.
func (l *TicketList) Refresh(ctx context.Context, f Filter) error {
	gen := l.begin(f)

	tickets, err := l.api.ListTickets(ctx, TicketQuery{Status: f.Status})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			l.expire()
			return err
		}
		l.fail(gen, err)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		// A newer refresh started while this one was in flight.
		return nil
	}
	l.tickets = tickets
	l.lastErr = ""
	return nil
}

// SetSearch updates the client-side filter without a network call.
func (l *TicketList) SetSearch(q string) {
	l.mu.Lock()
	l.filter.SearchQuery = q
	l.mu.Unlock()
}

// Tickets returns the current list with the search filter applied.
func (l *TicketList) Tickets() []models.Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(l.filter.SearchQuery))
	out := make([]models.Ticket, 0, len(l.tickets))
	for _, t := range l.tickets {
		if q == "" || matchesQuery(t, q) {
			out = append(out, t)
		}
	}
	return out
}

// Err is the banner text from the last failed refresh, empty after a
// success.
func (l *TicketList) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// CreateTicket submits a new ticket and, on success, resynchronizes
// the full list so server-side defaults and ordering are authoritative.
func (l *TicketList) CreateTicket(ctx context.Context, in CreateTicketInput) (*models.Ticket, error) {
	t, err := l.api.CreateTicket(ctx, in)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			l.expire()
		}
		return nil, err
	}
	l.mu.Lock()
	f := l.filter
	l.mu.Unlock()
	if err := l.Refresh(ctx, f); err != nil {
		// The ticket exists; only the resync failed.
		return t, nil
	}
	return t, nil
}

func (l *TicketList) begin(f Filter) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.filter = f
	return l.gen
}

func (l *TicketList) fail(gen uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.lastErr = SurfaceMessage(err)
}

func (l *TicketList) expire() {
	l.session.ExpireTo(l.nav)
}

func matchesQuery(t models.Ticket, q string) bool {
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q) ||
		strings.Contains(strings.ToLower(t.Category), q) ||
		strings.Contains(strings.ToLower(t.ID), q)
}
