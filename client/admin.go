package client

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

// Console is the admin view state: users, tickets and technicians
// loaded side by side, with assignment selection for the modal flow.
type Console struct {
	api     *API
	session *SessionStore
	nav     Navigator

	mu      sync.Mutex
	users   []models.User
	tickets []models.Ticket
	techs   []models.Technician

	usersErr   error
	ticketsErr error
	techsErr   error

	selTicket string
	selTech   string
}

func NewConsole(api *API, session *SessionStore, nav Navigator) *Console {
	return &Console{api: api, session: session, nav: nav}
}

// check funnels 401s into the uniform session-expired path.
func (c *Console) check(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		c.session.ExpireTo(c.nav)
	}
	return err
}

// Load fetches the three collections in parallel. Each failure is held
// per collection so one broken endpoint does not blank the others.
func (c *Console) Load(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		users, err := c.api.ListUsers(ctx, "")
		c.mu.Lock()
		if err != nil {
			c.usersErr = err
		} else {
			c.users, c.usersErr = users, nil
		}
		c.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		tickets, err := c.api.ListTickets(ctx, TicketQuery{})
		c.mu.Lock()
		if err != nil {
			c.ticketsErr = err
		} else {
			c.tickets, c.ticketsErr = tickets, nil
		}
		c.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		techs, err := c.api.ListTechnicians(ctx)
		c.mu.Lock()
		if err != nil {
			c.techsErr = err
		} else {
			c.techs, c.techsErr = techs, nil
		}
		c.mu.Unlock()
	}()

	wg.Wait()

	c.mu.Lock()
	errs := []error{c.usersErr, c.ticketsErr, c.techsErr}
	c.mu.Unlock()
	for _, err := range errs {
		if errors.Is(err, ErrUnauthorized) {
			c.session.ExpireTo(c.nav)
			break
		}
	}
}

func (c *Console) Users() []models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.User, len(c.users))
	copy(out, c.users)
	return out
}

func (c *Console) Tickets() []models.Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Ticket, len(c.tickets))
	copy(out, c.tickets)
	return out
}

func (c *Console) Technicians() []models.Technician {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Technician, len(c.techs))
	copy(out, c.techs)
	return out
}

func (c *Console) Errors() (usersErr, ticketsErr, techsErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usersErr, c.ticketsErr, c.techsErr
}

// CanEditRole is false for the admin's own row; the control is
// disabled rather than surfacing the server's rejection.
func (c *Console) CanEditRole(userID string) bool {
	u := c.session.User()
	return u != nil && u.Sub != userID
}

// UpdateUserRole changes a user's role and patches the local list in
// place on success instead of refetching.
func (c *Console) UpdateUserRole(ctx context.Context, userID, role string) error {
	if !c.CanEditRole(userID) {
		return errors.New("cannot change your own role")
	}
	updated, err := c.api.UpdateUserRole(ctx, userID, role)
	if err != nil {
		return c.check(err)
	}
	c.mu.Lock()
	for i := range c.users {
		if c.users[i].ID == updated.ID {
			c.users[i] = *updated
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// SelectAssignment stages a ticket-to-technician pairing for the
// assignment modal.
func (c *Console) SelectAssignment(ticketID, technicianID string) {
	c.mu.Lock()
	c.selTicket = ticketID
	c.selTech = technicianID
	c.mu.Unlock()
}

func (c *Console) Selection() (ticketID, technicianID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selTicket, c.selTech
}

// CancelAssign discards the staged selection.
func (c *Console) CancelAssign() {
	c.mu.Lock()
	c.selTicket, c.selTech = "", ""
	c.mu.Unlock()
}

// AssignSelected submits the staged assignment. On success the ticket
// list is refetched in full and the selection cleared; on failure the
// selection stays so the admin can retry. The server re-validates the
// assignee's role, so a dropdown gone stale after a role change fails
// cleanly instead of assigning to a non-technician.
func (c *Console) AssignSelected(ctx context.Context) error {
	c.mu.Lock()
	ticketID, techID := c.selTicket, c.selTech
	c.mu.Unlock()
	if ticketID == "" || techID == "" {
		return errors.New("no assignment selected")
	}

	if _, err := c.api.AssignTicket(ctx, ticketID, techID); err != nil {
		return c.check(err)
	}

	tickets, err := c.api.ListTickets(ctx, TicketQuery{})
	c.mu.Lock()
	if err == nil {
		c.tickets, c.ticketsErr = tickets, nil
	}
	c.selTicket, c.selTech = "", ""
	c.mu.Unlock()
	return nil
}
