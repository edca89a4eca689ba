package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/events"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/middleware"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository"
)

type fakeTickets struct {
	tickets  map[string]*models.Ticket
	comments map[string][]models.Comment
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{
		tickets:  map[string]*models.Ticket{},
		comments: map[string][]models.Comment{},
	}
}

func (f *fakeTickets) List(_ context.Context, filter repository.TicketFilter) ([]models.Ticket, int, error) {
	var out []models.Ticket
	for _, t := range f.tickets {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.CreatedBy != "" && t.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Q != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Q)) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeTickets) Get(_ context.Context, id string) (*models.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTickets) Create(_ context.Context, t *models.Ticket) error {
	cp := *t
	f.tickets[t.ID] = &cp
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *models.Ticket) error {
	cp := *t
	f.tickets[t.ID] = &cp
	return nil
}

func (f *fakeTickets) Delete(_ context.Context, id string) error {
	delete(f.tickets, id)
	return nil
}

func (f *fakeTickets) ListComments(_ context.Context, ticketID string) ([]models.Comment, error) {
	out := make([]models.Comment, len(f.comments[ticketID]))
	copy(out, f.comments[ticketID])
	return out, nil
}

func (f *fakeTickets) AddComment(_ context.Context, c *models.Comment) error {
	f.comments[c.TicketID] = append(f.comments[c.TicketID], *c)
	if t, ok := f.tickets[c.TicketID]; ok {
		t.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (f *fakeTickets) CountByStatuses(_ context.Context, statuses []string) (int, error) {
	n := 0
	for _, t := range f.tickets {
		for _, s := range statuses {
			if t.Status == s {
				n++
				break
			}
		}
	}
	return n, nil
}

func (f *fakeTickets) CountResolvedSince(_ context.Context, since time.Time) (int, error) {
	n := 0
	for _, t := range f.tickets {
		if t.ResolvedAt != nil && t.ResolvedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeTickets) CountOpenByPriorities(_ context.Context, priorities []string) (int, error) {
	n := 0
	for _, t := range f.tickets {
		if t.Status == models.StatusResolved || t.Status == models.StatusClosed {
			continue
		}
		for _, p := range priorities {
			if t.Priority == p {
				n++
				break
			}
		}
	}
	return n, nil
}

type fakeUsers struct {
	users  map[string]*models.User
	hashes map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*models.User{}, hashes: map[string]string{}}
}

func (f *fakeUsers) Create(_ context.Context, u *models.User, hash string) error {
	cp := *u
	f.users[u.ID] = &cp
	f.hashes[u.ID] = hash
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, string, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, f.hashes[u.ID], nil
		}
	}
	return nil, "", nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) List(_ context.Context, _ repository.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeUsers) ListByRoles(_ context.Context, roles ...string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, *u)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id, role, _ string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.hashes[id] = hash
	return nil
}

func (f *fakeUsers) SetConfirmed(_ context.Context, id string, confirmed bool) error {
	if u, ok := f.users[id]; ok {
		u.Confirmed = confirmed
	}
	return nil
}

// asUser injects the identity the auth middleware would have set.
func asUser(uid, role, email string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.CtxUserID, uid)
			ctx = context.WithValue(ctx, middleware.CtxRole, role)
			ctx = context.WithValue(ctx, middleware.CtxEmail, email)
			ctx = context.WithValue(ctx, middleware.CtxFirstName, "Test")
			ctx = context.WithValue(ctx, middleware.CtxLastName, "User")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ticketRouter(h *TicketHTTP, uid, role string) http.Handler {
	r := chi.NewRouter()
	r.Use(asUser(uid, role, uid+"@example.com"))
	r.Get("/api/tickets", h.List())
	r.Post("/api/tickets", h.Create())
	r.Get("/api/tickets/{id}", h.Get())
	r.Patch("/api/tickets/{id}", h.Update())
	r.Delete("/api/tickets/{id}", h.Delete())
	r.Post("/api/tickets/{id}/assign", h.Assign())
	r.Get("/api/tickets/{id}/comments", h.ListComments())
	r.Post("/api/tickets/{id}/comments", h.AddComment())
	return r
}

func newTicketHTTP(tickets *fakeTickets, users *fakeUsers) *TicketHTTP {
	return NewTicketHTTP(tickets, users, events.Nop{}, zerolog.Nop())
}

func doJSON(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
