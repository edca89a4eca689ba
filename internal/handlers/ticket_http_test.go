package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

func seedTicket(f *fakeTickets, id, createdBy, status string) {
	now := time.Now().UTC()
	f.tickets[id] = &models.Ticket{
		ID: id, Title: "Ticket " + id, Description: "desc", Category: "General",
		Priority: models.PriorityMedium, Status: status,
		CreatedBy: createdBy, AssignedTo: models.Unassigned,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestListScopesCustomersToOwnTickets(t *testing.T) {
	tickets := newFakeTickets()
	seedTicket(tickets, "t-1", "cust-1", models.StatusOpen)
	seedTicket(tickets, "t-2", "cust-2", models.StatusOpen)
	h := newTicketHTTP(tickets, newFakeUsers())

	w := doJSON(ticketRouter(h, "cust-1", models.RoleCustomer), http.MethodGet, "/api/tickets", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Tickets []models.Ticket `json:"tickets"`
		Total   int             `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Tickets) != 1 || out.Tickets[0].ID != "t-1" {
		t.Fatalf("customer sees %+v, want only own ticket", out.Tickets)
	}

	// Agents see everything.
	w = doJSON(ticketRouter(h, "tech-1", models.RoleTech), http.MethodGet, "/api/tickets", "")
	json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Tickets) != 2 {
		t.Fatalf("tech sees %d tickets, want 2", len(out.Tickets))
	}
}

func TestListRejectsInvalidStatus(t *testing.T) {
	h := newTicketHTTP(newFakeTickets(), newFakeUsers())
	w := doJSON(ticketRouter(h, "u-1", models.RoleTech), http.MethodGet, "/api/tickets?status=BOGUS", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateTicketDefaults(t *testing.T) {
	tickets := newFakeTickets()
	h := newTicketHTTP(tickets, newFakeUsers())

	w := doJSON(ticketRouter(h, "cust-1", models.RoleCustomer), http.MethodPost, "/api/tickets",
		`{"title":"No sound","description":"speakers dead"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got models.Ticket
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Status != models.StatusOpen || got.Priority != models.PriorityMedium {
		t.Fatalf("defaults = %s/%s, want OPEN/MEDIUM", got.Status, got.Priority)
	}
	if got.Category != "General" || got.AssignedTo != models.Unassigned {
		t.Fatalf("category/assignee = %s/%s", got.Category, got.AssignedTo)
	}
	if got.CreatedBy != "cust-1" {
		t.Fatalf("createdBy = %q", got.CreatedBy)
	}
}

func TestCreateTicketRequiresTitleAndDescription(t *testing.T) {
	h := newTicketHTTP(newFakeTickets(), newFakeUsers())
	r := ticketRouter(h, "cust-1", models.RoleCustomer)

	if w := doJSON(r, http.MethodPost, "/api/tickets", `{"description":"x"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing title accepted: %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/api/tickets", `{"title":"x","description":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank description accepted: %d", w.Code)
	}
}

func TestGetTicketOwnership(t *testing.T) {
	tickets := newFakeTickets()
	seedTicket(tickets, "t-1", "cust-1", models.StatusOpen)
	h := newTicketHTTP(tickets, newFakeUsers())

	if w := doJSON(ticketRouter(h, "cust-2", models.RoleCustomer), http.MethodGet, "/api/tickets/t-1", ""); w.Code != http.StatusForbidden {
		t.Fatalf("foreign customer got %d, want 403", w.Code)
	}
	if w := doJSON(ticketRouter(h, "cust-1", models.RoleCustomer), http.MethodGet, "/api/tickets/t-1", ""); w.Code != http.StatusOK {
		t.Fatalf("owner got %d, want 200", w.Code)
	}
	if w := doJSON(ticketRouter(h, "tech-1", models.RoleTech), http.MethodGet, "/api/tickets/t-1", ""); w.Code != http.StatusOK {
		t.Fatalf("tech got %d, want 200", w.Code)
	}
	if w := doJSON(ticketRouter(h, "tech-1", models.RoleTech), http.MethodGet, "/api/tickets/missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing ticket got %d, want 404", w.Code)
	}
}

func TestUpdateWhitelist(t *testing.T) {
	tickets := newFakeTickets()
	seedTicket(tickets, "t-1", "cust-1", models.StatusOpen)
	h := newTicketHTTP(tickets, newFakeUsers())
	r := ticketRouter(h, "tech-1", models.RoleTech)

	w := doJSON(r, http.MethodPatch, "/api/tickets/t-1", `{"title":"new title"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("title update got %d, want 400 (immutable field)", w.Code)
	}

	w = doJSON(r, http.MethodPatch, "/api/tickets/t-1", `{"status":"waiting","priority":"HIGH"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got models.Ticket
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Status != models.StatusWaiting || got.Priority != models.PriorityHigh {
		t.Fatalf("after update = %s/%s", got.Status, got.Priority)
	}
}

func TestUpdateResolvedRequiresResolution(t *testing.T) {
	tickets := newFakeTickets()
	seedTicket(tickets, "t-1", "cust-1", models.StatusInProgress)
	h := newTicketHTTP(tickets, newFakeUsers())
	r := ticketRouter(h, "tech-1", models.RoleTech)

	if w := doJSON(r, http.MethodPatch, "/api/tickets/t-1", `{"status":"RESOLVED"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("resolution-less resolve got %d, want 400", w.Code)
	}

	w := doJSON(r, http.MethodPatch, "/api/tickets/t-1", `{"status":"RESOLVED","resolution":"replaced cable"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got models.Ticket
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Status != models.StatusResolved || got.Resolution != "replaced cable" || got.ResolvedAt == nil {
		t.Fatalf("resolved ticket = %+v", got)
	}
}

func TestDeleteSoftAndHard(t *testing.T) {
	tickets := newFakeTickets()
	seedTicket(tickets, "t-1", "cust-1", models.StatusOpen)
	seedTicket(tickets, "t-2", "cust-1", models.StatusOpen)
	h := newTicketHTTP(tickets, newFakeUsers())

	// Soft delete closes.
	if w := doJSON(ticketRouter(h, "tech-1", models.RoleTech), http.MethodDelete, "/api/tickets/t-1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("soft delete got %d", w.Code)
	}
	if tickets.tickets["t-1"].Status != models.StatusClosed {
		t.Fatalf("soft-deleted ticket status = %q, want CLOSED", tickets.tickets["t-1"].Status)
	}

	// Hard delete is admin only.
	if w := doJSON(ticketRouter(h, "tech-1", models.RoleTech), http.MethodDelete, "/api/tickets/t-2?hard=true", ""); w.Code != http.StatusForbidden {
		t.Fatalf("tech hard delete got %d, want 403", w.Code)
	}
	if w := doJSON(ticketRouter(h, "admin-1", models.RoleAdmin), http.MethodDelete, "/api/tickets/t-2?hard=true", ""); w.Code != http.StatusNoContent {
		t.Fatalf("admin hard delete got %d", w.Code)
	}
	if _, ok := tickets.tickets["t-2"]; ok {
		t.Fatalf("hard-deleted ticket still present")
	}
}

func TestAssignTicket(t *testing.T) {
	tickets := newFakeTickets()
	seedTicket(tickets, "t-1", "cust-1", models.StatusOpen)
	users := newFakeUsers()
	users.users["tech-1"] = &models.User{ID: "tech-1", Email: "jordan@example.com", FirstName: "Jordan", LastName: "Diaz", Role: models.RoleTech}
	users.users["cust-9"] = &models.User{ID: "cust-9", Email: "casey@example.com", Role: models.RoleCustomer}
	h := newTicketHTTP(tickets, users)
	r := ticketRouter(h, "admin-1", models.RoleAdmin)

	if w := doJSON(r, http.MethodPost, "/api/tickets/t-1/assign", `{"technicianId":"cust-9"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("assign to customer got %d, want 400", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/api/tickets/t-1/assign", `{"technicianId":"ghost"}`); w.Code != http.StatusNotFound {
		t.Fatalf("assign to unknown got %d, want 404", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/api/tickets/t-1/assign", `{"technicianId":"tech-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("assign got %d: %s", w.Code, w.Body.String())
	}
	var got models.Ticket
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.AssignedTo != "tech-1" || got.AssignedToName != "Jordan Diaz" {
		t.Fatalf("assignee = %q/%q", got.AssignedTo, got.AssignedToName)
	}
	if got.Status != models.StatusInProgress {
		t.Fatalf("status = %q, want IN_PROGRESS after assignment", got.Status)
	}
}

func TestInternalCommentsHiddenFromCustomers(t *testing.T) {
	tickets := newFakeTickets()
	seedTicket(tickets, "t-1", "cust-1", models.StatusOpen)
	tickets.comments["t-1"] = []models.Comment{
		{ID: "c-1", TicketID: "t-1", Content: "public note"},
		{ID: "c-2", TicketID: "t-1", Content: "internal note", IsInternal: true},
	}
	h := newTicketHTTP(tickets, newFakeUsers())

	var out struct {
		Comments []models.Comment `json:"comments"`
		Count    int              `json:"count"`
	}

	w := doJSON(ticketRouter(h, "cust-1", models.RoleCustomer), http.MethodGet, "/api/tickets/t-1/comments", "")
	json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 1 || out.Comments[0].ID != "c-1" {
		t.Fatalf("customer sees %+v, internal note leaked", out.Comments)
	}

	w = doJSON(ticketRouter(h, "tech-1", models.RoleTech), http.MethodGet, "/api/tickets/t-1/comments", "")
	json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 {
		t.Fatalf("tech sees %d comments, want 2", out.Count)
	}
}

func TestAddCommentRules(t *testing.T) {
	tickets := newFakeTickets()
	seedTicket(tickets, "t-1", "cust-1", models.StatusOpen)
	h := newTicketHTTP(tickets, newFakeUsers())

	// Empty comments are rejected.
	if w := doJSON(ticketRouter(h, "cust-1", models.RoleCustomer), http.MethodPost, "/api/tickets/t-1/comments", `{"content":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty comment got %d, want 400", w.Code)
	}
	// Customers cannot post internal notes.
	if w := doJSON(ticketRouter(h, "cust-1", models.RoleCustomer), http.MethodPost, "/api/tickets/t-1/comments", `{"content":"x","isInternal":true}`); w.Code != http.StatusForbidden {
		t.Fatalf("customer internal note got %d, want 403", w.Code)
	}
	// Attachment-only comments are fine.
	w := doJSON(ticketRouter(h, "cust-1", models.RoleCustomer), http.MethodPost, "/api/tickets/t-1/comments", `{"attachments":["http://x/a.png"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("attachment-only comment got %d: %s", w.Code, w.Body.String())
	}

	before := tickets.tickets["t-1"].UpdatedAt
	time.Sleep(time.Millisecond)
	w = doJSON(ticketRouter(h, "tech-1", models.RoleTech), http.MethodPost, "/api/tickets/t-1/comments", `{"content":"looking into it","isInternal":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("tech comment got %d", w.Code)
	}
	var c models.Comment
	json.Unmarshal(w.Body.Bytes(), &c)
	if c.CreatedByRole != models.RoleTech || !c.IsInternal {
		t.Fatalf("comment = %+v", c)
	}
	if !tickets.tickets["t-1"].UpdatedAt.After(before) {
		t.Fatalf("comment insert must bump the ticket's updatedAt")
	}
}
