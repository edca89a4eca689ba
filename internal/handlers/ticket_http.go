package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/events"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/middleware"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/utils"
)

// TicketHTTP wires ticket and comment endpoints to repositories.
type TicketHTTP struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	pub     events.Publisher
	log     zerolog.Logger
}

func NewTicketHTTP(tickets repository.TicketRepository, users repository.UserRepository, pub events.Publisher, log zerolog.Logger) *TicketHTTP {
	return &TicketHTTP{tickets: tickets, users: users, pub: pub, log: log}
}

func caller(r *http.Request) (uid, role string) {
	uid, _ = utils.GetString(r.Context(), middleware.CtxUserID)
	role, _ = utils.GetString(r.Context(), middleware.CtxRole)
	return uid, role
}

// -----------------------------------------------------------------------------
// GET /api/tickets?status=&q=&limit=&offset=
// Customers only ever see their own tickets; the status filter is
// server-side, free-text search stays client-side in the SPA/CLI.
// -----------------------------------------------------------------------------
func (h *TicketHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		f := repository.TicketFilter{
			Q:      strings.TrimSpace(qv.Get("q")),
			Status: strings.ToUpper(strings.TrimSpace(qv.Get("status"))),
			Limit:  utils.QueryInt(qv, "limit", 50),
			Offset: utils.QueryInt(qv, "offset", 0),
		}
		if f.Status != "" && !models.ValidStatus(f.Status) {
			utils.Error(w, http.StatusBadRequest, "invalid status filter")
			return
		}

		uid, role := caller(r)
		if !models.IsAgent(role) {
			f.CreatedBy = uid
		}

		items, total, err := h.tickets.List(r.Context(), f)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to retrieve tickets")
			return
		}
		if items == nil {
			items = []models.Ticket{}
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"tickets": items,
			"count":   len(items),
			"total":   total,
		})
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Create() http.HandlerFunc {
	type inDTO struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Priority    string   `json:"priority"`
		Tags        []string `json:"tags"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		in.Title = strings.TrimSpace(in.Title)
		in.Description = strings.TrimSpace(in.Description)
		if in.Title == "" {
			utils.Error(w, http.StatusBadRequest, "Title is required")
			return
		}
		if in.Description == "" {
			utils.Error(w, http.StatusBadRequest, "Description is required")
			return
		}

		priority := strings.ToUpper(strings.TrimSpace(in.Priority))
		if priority == "" {
			priority = models.PriorityMedium
		}
		if !models.ValidPriority(priority) {
			utils.Error(w, http.StatusBadRequest, "Invalid priority. Must be one of: LOW, MEDIUM, HIGH, CRITICAL")
			return
		}
		category := strings.TrimSpace(in.Category)
		if category == "" {
			category = "General"
		}

		uid, _ := caller(r)
		email, _ := utils.GetString(r.Context(), middleware.CtxEmail)
		now := time.Now().UTC()
		t := &models.Ticket{
			ID:             uuid.NewString(),
			Title:          in.Title,
			Description:    in.Description,
			Category:       category,
			Priority:       priority,
			Status:         models.StatusOpen,
			Tags:           in.Tags,
			CreatedBy:      uid,
			CreatedByEmail: email,
			AssignedTo:     models.Unassigned,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := h.tickets.Create(r.Context(), t); err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to create ticket")
			return
		}
		events.LogOnError(r.Context(), h.log, h.pub, events.TicketCreated, t)
		utils.JSON(w, http.StatusCreated, t)
	}
}

// -----------------------------------------------------------------------------
// GET /api/tickets/{id}
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.loadAccessible(w, r)
		if !ok {
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// loadAccessible fetches the path ticket and enforces the customer
// own-tickets rule. It writes the error response itself.
func (h *TicketHTTP) loadAccessible(w http.ResponseWriter, r *http.Request) (*models.Ticket, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.Error(w, http.StatusBadRequest, "missing id")
		return nil, false
	}
	t, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "failed to retrieve ticket")
		return nil, false
	}
	if t == nil {
		utils.Error(w, http.StatusNotFound, "Ticket not found")
		return nil, false
	}
	uid, role := caller(r)
	if !models.IsAgent(role) && t.CreatedBy != uid {
		utils.Error(w, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return t, true
}

// -----------------------------------------------------------------------------
// PATCH /api/tickets/{id}
// Only a whitelist of fields is updatable; content (title/description)
// is immutable once created.
// -----------------------------------------------------------------------------
var updatableFields = map[string]struct{}{
	"status": {}, "priority": {}, "assignedTo": {}, "resolution": {}, "tags": {}, "category": {},
}

func (h *TicketHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.loadAccessible(w, r)
		if !ok {
			return
		}

		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || len(raw) == 0 {
			utils.Error(w, http.StatusBadRequest, "Update data is required")
			return
		}
		for field := range raw {
			if _, ok := updatableFields[field]; !ok {
				utils.Error(w, http.StatusBadRequest, "Invalid field: "+field)
				return
			}
		}

		getStr := func(field string) (string, bool) {
			v, ok := raw[field]
			if !ok {
				return "", false
			}
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return "", false
			}
			return s, true
		}

		if s, ok := getStr("status"); ok {
			s = strings.ToUpper(strings.TrimSpace(s))
			if !models.ValidStatus(s) {
				utils.Error(w, http.StatusBadRequest, "Invalid status. Must be one of: OPEN, IN_PROGRESS, WAITING, RESOLVED, CLOSED")
				return
			}
			if s == models.StatusResolved {
				res, _ := getStr("resolution")
				if strings.TrimSpace(res) == "" && t.Resolution == "" {
					utils.Error(w, http.StatusBadRequest, "Resolution is required when status is RESOLVED")
					return
				}
				now := time.Now().UTC()
				t.ResolvedAt = &now
			}
			t.Status = s
		}
		if p, ok := getStr("priority"); ok {
			p = strings.ToUpper(strings.TrimSpace(p))
			if !models.ValidPriority(p) {
				utils.Error(w, http.StatusBadRequest, "Invalid priority. Must be one of: LOW, MEDIUM, HIGH, CRITICAL")
				return
			}
			t.Priority = p
		}
		if res, ok := getStr("resolution"); ok {
			t.Resolution = strings.TrimSpace(res)
		}
		if c, ok := getStr("category"); ok {
			t.Category = strings.TrimSpace(c)
		}
		if a, ok := getStr("assignedTo"); ok {
			t.AssignedTo = strings.TrimSpace(a)
		}
		if v, ok := raw["tags"]; ok {
			var tags []string
			if err := json.Unmarshal(v, &tags); err != nil {
				utils.Error(w, http.StatusBadRequest, "tags must be a list of strings")
				return
			}
			t.Tags = tags
		}

		t.UpdatedAt = time.Now().UTC()
		if err := h.tickets.Update(r.Context(), t); err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to update ticket")
			return
		}
		events.LogOnError(r.Context(), h.log, h.pub, events.TicketUpdated, t)
		utils.JSON(w, http.StatusOK, t)
	}
}

// -----------------------------------------------------------------------------
// DELETE /api/tickets/{id}
// Soft delete closes the ticket; ?hard=true removes it (admin only).
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.loadAccessible(w, r)
		if !ok {
			return
		}
		_, role := caller(r)

		if strings.EqualFold(r.URL.Query().Get("hard"), "true") {
			if role != models.RoleAdmin {
				utils.Error(w, http.StatusForbidden, "Hard delete requires admin access")
				return
			}
			if err := h.tickets.Delete(r.Context(), t.ID); err != nil {
				utils.Error(w, http.StatusInternalServerError, "failed to delete ticket")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		t.Status = models.StatusClosed
		t.UpdatedAt = time.Now().UTC()
		if err := h.tickets.Update(r.Context(), t); err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to delete ticket")
			return
		}
		events.LogOnError(r.Context(), h.log, h.pub, events.TicketUpdated, t)
		w.WriteHeader(http.StatusNoContent)
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets/{id}/assign
// Assignment moves the ticket to IN_PROGRESS and denormalizes the
// assignee name onto the ticket row.
// -----------------------------------------------------------------------------
func (h *TicketHTTP) Assign() http.HandlerFunc {
	type inDTO struct {
		TechnicianID string `json:"technicianId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.loadAccessible(w, r)
		if !ok {
			return
		}

		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.TechnicianID) == "" {
			utils.Error(w, http.StatusBadRequest, "technicianId is required")
			return
		}

		assignee, err := h.users.GetByID(r.Context(), strings.TrimSpace(in.TechnicianID))
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to look up assignee")
			return
		}
		if assignee == nil {
			utils.Error(w, http.StatusNotFound, "Assignee user not found")
			return
		}
		if !models.IsAgent(assignee.Role) {
			utils.Error(w, http.StatusBadRequest, "Tickets can only be assigned to technicians or administrators")
			return
		}

		t.AssignedTo = assignee.ID
		t.AssignedToName = assignee.FullName()
		t.Status = models.StatusInProgress
		t.UpdatedAt = time.Now().UTC()
		if err := h.tickets.Update(r.Context(), t); err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to assign ticket")
			return
		}
		events.LogOnError(r.Context(), h.log, h.pub, events.TicketAssigned, t)
		utils.JSON(w, http.StatusOK, t)
	}
}

// -----------------------------------------------------------------------------
// GET /api/tickets/{id}/comments
// Internal notes are stripped for customers; the client never sees
// them, whatever the UI toggles claim.
// -----------------------------------------------------------------------------
func (h *TicketHTTP) ListComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.loadAccessible(w, r)
		if !ok {
			return
		}
		comments, err := h.tickets.ListComments(r.Context(), t.ID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to retrieve comments")
			return
		}
		_, role := caller(r)
		if !models.IsAgent(role) {
			visible := make([]models.Comment, 0, len(comments))
			for _, c := range comments {
				if !c.IsInternal {
					visible = append(visible, c)
				}
			}
			comments = visible
		}
		if comments == nil {
			comments = []models.Comment{}
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"comments": comments,
			"count":    len(comments),
			"ticketId": t.ID,
		})
	}
}

// -----------------------------------------------------------------------------
// POST /api/tickets/{id}/comments
// -----------------------------------------------------------------------------
func (h *TicketHTTP) AddComment() http.HandlerFunc {
	type inDTO struct {
		Content     string   `json:"content"`
		Attachments []string `json:"attachments"`
		IsInternal  bool     `json:"isInternal"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.loadAccessible(w, r)
		if !ok {
			return
		}

		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		in.Content = strings.TrimSpace(in.Content)
		if in.Content == "" && len(in.Attachments) == 0 {
			utils.Error(w, http.StatusBadRequest, "Comment content is required")
			return
		}

		uid, role := caller(r)
		if in.IsInternal && !models.IsAgent(role) {
			utils.Error(w, http.StatusForbidden, "Only agents can create internal notes")
			return
		}

		email, _ := utils.GetString(r.Context(), middleware.CtxEmail)
		first, _ := utils.GetString(r.Context(), middleware.CtxFirstName)
		last, _ := utils.GetString(r.Context(), middleware.CtxLastName)
		name := strings.TrimSpace(first + " " + last)
		if name == "" {
			name = email
		}

		c := &models.Comment{
			ID:             uuid.NewString(),
			TicketID:       t.ID,
			Content:        in.Content,
			Attachments:    in.Attachments,
			IsInternal:     in.IsInternal,
			CreatedBy:      uid,
			CreatedByEmail: email,
			CreatedByName:  name,
			CreatedByRole:  role,
			CreatedAt:      time.Now().UTC(),
		}
		if err := h.tickets.AddComment(r.Context(), c); err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to create comment")
			return
		}
		events.LogOnError(r.Context(), h.log, h.pub, events.CommentCreated, c)
		utils.JSON(w, http.StatusCreated, c)
	}
}
