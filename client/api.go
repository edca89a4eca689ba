package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

// API is the authenticated client for the application endpoints. The
// bearer token is read lazily so it tracks the live session.
type API struct {
	baseURL string
	http    *http.Client
	token   func() string
}

func NewAPI(baseURL string, token func() string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
	}
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := a.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decode %s %s response", method, path)
		}
	}
	return nil
}

// TicketQuery narrows the server-side ticket listing.
type TicketQuery struct {
	Status   string
	Priority string
	Category string
}

func (a *API) ListTickets(ctx context.Context, q TicketQuery) ([]models.Ticket, error) {
	vals := url.Values{}
	if q.Status != "" {
		vals.Set("status", q.Status)
	}
	if q.Priority != "" {
		vals.Set("priority", q.Priority)
	}
	if q.Category != "" {
		vals.Set("category", q.Category)
	}
	var out struct {
		Tickets []models.Ticket `json:"tickets"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/tickets", vals, nil, &out); err != nil {
		return nil, err
	}
	return out.Tickets, nil
}

// CreateTicketInput mirrors the create endpoint's accepted fields.
type CreateTicketInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (a *API) CreateTicket(ctx context.Context, in CreateTicketInput) (*models.Ticket, error) {
	var t models.Ticket
	if err := a.do(ctx, http.MethodPost, "/api/tickets", nil, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (a *API) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var t models.Ticket
	if err := a.do(ctx, http.MethodGet, "/api/tickets/"+url.PathEscape(id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTicket patches only the fields present in the map; the server
// rejects fields outside its whitelist.
func (a *API) UpdateTicket(ctx context.Context, id string, fields map[string]any) (*models.Ticket, error) {
	var t models.Ticket
	if err := a.do(ctx, http.MethodPatch, "/api/tickets/"+url.PathEscape(id), nil, fields, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (a *API) DeleteTicket(ctx context.Context, id string, hard bool) error {
	vals := url.Values{}
	if hard {
		vals.Set("hard", "true")
	}
	return a.do(ctx, http.MethodDelete, "/api/tickets/"+url.PathEscape(id), vals, nil, nil)
}

func (a *API) AssignTicket(ctx context.Context, id, technicianID string) (*models.Ticket, error) {
	in := map[string]string{"technicianId": technicianID}
	var t models.Ticket
	if err := a.do(ctx, http.MethodPost, "/api/tickets/"+url.PathEscape(id)+"/assign", nil, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (a *API) ListComments(ctx context.Context, ticketID string) ([]models.Comment, error) {
	var out struct {
		Comments []models.Comment `json:"comments"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/tickets/"+url.PathEscape(ticketID)+"/comments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// CommentInput is the body for posting a comment.
type CommentInput struct {
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	IsInternal  bool     `json:"isInternal,omitempty"`
}

func (a *API) PostComment(ctx context.Context, ticketID string, in CommentInput) (*models.Comment, error) {
	var c models.Comment
	if err := a.do(ctx, http.MethodPost, "/api/tickets/"+url.PathEscape(ticketID)+"/comments", nil, in, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) ListUsers(ctx context.Context, q string) ([]models.User, error) {
	vals := url.Values{}
	if q != "" {
		vals.Set("q", q)
	}
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/users", vals, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (a *API) UpdateUserRole(ctx context.Context, userID, role string) (*models.User, error) {
	in := map[string]string{"role": role}
	var u models.User
	if err := a.do(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(userID)+"/role", nil, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	var out struct {
		Technicians []models.Technician `json:"technicians"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/technicians", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Technicians, nil
}

// ReportSummary mirrors the reports endpoint payload.
type ReportSummary struct {
	Open             int `json:"open"`
	Resolved7d       int `json:"resolved7d"`
	HighCriticalOpen int `json:"highCriticalOpen"`
}

func (a *API) Summary(ctx context.Context) (*ReportSummary, error) {
	var s ReportSummary
	if err := a.do(ctx, http.MethodGet, "/api/reports/summary", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UploadTarget is the presigned destination for one attachment.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	ExpiresIn int    `json:"expiresIn"`
}

func (a *API) RequestUploadURL(ctx context.Context, fileName, contentType, ticketID string) (*UploadTarget, error) {
	in := map[string]string{"fileName": fileName, "contentType": contentType, "ticketId": ticketID}
	var t UploadTarget
	if err := a.do(ctx, http.MethodPost, "/api/attachments/upload-url", nil, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UploadFile PUTs raw bytes to a presigned URL. The URL carries its
// own authentication, so no bearer token is attached.
func (a *API) UploadFile(ctx context.Context, target *UploadTarget, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "build upload request")
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := a.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "upload %s", target.Key)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: "upload failed for " + target.Key + " (status " + strconv.Itoa(resp.StatusCode) + ")"}
	}
	return nil
}
