package client

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

// Attachment limits mirror the upload endpoint's rules so a bad batch
// never starts uploading.
const maxAttachmentsPerComment = 5

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Attachment is one file staged for upload.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Thread is the detail view state for one ticket: the ticket itself,
// its comment list, and attachments staged for the next comment.
type Thread struct {
	api      *API
	session  *SessionStore
	nav      Navigator
	ticketID string

	mu       sync.Mutex
	ticket   *models.Ticket
	comments []models.Comment
	pending  []string
}

func NewThread(api *API, session *SessionStore, nav Navigator, ticketID string) *Thread {
	return &Thread{api: api, session: session, nav: nav, ticketID: ticketID}
}

// check funnels 401s into the uniform session-expired path.
func (t *Thread) check(err error) error {
	if errors.Is(err, ErrUnauthorized) && t.session != nil {
		t.session.ExpireTo(t.nav)
	}
	return err
}

func (t *Thread) LoadTicket(ctx context.Context) (*models.Ticket, error) {
	tk, err := t.api.GetTicket(ctx, t.ticketID)
	if err != nil {
		return nil, t.check(err)
	}
	t.mu.Lock()
	t.ticket = tk
	t.mu.Unlock()
	return tk, nil
}

func (t *Thread) LoadComments(ctx context.Context) ([]models.Comment, error) {
	cs, err := t.api.ListComments(ctx, t.ticketID)
	if err != nil {
		return nil, t.check(err)
	}
	t.mu.Lock()
	t.comments = cs
	t.mu.Unlock()
	return cs, nil
}

func (t *Thread) Ticket() *models.Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticket == nil {
		return nil
	}
	tk := *t.ticket
	return &tk
}

func (t *Thread) Comments() []models.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Comment, len(t.comments))
	copy(out, t.comments)
	return out
}

func (t *Thread) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.pending))
	copy(out, t.pending)
	return out
}

func (t *Thread) ClearPending() {
	t.mu.Lock()
	t.pending = nil
	t.mu.Unlock()
}

// PostComment submits content plus any staged attachments. Empty input
// is a silent no-op with no network call. On success the returned
// comment is appended locally instead of refetching the thread, and
// the staged attachments are consumed.
func (t *Thread) PostComment(ctx context.Context, content string, internal bool) (*models.Comment, error) {
	content = strings.TrimSpace(content)

	t.mu.Lock()
	attachments := make([]string, len(t.pending))
	copy(attachments, t.pending)
	t.mu.Unlock()

	if content == "" && len(attachments) == 0 {
		return nil, nil
	}

	c, err := t.api.PostComment(ctx, t.ticketID, CommentInput{
		Content:     content,
		Attachments: attachments,
		IsInternal:  internal,
	})
	if err != nil {
		return nil, t.check(err)
	}

	t.mu.Lock()
	t.comments = append(t.comments, *c)
	t.pending = nil
	t.mu.Unlock()
	return c, nil
}

// UploadAttachments validates the whole batch first, then runs the
// two-step presign-and-PUT per file. Any constraint violation rejects
// the batch before a single byte is uploaded; the staged list only
// grows when every file made it.
func (t *Thread) UploadAttachments(ctx context.Context, files []Attachment) error {
	t.mu.Lock()
	staged := len(t.pending)
	t.mu.Unlock()

	if staged+len(files) > maxAttachmentsPerComment {
		return errors.Errorf("at most %d attachments per comment", maxAttachmentsPerComment)
	}
	for _, f := range files {
		if !allowedImageTypes[f.ContentType] {
			return errors.Errorf("%s: only image files (jpeg, png, gif, webp) are allowed", f.FileName)
		}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		target, err := t.api.RequestUploadURL(ctx, f.FileName, f.ContentType, t.ticketID)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				return t.check(err)
			}
			return errors.Wrapf(err, "presign %s", f.FileName)
		}
		if err := t.api.UploadFile(ctx, target, f.ContentType, f.Data); err != nil {
			return t.check(err)
		}
		urls = append(urls, target.PublicURL)
	}

	t.mu.Lock()
	t.pending = append(t.pending, urls...)
	t.mu.Unlock()
	return nil
}
