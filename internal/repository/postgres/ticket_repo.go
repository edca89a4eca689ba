package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepo struct{ db *pgxpool.Pool }

func NewTicketRepo(db *pgxpool.Pool) *TicketRepo { return &TicketRepo{db: db} }

const ticketCols = `
	t.id, t.title, t.description, t.category, t.priority, t.status,
	COALESCE(t.resolution, ''), t.tags,
	t.created_by, COALESCE(t.created_by_email, ''),
	COALESCE(t.assigned_to, 'UNASSIGNED'), COALESCE(t.assigned_to_name, ''),
	t.created_at, t.updated_at, t.resolved_at`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Status,
		&t.Resolution, &t.Tags,
		&t.CreatedBy, &t.CreatedByEmail,
		&t.AssignedTo, &t.AssignedToName,
		&t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func buildTicketWhere(f repository.TicketFilter) (string, []any) {
	args := []any{}
	conds := []string{"1=1"}

	if q := strings.TrimSpace(f.Q); q != "" {
		p := "%" + q + "%"
		args = append(args, p, p)
		// Case-insensitive match on title or description
		conds = append(conds, "(t.title ILIKE $"+itoa(len(args)-1)+" OR t.description ILIKE $"+itoa(len(args))+")")
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, "t.status = $"+itoa(len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		conds = append(conds, "t.priority = $"+itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, "t.category = $"+itoa(len(args)))
	}
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		conds = append(conds, "t.created_by = $"+itoa(len(args)))
	}
	if f.AssignedTo != "" {
		args = append(args, f.AssignedTo)
		conds = append(conds, "t.assigned_to = $"+itoa(len(args)))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *TicketRepo) List(ctx context.Context, f repository.TicketFilter) ([]models.Ticket, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	whereSQL, args := buildTicketWhere(f)

	var total int
	countSQL := "SELECT COUNT(*) FROM tickets t " + whereSQL
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`
		SELECT %s
		FROM tickets t
		%s
		ORDER BY t.updated_at DESC
		LIMIT $%d OFFSET $%d
	`, ticketCols, whereSQL, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (r *TicketRepo) Get(ctx context.Context, id string) (*models.Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ticketCols+` FROM tickets t WHERE t.id = $1`, id)
	t, err := scanTicket(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tickets
			(id, title, description, category, priority, status, resolution, tags,
			 created_by, created_by_email, assigned_to, assigned_to_name,
			 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		t.ID, t.Title, t.Description, t.Category, t.Priority, t.Status, t.Resolution, t.Tags,
		t.CreatedBy, t.CreatedByEmail, t.AssignedTo, t.AssignedToName,
		t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *TicketRepo) Update(ctx context.Context, t *models.Ticket) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tickets SET
			title=$2, description=$3, category=$4, priority=$5, status=$6,
			resolution=$7, tags=$8, assigned_to=$9, assigned_to_name=$10,
			updated_at=$11, resolved_at=$12
		WHERE id=$1`,
		t.ID, t.Title, t.Description, t.Category, t.Priority, t.Status,
		t.Resolution, t.Tags, t.AssignedTo, t.AssignedToName,
		t.UpdatedAt, t.ResolvedAt)
	return err
}

func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	return err
}

func (r *TicketRepo) ListComments(ctx context.Context, ticketID string) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ticket_id, content, attachments, is_internal,
		       created_by, COALESCE(created_by_email, ''),
		       COALESCE(created_by_name, ''), COALESCE(created_by_role, ''),
		       created_at
		FROM comments
		WHERE ticket_id = $1
		ORDER BY created_at ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(
			&c.ID, &c.TicketID, &c.Content, &c.Attachments, &c.IsInternal,
			&c.CreatedBy, &c.CreatedByEmail, &c.CreatedByName, &c.CreatedByRole,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddComment inserts the comment and bumps the parent ticket's
// updated_at so the conversation moves the ticket up in list views.
func (r *TicketRepo) AddComment(ctx context.Context, c *models.Comment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO comments
			(id, ticket_id, content, attachments, is_internal,
			 created_by, created_by_email, created_by_name, created_by_role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.TicketID, c.Content, c.Attachments, c.IsInternal,
		c.CreatedBy, c.CreatedByEmail, c.CreatedByName, c.CreatedByRole, c.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE tickets SET updated_at=$2 WHERE id=$1`, c.TicketID, c.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *TicketRepo) CountByStatuses(ctx context.Context, statuses []string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE status = ANY($1)`, statuses).Scan(&n)
	return n, err
}

func (r *TicketRepo) CountResolvedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE resolved_at IS NOT NULL AND resolved_at >= $1`, since).Scan(&n)
	return n, err
}

func (r *TicketRepo) CountOpenByPriorities(ctx context.Context, priorities []string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets
		 WHERE priority = ANY($1) AND status NOT IN ('RESOLVED','CLOSED')`, priorities).Scan(&n)
	return n, err
}

func itoa(n int) string { return strconv.Itoa(n) }
