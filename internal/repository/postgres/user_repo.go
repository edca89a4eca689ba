package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct{ db *pgxpool.Pool }

func NewUserRepo(db *pgxpool.Pool) repository.UserRepository { return &UserRepo{db: db} }

const userCols = `id, email, first_name, last_name, role, confirmed, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.Confirmed, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create stores the user with its bcrypt hash in password_h.
func (r *UserRepo) Create(ctx context.Context, u *models.User, passwordHash string) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, role, confirmed, password_h)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		u.ID, u.Email, u.FirstName, u.LastName, u.Role, u.Confirmed, passwordHash).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var u models.User
	var ph string
	err := r.db.QueryRow(ctx, `
		SELECT `+userCols+`, password_h FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.Confirmed, &u.CreatedAt, &u.UpdatedAt, &ph)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", nil
		}
		return nil, "", err
	}
	return &u, ph, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *UserRepo) List(ctx context.Context, f repository.UserFilter) ([]models.User, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	args := []any{}
	conds := []string{"1=1"}
	if q := strings.TrimSpace(f.Q); q != "" {
		p := "%" + q + "%"
		args = append(args, p, p, p)
		conds = append(conds, "(email ILIKE $"+itoa(len(args)-2)+
			" OR first_name ILIKE $"+itoa(len(args)-1)+
			" OR last_name ILIKE $"+itoa(len(args))+")")
	}
	if f.Role != "" {
		args = append(args, f.Role)
		conds = append(conds, "role = $"+itoa(len(args)))
	}
	whereSQL := "WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at ASC LIMIT $%d OFFSET $%d`,
		userCols, whereSQL, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

func (r *UserRepo) ListByRoles(ctx context.Context, roles ...string) ([]models.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userCols+` FROM users WHERE role = ANY($1) ORDER BY first_name, last_name`, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepo) UpdateRole(ctx context.Context, id, role, updatedBy string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET role=$2, updated_by=$3, updated_at=now()
		WHERE id=$1
		RETURNING `+userCols, id, role, updatedBy))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password_h=$2, updated_at=now() WHERE id=$1`, id, hash)
	return err
}

func (r *UserRepo) SetConfirmed(ctx context.Context, id string, confirmed bool) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET confirmed=$2, updated_at=now() WHERE id=$1`, id, confirmed)
	return err
}
