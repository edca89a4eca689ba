package repository

import (
	"context"
	"time"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

type TicketRepository interface {
	List(ctx context.Context, f TicketFilter) ([]models.Ticket, int, error)
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Create(ctx context.Context, t *models.Ticket) error
	Update(ctx context.Context, t *models.Ticket) error
	Delete(ctx context.Context, id string) error

	ListComments(ctx context.Context, ticketID string) ([]models.Comment, error)
	AddComment(ctx context.Context, c *models.Comment) error

	CountByStatuses(ctx context.Context, statuses []string) (int, error)
	CountResolvedSince(ctx context.Context, since time.Time) (int, error)
	CountOpenByPriorities(ctx context.Context, priorities []string) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (*models.User, string /*passwordHash*/, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, int, error)
	ListByRoles(ctx context.Context, roles ...string) ([]models.User, error)
	UpdateRole(ctx context.Context, id, role, updatedBy string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetConfirmed(ctx context.Context, id string, confirmed bool) error
}
