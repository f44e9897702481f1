package repository

import (
	"context"

	"github.com/Domenick1991/travelagency/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type PGUserRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `SELECT id, name, email, phone, role, created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "user "+id)
	}
	return &u, nil
}

// List returns users ordered by name. An empty role lists everyone.
func (r *PGUserRepository) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, email, phone, role, created_at FROM users
		WHERE ($1 = '' OR role = $1) ORDER BY name`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ UserRepository = (*PGUserRepository)(nil)
