package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starter-kit/account-service/internal/domain"
)

// DefaultPageSize is the page length used by the user management listing.
const DefaultPageSize = 10

// ListFilter narrows and pages the user listing.
type ListFilter struct {
	Search   string
	Role     domain.Role
	Page     int
	PageSize int
}

// RoleCounts aggregates users per role for the management dashboard.
type RoleCounts struct {
	Total    int
	Admins   int
	Managers int
	Default  int
}

// UserRepository defines persistence access for principals.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.User, int, error)
	CountByRole(ctx context.Context) (RoleCounts, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, first_name, last_name, email, phone, role, is_active, is_staff, is_superuser, password_hash, date_joined`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.PasswordHash,
		&user.DateJoined,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (first_name, last_name, email, phone, role, is_active, is_staff, is_superuser, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, date_joined`

	return r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Role,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.PasswordHash,
	).Scan(&user.ID, &user.DateJoined)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET first_name=$1, last_name=$2, email=$3, phone=$4, role=$5,
            is_active=$6, is_staff=$7, is_superuser=$8, password_hash=$9
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Role,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.PasswordHash,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email=$1`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// List returns one page of users, newest first, plus the total match count.
// Search matches first name, last name or email case-insensitively.
func (r *userRepository) List(ctx context.Context, filter ListFilter) ([]*domain.User, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE %s OR last_name ILIKE %s OR email ILIKE %s)",
			placeholder, placeholder, placeholder))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(
		"SELECT %s FROM users%s ORDER BY date_joined DESC LIMIT $%d OFFSET $%d",
		userColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0, pageSize)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) CountByRole(ctx context.Context) (RoleCounts, error) {
	const query = `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE role = 'ADMIN'),
            COUNT(*) FILTER (WHERE role = 'MANAGER'),
            COUNT(*) FILTER (WHERE role = 'DEFAULT')
        FROM users`

	var counts RoleCounts
	if err := r.pool.QueryRow(ctx, query).Scan(
		&counts.Total,
		&counts.Admins,
		&counts.Managers,
		&counts.Default,
	); err != nil {
		return RoleCounts{}, err
	}
	return counts, nil
}
