package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/shared/db"
)

const userColumns = `id, username, password_hash, role, balance, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Balance, &u.CreatedAt)
	return u, err
}

func (p *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (p *Postgres) GetUser(ctx context.Context, id string) (User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func (p *Postgres) UserByUsername(ctx context.Context, username string) (User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func (p *Postgres) CreateUser(ctx context.Context, username, passwordHash, role string) (User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `
		INSERT INTO users(id, username, password_hash, role, balance, created_at)
		VALUES($1,$2,$3,$4,0,NOW())
		RETURNING `+userColumns, uuid.New().String(), username, passwordHash, role))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrDuplicateName
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UpdateUser aplica só os campos informados
func (p *Postgres) UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error) {
	sets := []string{}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	if upd.Role != nil {
		add("role", *upd.Role)
	}
	if upd.Balance != nil {
		add("balance", *upd.Balance)
	}
	if len(sets) == 0 {
		return p.GetUser(ctx, id)
	}

	u, err := scanUser(p.db.QueryRowContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id=$1 RETURNING `+userColumns, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return User{}, ErrDuplicateName
	}
	return u, err
}

// DeleteUser remove o usuário; quem já apostou não pode ser removido
func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureAdmin cria o admin inicial se o username ainda não existir
func (p *Postgres) EnsureAdmin(ctx context.Context, username, passwordHash string) (created bool, err error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO users(id, username, password_hash, role, balance, created_at)
		VALUES($1,$2,$3,$4,$5,NOW())
		ON CONFLICT (username) DO NOTHING`,
		uuid.New().String(), username, passwordHash, RoleAdmin, decimal.Zero)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
