package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

const userColumns = `id, email, password_hash, is_admin, created_at`

// InsertUser stores a new user. A duplicate email yields ErrUniqueConstraint.
func InsertUser(ctx context.Context, q DBTX, u *deck.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, boolToInt(u.IsAdmin), u.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetUserByID retrieves a user by ULID.
func GetUserByID(ctx context.Context, q DBTX, id string) (*deck.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("user", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by normalized email.
func GetUserByEmail(ctx context.Context, q DBTX, email string) (*deck.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("user", email)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return u, nil
}

// ListUsers returns all users, oldest first.
func ListUsers(ctx context.Context, q DBTX) ([]deck.User, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var users []deck.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return users, nil
}

// SetUserAdmin grants or revokes the admin flag.
func SetUserAdmin(ctx context.Context, q DBTX, id string, isAdmin bool) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, boolToInt(isAdmin), id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(res, "user", id)
}

func scanUser(s scanner) (*deck.User, error) {
	var u deck.User
	var isAdmin int
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &isAdmin, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	return &u, nil
}
