package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/crudimport/internal/core"
)

const userColumns = "id, username, role, created_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (core.User, error) {
	var (
		id               int64
		u                core.User
		created, updated sql.NullTime
	)
	if err := row.Scan(&id, &u.Username, &u.Role, &created, &updated); err != nil {
		return core.User{}, err
	}
	u.ID = strconv.FormatInt(id, 10)
	u.CreatedAt = created.Time
	u.UpdatedAt = updated.Time
	return u, nil
}

// InsertUsers writes all records with one multi-row INSERT.
func (s *Store) InsertUsers(ctx context.Context, records []core.NormalizedRecord) (int64, error) {
	var b strings.Builder
	args := make([]any, 0, len(records)*2)

	fmt.Fprintf(&b, "INSERT INTO %s (username, role) VALUES ", s.table)
	for i, r := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?)")
		args = append(args, r.Name, r.Role)
	}

	res, err := s.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY id", userColumns, s.table))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []core.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) getUser(ctx context.Context, id int64) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", userColumns, s.table), id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// CreateUser inserts one user and reads it back.
func (s *Store) CreateUser(ctx context.Context, username, role string) (core.User, error) {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (username, role) VALUES (?, ?)", s.table), username, role)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return s.getUser(ctx, id)
}

// UpdateUser applies patch; nil fields keep their stored value. MySQL
// reports zero affected rows for no-op updates, so existence is checked
// with a read first.
func (s *Store) UpdateUser(ctx context.Context, id string, patch core.UserPatch) (core.User, error) {
	n, err := parseID(id)
	if err != nil {
		return core.User{}, err
	}
	if _, err := s.getUser(ctx, n); err != nil {
		return core.User{}, err
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET username = IFNULL(?, username), role = IFNULL(?, role), updated_at = NOW() WHERE id = ?", s.table),
		patch.Username, patch.Role, n)
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", n, err)
	}
	return s.getUser(ctx, n)
}

// DeleteUser removes a user and returns the row as it was.
func (s *Store) DeleteUser(ctx context.Context, id string) (core.User, error) {
	n, err := parseID(id)
	if err != nil {
		return core.User{}, err
	}

	u, err := s.getUser(ctx, n)
	if err != nil {
		return core.User{}, err
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), n); err != nil {
		return core.User{}, fmt.Errorf("delete user %d: %w", n, err)
	}
	return u, nil
}
