package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/crudimport/internal/core"
)

// maxParams is the PostgreSQL limit on bind parameters per statement.
const maxParams = 65535

const userColumns = "id, username, role, created_at, updated_at"

func scanUser(row pgx.Row) (core.User, error) {
	var (
		id               int64
		u                core.User
		created, updated pgtype.Timestamptz
	)
	if err := row.Scan(&id, &u.Username, &u.Role, &created, &updated); err != nil {
		return core.User{}, err
	}
	u.ID = strconv.FormatInt(id, 10)
	u.CreatedAt = created.Time
	u.UpdatedAt = updated.Time
	return u, nil
}

// buildInsertUsers renders one multi-row INSERT for records.
func buildInsertUsers(table pgx.Identifier, records []core.NormalizedRecord) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(records)*2)

	fmt.Fprintf(&b, "INSERT INTO %s (username, role) VALUES ", table.Sanitize())
	for i, r := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($%d, $%d)", i*2+1, i*2+2)
		args = append(args, r.Name, r.Role)
	}
	return b.String(), args
}

// InsertUsers writes all records with one statement. Batches too large for a
// single INSERT's parameter limit go through one COPY instead.
func (s *Store) InsertUsers(ctx context.Context, records []core.NormalizedRecord) (int64, error) {
	if len(records)*2 > maxParams {
		return s.db.CopyFrom(ctx, s.usersTable, []string{"username", "role"},
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				return []any{records[i].Name, records[i].Role}, nil
			}))
	}

	sql, args := buildInsertUsers(s.usersTable, records)
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.Query(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY id", userColumns, s.usersTable.Sanitize()))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateUser inserts one user and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, username, role string) (core.User, error) {
	row := s.db.QueryRow(ctx,
		fmt.Sprintf("INSERT INTO %s (username, role) VALUES ($1, $2) RETURNING %s",
			s.usersTable.Sanitize(), userColumns),
		username, role)

	u, err := scanUser(row)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpdateUser applies patch; nil fields keep their stored value.
func (s *Store) UpdateUser(ctx context.Context, id string, patch core.UserPatch) (core.User, error) {
	n, err := parseID(id)
	if err != nil {
		return core.User{}, err
	}

	row := s.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s SET username = COALESCE($2, username), role = COALESCE($3, role), updated_at = NOW()
WHERE id = $1 RETURNING %s`, s.usersTable.Sanitize(), userColumns),
		n, patch.Username, patch.Role)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", n, err)
	}
	return u, nil
}

// DeleteUser removes a user and returns the deleted row.
func (s *Store) DeleteUser(ctx context.Context, id string) (core.User, error) {
	n, err := parseID(id)
	if err != nil {
		return core.User{}, err
	}

	row := s.db.QueryRow(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING %s", s.usersTable.Sanitize(), userColumns), n)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("delete user %d: %w", n, err)
	}
	return u, nil
}
