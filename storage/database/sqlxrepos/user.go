// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core/user"
)

type userRow struct {
	ID           int            `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	Role         string         `db:"role"`
	SchoolID     int            `db:"school_id"`
	ClassroomID  sql.NullInt64  `db:"classroom_id"`
	IsActive     bool           `db:"is_active"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		Role:         r.Role,
		SchoolID:     r.SchoolID,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.ClassroomID.Valid {
		usr.ClassroomID = int(r.ClassroomID.Int64)
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

func nullClassroomID(id int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}

const userCols = `id, name, username, email, role, school_id, classroom_id, is_active, password_hash, created_at, updated_at, last_login`

type UserRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (repo *UserRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM app_user WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, fmt.Sprintf("%d", usr.ID))
		}
		query += fmt.Sprintf(` AND id NOT IN (%s)`, strings.Join(ids, ","))
	}

	var rows []userRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	for _, r := range rows {
		if r.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && r.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *UserRepository) CreateUser(usr user.User) (user.User, error) {
	query := `
		INSERT INTO app_user (name, username, email, role, school_id, classroom_id, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := repo.db.QueryRow(
		query,
		usr.Name, usr.Username, usr.Email, usr.Role, usr.SchoolID,
		nullClassroomID(usr.ClassroomID), usr.IsActive, usr.PasswordHash,
		usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *UserRepository) GetUserByID(id int) (user.User, error) {
	return repo.getBy(`id = $1`, id)
}

func (repo *UserRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getBy(`username = $1`, username)
}

func (repo *UserRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getBy(`email = $1`, email)
}

func (repo *UserRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.getBy(`username = $1 OR email = $1`, username)
}

func (repo *UserRepository) getBy(where string, arg interface{}) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, `SELECT `+userCols+` FROM app_user WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *UserRepository) FilterUsers(schoolID int, filter user.QueryFilter) ([]user.User, error) {
	query := `SELECT ` + userCols + ` FROM app_user WHERE school_id = $1`
	args := []interface{}{schoolID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (name ILIKE $%d OR username ILIKE $%d OR email ILIKE $%d)`, n, n, n)
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		query += fmt.Sprintf(` AND role = $%d`, len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += fmt.Sprintf(` AND is_active = $%d`, len(args))
	}
	query += ` ORDER BY name`

	var rows []userRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.User, len(rows))
	for i, r := range rows {
		users[i] = r.toUser()
	}
	return users, nil
}

func (repo *UserRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	if isActive != nil {
		usr.IsActive = *isActive
	}
	query := `
		UPDATE app_user
		SET name = $1, username = $2, email = $3, is_active = $4, password_hash = $5, updated_at = $6
		WHERE id = $7`
	res, err := repo.db.Exec(query, usr.Name, usr.Username, usr.Email, usr.IsActive, usr.PasswordHash, usr.UpdatedAt, usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *UserRepository) SetLastLogin(id int, at time.Time) error {
	_, err := repo.db.Exec(`UPDATE app_user SET last_login = $1 WHERE id = $2`, at, id)
	return errors.Wrap(err, "setting last login")
}

func (repo *UserRepository) DeleteUsersByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM app_user WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
