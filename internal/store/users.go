package store

import (
	"context"

	"github.com/google/uuid"
)

const createUser = `
INSERT INTO users (full_name, email, phone, password_hash, role, address, barangay)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, full_name, email, phone, password_hash, role, address, barangay, created_at
`

type CreateUserParams struct {
	FullName     string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	Address      string
	Barangay     string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.FullName, arg.Email, nullText(arg.Phone), arg.PasswordHash,
		arg.Role, nullText(arg.Address), nullText(arg.Barangay))
	var u User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.Address, &u.Barangay, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, full_name, email, phone, password_hash, role, address, barangay, created_at
FROM users WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.Address, &u.Barangay, &u.CreatedAt)
	return u, err
}

const getUser = `
SELECT id, full_name, email, phone, password_hash, role, address, barangay, created_at
FROM users WHERE id = $1
`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.Address, &u.Barangay, &u.CreatedAt)
	return u, err
}
