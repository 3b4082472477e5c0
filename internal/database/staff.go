package database

import "context"

const getStaffUserByEmail = `
SELECT id, name, email, password_hash, role, is_active, created_at
FROM staff_users
WHERE email = $1 AND is_active
`

func (q *Queries) GetStaffUserByEmail(ctx context.Context, email string) (StaffUser, error) {
	var u StaffUser
	err := q.db.QueryRow(ctx, getStaffUserByEmail, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}

const createStaffUser = `
INSERT INTO staff_users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, name, email, password_hash, role, is_active, created_at
`

type CreateStaffUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

func (q *Queries) CreateStaffUser(ctx context.Context, arg CreateStaffUserParams) (StaffUser, error) {
	var u StaffUser
	err := q.db.QueryRow(ctx, createStaffUser, arg.Name, arg.Email, arg.PasswordHash, arg.Role).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}
