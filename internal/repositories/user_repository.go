package repositories

import (
	"database/sql"
	"errors"
	"time"

	"langgol/internal/models"
)

// ErrDuplicate is returned by Create when the email is already taken.
// Uniqueness is enforced by the store itself (ON CONFLICT on the unique
// index), so concurrent signups for the same email cannot both succeed.
var ErrDuplicate = errors.New("email already exists")

type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	Verify(email string) error
	UpdatePassword(email, passwordHash string) error
	UpdateProfile(email string, upd models.ProfileUpdate) (int64, error)
	ListNonAdmin() ([]*models.User, error)

	// refresh helpers
	UpdateRefresh(email, token string, expiresAt time.Time) error
	GetByRefreshToken(token string) (*models.User, error)
	ClearRefresh(email string) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			email, password_hash, name, phone, address,
			security_question, security_answer_hash,
			is_verified, is_admin, verification_code
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`
	err := r.DB.QueryRow(q,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.Address,
		user.SecurityQuestion,
		user.SecurityAnswerHash,
		user.IsVerified,
		user.IsAdmin,
		user.VerificationCode,
	).Scan(&user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// conflict path: nothing inserted, nothing returned
		return ErrDuplicate
	}
	return err
}

const userColumns = `
	id, email, password_hash, name, phone, address,
	security_question, security_answer_hash,
	is_verified, is_admin, verification_code,
	refresh_token, refresh_expires_at, created_at
`

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		phone   sql.NullString
		address sql.NullString
		code    sql.NullString
		rt      sql.NullString
		rte     sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &phone, &address,
		&u.SecurityQuestion, &u.SecurityAnswerHash,
		&u.IsVerified, &u.IsAdmin, &code,
		&rt, &rte, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		u.Phone = phone.String
	}
	if address.Valid {
		u.Address = address.String
	}
	if code.Valid {
		s := code.String
		u.VerificationCode = &s
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	return u, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.DB.QueryRow(q, email))
}

func (r *userRepository) Verify(email string) error {
	_, err := r.DB.Exec(`
		UPDATE users
		SET is_verified=TRUE, verification_code=NULL
		WHERE email=$1
	`, email)
	return err
}

func (r *userRepository) UpdatePassword(email, passwordHash string) error {
	_, err := r.DB.Exec(`UPDATE users SET password_hash=$1 WHERE email=$2`, passwordHash, email)
	return err
}

// UpdateProfile reports the number of rows actually changed. A missing user
// and a byte-identical update both come back as zero, matching the old
// backend's modifiedCount check.
func (r *userRepository) UpdateProfile(email string, upd models.ProfileUpdate) (int64, error) {
	const q = `
		UPDATE users
		SET name=$2, phone=$3, address=$4
		WHERE email=$1
		  AND (name IS DISTINCT FROM $2
		    OR phone IS DISTINCT FROM $3
		    OR address IS DISTINCT FROM $4)
	`
	res, err := r.DB.Exec(q, email, upd.Name, upd.Phone, upd.Address)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *userRepository) ListNonAdmin() ([]*models.User, error) {
	const q = `
		SELECT
			id, email, name, phone, address,
			security_question, is_verified, is_admin, created_at
		FROM users
		WHERE is_admin = FALSE
		ORDER BY id
	`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*models.User
	for rows.Next() {
		u := &models.User{}
		var phone, address sql.NullString
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &phone, &address,
			&u.SecurityQuestion, &u.IsVerified, &u.IsAdmin, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		if phone.Valid {
			u.Phone = phone.String
		}
		if address.Valid {
			u.Address = address.String
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(email, token string, expiresAt time.Time) error {
	_, err := r.DB.Exec(`
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2
		WHERE email=$3
	`, token, expiresAt, email)
	return err
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	return r.scanUser(r.DB.QueryRow(q, token))
}

func (r *userRepository) ClearRefresh(email string) error {
	_, err := r.DB.Exec(`
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL
		WHERE email=$1
	`, email)
	return err
}
