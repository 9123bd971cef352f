package repositories

import (
	"database/sql"

	intconfig "laganbus/internal/config"
	"laganbus/internal/domain"
)

// Operator is a staff account allowed through the admin gate. Password and
// PIN are stored as bcrypt hashes; the two-step login checks them in order.
type Operator struct {
	ID           int64
	Name         string
	Username     string
	PasswordHash string
	PINHash      string
	Role         string
	Status       string
}

type OperatorRepository struct {
	DB *sql.DB
}

func (r OperatorRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Enabled reports whether an accounts database is configured at all.
func (r OperatorRepository) Enabled() bool {
	return r.db() != nil
}

func (r OperatorRepository) GetByUsername(username string) (Operator, error) {
	db := r.db()
	if db == nil {
		return Operator{}, domain.NotFoundError{Resource: "operator"}
	}

	var op Operator
	err := db.QueryRow(`
        SELECT id, name, username, password_hash, pin_hash, role, status
        FROM operators
        WHERE username = ?
    `, username).Scan(
		&op.ID,
		&op.Name,
		&op.Username,
		&op.PasswordHash,
		&op.PINHash,
		&op.Role,
		&op.Status,
	)
	if err == sql.ErrNoRows {
		return Operator{}, domain.NotFoundError{Resource: "operator"}
	}
	if err != nil {
		return Operator{}, err
	}
	return op, nil
}

func (r OperatorRepository) Create(op Operator) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, domain.ValidationError{Msg: "operator accounts database not configured"}
	}

	var exists int
	if err := db.QueryRow(`SELECT COUNT(*) FROM operators WHERE username = ?`, op.Username).Scan(&exists); err != nil {
		return 0, err
	}
	if exists > 0 {
		return 0, domain.ConflictError{Resource: "operator", Msg: "username already registered"}
	}

	res, err := db.Exec(`
        INSERT INTO operators (name, username, password_hash, pin_hash, role, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, 'operator', 'active', NOW(), NOW())
    `, op.Name, op.Username, op.PasswordHash, op.PINHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
