package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/snipstash/snipstash/internal/model"
)

type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func scanAdmin(scanner interface{ Scan(...any) error }) (*model.AdminAccount, error) {
	var a model.AdminAccount
	var otpHash sql.NullString
	var otpExpiresAt sql.NullTime

	err := scanner.Scan(&a.ID, &a.Email, &otpHash, &otpExpiresAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if otpHash.Valid {
		a.OTPHash = otpHash.String
	}
	if otpExpiresAt.Valid {
		a.OTPExpiresAt = &otpExpiresAt.Time
	}
	return &a, nil
}

const adminCols = `id, email, otp_hash, otp_expires_at, created_at, updated_at`

// SetOTP upserts the admin row for email, overwriting the OTP hash and expiry
// in one statement. The account is created lazily on first issuance; a reissue
// invalidates any previously outstanding OTP. Concurrent issuance for the same
// email races and the last writer wins.
func (s *AdminStore) SetOTP(email, otpHash string, expiresAt time.Time) (*model.AdminAccount, error) {
	_, err := s.db.Exec(
		`INSERT INTO admins (email, otp_hash, otp_expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
		   otp_hash = excluded.otp_hash,
		   otp_expires_at = excluded.otp_expires_at,
		   updated_at = datetime('now')`,
		email, otpHash, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert admin otp: %w", err)
	}
	return s.GetByEmail(email)
}

// GetByEmail returns the admin account, or nil if no row exists.
func (s *AdminStore) GetByEmail(email string) (*model.AdminAccount, error) {
	row := s.db.QueryRow(`SELECT `+adminCols+` FROM admins WHERE email = ?`, email)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return a, nil
}

// ClearOTP nulls the OTP hash and expiry after a successful verification,
// making the code single-use.
func (s *AdminStore) ClearOTP(email string) error {
	_, err := s.db.Exec(
		`UPDATE admins SET otp_hash = NULL, otp_expires_at = NULL, updated_at = datetime('now') WHERE email = ?`,
		email,
	)
	if err != nil {
		return fmt.Errorf("clear admin otp: %w", err)
	}
	return nil
}

// ClearExpiredOTPs nulls OTP state on accounts whose code has lapsed and
// returns the number of rows touched. Expired codes are already unusable;
// this just keeps dead hashes out of the table.
func (s *AdminStore) ClearExpiredOTPs() (int64, error) {
	result, err := s.db.Exec(
		`UPDATE admins SET otp_hash = NULL, otp_expires_at = NULL
		 WHERE otp_hash IS NOT NULL AND otp_expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired otps: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
