package model

import "time"

// AdminAccount holds an administrator's email and outstanding OTP state.
// OTPHash and OTPExpiresAt are set together on issuance and cleared together
// on successful verification; an empty hash means no OTP is outstanding.
type AdminAccount struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	OTPHash      string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
