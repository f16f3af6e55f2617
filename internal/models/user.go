package models

import (
	"time"
)

// User is an account of any role. Users are retired by Resign, never deleted.
type User struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	Name           string      `gorm:"size:100;not null" json:"name"`
	Email          string      `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username       string      `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password       string      `gorm:"size:255;not null" json:"-"`
	Role           Role        `gorm:"size:20;not null;default:member" json:"role"`
	Status         *UserStatus `gorm:"size:20" json:"status"` // NULL once resigned
	Specialization string      `gorm:"size:255" json:"specialization"`
	JoinDate       time.Time   `gorm:"autoCreateTime" json:"join_date"`
	ResignDate     *time.Time  `gorm:"type:date" json:"resign_date"`
	OTP            string      `gorm:"column:otp;size:6" json:"-"`
	IsVerified     bool        `gorm:"default:false" json:"is_verified"`
	ResetOTP       string      `gorm:"column:reset_otp;size:6" json:"-"`
	ResetOTPExpiry int64       `gorm:"column:reset_otp_expiry" json:"-"` // epoch milliseconds
}

func (User) TableName() string { return "users" }

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status != nil && *u.Status == UserActive
}

// StatusPtr is a convenience for assigning a status literal.
func StatusPtr(s UserStatus) *UserStatus {
	return &s
}
