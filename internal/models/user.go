// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string   `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string   `json:"-" gorm:"size:255;not null"`
	UserType     UserType `json:"user_type" gorm:"type:varchar(20);not null"`
	FirstName    string   `json:"first_name" gorm:"size:100"`
	LastName     string   `json:"last_name" gorm:"size:100"`

	// UPI payout destination. VerifiedAccountName is only set once the id has
	// been confirmed through a gateway verification.
	UPIID               string `json:"upi_id" gorm:"column:upi_id;size:255"`
	UPIVerified         bool   `json:"upi_verified" gorm:"column:upi_verified;default:false"`
	VerifiedAccountName string `json:"verified_account_name" gorm:"size:255"`

	LastLoginAt *time.Time `json:"last_login_at"`

	// Relationships
	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
