package models

import (
	"time"

	"github.com/shop/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	Email        string            `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash string            `gorm:"type:varchar(128);not null"`
	FirstName    string            `gorm:"type:varchar(150);not null"`
	LastName     string            `gorm:"type:varchar(150);not null"`
	Company      string            `gorm:"type:varchar(40);not null"`
	Position     string            `gorm:"type:varchar(40);not null"`
	Type         identity.UserType `gorm:"type:varchar(5);not null"`
	IsActive     bool              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.aggregateRoot(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Company:           m.Company,
		Position:          m.Position,
		Type:              m.Type,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.SetEntity(u.BaseEntity)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.Company = u.Company
	m.Position = u.Position
	m.Type = u.Type
	m.IsActive = u.IsActive
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// ContactModel is the persistence model for the Contact domain entity.
type ContactModel struct {
	BaseModel
	UserID    int64  `gorm:"not null;index"`
	City      string `gorm:"type:varchar(50);not null"`
	Street    string `gorm:"type:varchar(100);not null"`
	House     string `gorm:"type:varchar(15);not null"`
	Structure string `gorm:"type:varchar(15);not null"`
	Building  string `gorm:"type:varchar(15);not null"`
	Apartment string `gorm:"type:varchar(15);not null"`
	Phone     string `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact entity.
func (m *ContactModel) ToDomain() *identity.Contact {
	return &identity.Contact{
		BaseEntity: m.BaseModel.Entity(),
		UserID:     m.UserID,
		City:       m.City,
		Street:     m.Street,
		House:      m.House,
		Structure:  m.Structure,
		Building:   m.Building,
		Apartment:  m.Apartment,
		Phone:      m.Phone,
	}
}

// ContactModelFromDomain creates a new persistence model from a domain Contact entity.
func ContactModelFromDomain(c *identity.Contact) *ContactModel {
	m := &ContactModel{
		UserID:    c.UserID,
		City:      c.City,
		Street:    c.Street,
		House:     c.House,
		Structure: c.Structure,
		Building:  c.Building,
		Apartment: c.Apartment,
		Phone:     c.Phone,
	}
	m.SetEntity(c.BaseEntity)
	return m
}

// ConfirmEmailTokenModel is the persistence model for email confirmation tokens.
type ConfirmEmailTokenModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index"`
	Key       string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConfirmEmailTokenModel) TableName() string {
	return "confirm_email_tokens"
}

// ToDomain converts the persistence model to a domain ConfirmEmailToken.
func (m *ConfirmEmailTokenModel) ToDomain() *identity.ConfirmEmailToken {
	t := &identity.ConfirmEmailToken{UserID: m.UserID, Key: m.Key}
	t.ID = m.ID
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.CreatedAt
	return t
}

// PasswordResetTokenModel is the persistence model for password reset tokens.
type PasswordResetTokenModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index"`
	Key       string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PasswordResetTokenModel) TableName() string {
	return "password_reset_tokens"
}

// ToDomain converts the persistence model to a domain PasswordResetToken.
func (m *PasswordResetTokenModel) ToDomain() *identity.PasswordResetToken {
	t := &identity.PasswordResetToken{UserID: m.UserID, Key: m.Key}
	t.ID = m.ID
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.CreatedAt
	return t
}
