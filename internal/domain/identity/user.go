package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shop/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserType distinguishes partners from buyers
type UserType string

const (
	UserTypeShop  UserType = "shop"
	UserTypeBuyer UserType = "buyer"
)

// IsValid checks if the type is a valid UserType
func (t UserType) IsValid() bool {
	return t == UserTypeShop || t == UserTypeBuyer
}

const (
	MaxNameLength     = 150
	MaxCompanyLength  = 40
	MaxPositionLength = 40
	MaxEmailLength    = 254
)

// bcryptCost is a variable so tests can lower it
var bcryptCost = bcrypt.DefaultCost

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is an account identified by email. New accounts are inactive until
// the email is confirmed.
type User struct {
	shared.BaseAggregateRoot
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Company      string
	Position     string
	Type         UserType
	IsActive     bool
}

// NewUser creates an inactive buyer account with a validated, hashed password
func NewUser(email, password, firstName, lastName string) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Type:              UserTypeBuyer,
	}
	if err := user.SetName(firstName, lastName); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

// NormalizeEmail trims the address and lowercases its domain part
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

// SetName sets first and last name
func (u *User) SetName(firstName, lastName string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return shared.NewDomainError("INVALID_INPUT", "First and last name are required")
	}
	if utf8.RuneCountInString(firstName) > MaxNameLength || utf8.RuneCountInString(lastName) > MaxNameLength {
		return shared.NewDomainError("INVALID_INPUT", "Name cannot exceed 150 characters")
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.Touch()
	return nil
}

// SetCompany sets the employer and position
func (u *User) SetCompany(company, position string) error {
	if utf8.RuneCountInString(company) > MaxCompanyLength {
		return shared.NewDomainError("INVALID_INPUT", "Company cannot exceed 40 characters")
	}
	if utf8.RuneCountInString(position) > MaxPositionLength {
		return shared.NewDomainError("INVALID_INPUT", "Position cannot exceed 40 characters")
	}
	u.Company = company
	u.Position = position
	u.Touch()
	return nil
}

// SetType changes the account type
func (u *User) SetType(t UserType) error {
	if !t.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "User type must be shop or buyer")
	}
	u.Type = t
	u.Touch()
	return nil
}

// SetPassword validates the password against the account and stores its hash
func (u *User) SetPassword(password string) error {
	if err := ValidatePassword(password, u.Email, u.FirstName, u.LastName); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Activate marks the email as confirmed
func (u *User) Activate() {
	if u.IsActive {
		return
	}
	u.IsActive = true
	u.Touch()
	u.AddDomainEvent(NewUserActivatedEvent(u))
}

// CanLogin reports whether the account may authenticate
func (u *User) CanLogin() bool {
	return u.IsActive
}

// IsShop reports whether the account is a partner
func (u *User) IsShop() bool {
	return u.Type == UserTypeShop
}

// FullName returns "first last"
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_INPUT", "Email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return shared.NewDomainError("INVALID_INPUT", "Email cannot exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_INPUT", "Invalid email format")
	}
	return nil
}
