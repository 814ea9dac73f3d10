package identity

import (
	"context"
	"errors"

	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AccountService manages account details and delivery contacts of the caller
type AccountService struct {
	users    identity.UserRepository
	contacts identity.ContactRepository
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(users identity.UserRepository, contacts identity.ContactRepository, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:    users,
		contacts: contacts,
		logger:   logger,
	}
}

// GetAccount returns the user with their contacts
func (s *AccountService) GetAccount(ctx context.Context, userID int64) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.contacts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user, contacts)
	return &response, nil
}

// UpdateAccount applies a partial update. A new password is validated against
// the updated account.
func (s *AccountService) UpdateAccount(ctx context.Context, userID int64, req UpdateAccountRequest) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := identity.NormalizeEmail(*req.Email)
		if email != user.Email {
			exists, err := s.users.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this email already exists")
			}
			user.Email = email
		}
	}

	if req.FirstName != nil || req.LastName != nil {
		first, last := user.FirstName, user.LastName
		if req.FirstName != nil {
			first = *req.FirstName
		}
		if req.LastName != nil {
			last = *req.LastName
		}
		if err := user.SetName(first, last); err != nil {
			return nil, err
		}
	}

	if req.Company != nil || req.Position != nil {
		company, position := user.Company, user.Position
		if req.Company != nil {
			company = *req.Company
		}
		if req.Position != nil {
			position = *req.Position
		}
		if err := user.SetCompany(company, position); err != nil {
			return nil, err
		}
	}

	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this email already exists")
		}
		return nil, err
	}

	logger.FromContextOr(ctx, s.logger).Info("account updated",
		zap.Int64("user_id", userID),
		zap.Bool("password_changed", req.Password != nil),
	)
	return s.GetAccount(ctx, userID)
}

// ListContacts returns the user's contacts
func (s *AccountService) ListContacts(ctx context.Context, userID int64) ([]ContactResponse, error) {
	contacts, err := s.contacts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToContactResponses(contacts), nil
}

// CreateContact adds a delivery contact
func (s *AccountService) CreateContact(ctx context.Context, userID int64, req CreateContactRequest) (*ContactResponse, error) {
	contact, err := identity.NewContact(userID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.contacts.Save(ctx, contact); err != nil {
		return nil, err
	}
	response := ToContactResponse(contact)
	return &response, nil
}

// UpdateContact changes one of the user's contacts
func (s *AccountService) UpdateContact(ctx context.Context, userID int64, req UpdateContactRequest) (*ContactResponse, error) {
	contact, err := s.contacts.FindByIDForUser(ctx, userID, req.ID.Int64())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "contact not found")
		}
		return nil, err
	}
	if err := contact.Apply(req.details()); err != nil {
		return nil, err
	}
	if err := s.contacts.Save(ctx, contact); err != nil {
		return nil, err
	}
	response := ToContactResponse(contact)
	return &response, nil
}

// DeleteContacts removes the user's contacts given as a comma separated id list
func (s *AccountService) DeleteContacts(ctx context.Context, userID int64, rawIDs string) (int64, error) {
	ids, err := shared.ParseIDList(rawIDs)
	if err != nil {
		return 0, err
	}
	return s.contacts.DeleteByIDs(ctx, userID, ids)
}
