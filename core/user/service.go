package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
)

var (
	// errors
	ErrNotFound        = errors.New("Benutzer nicht gefunden")
	ErrEmailExists     = errors.New("E-Mail-Adresse bereits vergeben")
	ErrUsernameExists  = errors.New("Benutzername bereits vergeben")
	ErrSessionNotFound = errors.New("Sitzung nicht gefunden")
	ErrSessionInvalid  = errors.New("Sitzung abgelaufen oder abgemeldet")
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists or ErrEmailExists if another user (not in excludedIDs)
		// already uses the username or email. Empty values are not checked.
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...int) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.DisplayName, User.Username or User.Email.
		FilterUsers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SetLastLogin(ctx context.Context, id int, at time.Time) error
		SetDevice(ctx context.Context, id int, fcmToken, deviceID string) error

		CreateSession(ctx context.Context, s Session) error
		GetSession(ctx context.Context, id string) (Session, error)
		RevokeSession(ctx context.Context, id string, at time.Time) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, exclIDs ...int) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclIDs...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Username:           nu.Username,
		Email:              nu.Email,
		DisplayName:        nu.DisplayName,
		Roles:              nu.Roles,
		Jagdgebiete:        nu.Jagdgebiete,
		HegegemeinschaftID: nu.HegegemeinschaftID,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(ctx, filter, ordering...)
}

// QueryByRole returns the active users having `role`.
func (svc *Service) QueryByRole(ctx context.Context, role string) ([]User, error) {
	active := true
	return svc.repo.FilterUsers(ctx, QueryFilter{Roles: []string{role}, IsActive: &active})
}

// QueryByJagdgebiet returns the active users assigned to the Jagdgebiet `id`.
func (svc *Service) QueryByJagdgebiet(ctx context.Context, id int) ([]User, error) {
	active := true
	return svc.repo.FilterUsers(ctx, QueryFilter{JagdgebietID: id, IsActive: &active})
}

func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	updated, err := uu.apply(usr)
	if err != nil {
		return User{}, errors.Wrap(err, "applying update")
	}
	return svc.repo.UpdateUser(ctx, updated)
}

// ResetPassword sets a new password for the user identified by username or email.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string, validate *validator.Validate) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return User{}, err
	}
	uu := UpdateUser{Password: pwd, PasswordConfirm: pwd}
	if err = uu.Validate(ctx, usr, validate, svc); err != nil {
		return User{}, err
	}
	return svc.Update(ctx, usr, uu)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := time.Now().UTC()
	if err := svc.repo.SetLastLogin(ctx, usr.ID, now); err != nil {
		return User{}, err
	}
	usr.LastLogin = &now
	return usr, nil
}

// RegisterDevice stores the push token & device of a user, replacing any previous one.
func (svc *Service) RegisterDevice(ctx context.Context, userID int, fcmToken, deviceID string) error {
	return svc.repo.SetDevice(ctx, userID, core.CleanString(fcmToken), core.CleanString(deviceID))
}

// Sessions

// StartSession opens a server side session for `usr`, valid for `ttl`.
func (svc *Service) StartSession(ctx context.Context, usr User, ttl time.Duration) (Session, error) {
	now := time.Now().UTC()
	s := Session{
		ID:        uuid.New().String(),
		UserID:    usr.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := svc.repo.CreateSession(ctx, s); err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	return s, nil
}

// GetActiveSession returns the session `id` if it is neither revoked nor expired.
func (svc *Service) GetActiveSession(ctx context.Context, id string) (Session, error) {
	s, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrSessionNotFound {
			return Session{}, ErrSessionInvalid
		}
		return Session{}, err
	}
	if !s.IsActive(time.Now()) {
		return Session{}, ErrSessionInvalid
	}
	return s, nil
}

func (svc *Service) RevokeSession(ctx context.Context, id string) error {
	return svc.repo.RevokeSession(ctx, id, time.Now().UTC())
}
