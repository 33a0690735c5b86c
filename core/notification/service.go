package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("Benachrichtigung nicht gefunden")
	ErrNoToken    = errors.New("Kein FCM Token für Benutzer gefunden")
	ErrPushFailed = errors.New("Benachrichtigung konnte nicht gesendet werden")

	DefaultHistoryLimit = 50
	maxHistoryLimit     = 200
	maxConcurrentSends  = 8
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// QueryNotifications returns the latest `limit` notifications of a user, newest first.
		QueryNotifications(ctx context.Context, userID, limit int) ([]Notification, error)
		// MarkAsRead returns ErrNotFound unless notification `id` belongs to the user.
		MarkAsRead(ctx context.Context, userID, id int) error
	}

	Service struct {
		repo     Repository
		users    *user.Service
		push     core.PushService
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	usrSvc *user.Service,
	push core.PushService,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		users:    usrSvc,
		push:     push,
		validate: validate,
		logger:   logger,
	}
}

// RegisterToken stores the device's push token for `usr`.
func (svc *Service) RegisterToken(ctx context.Context, usr user.User, rt RegisterToken) error {
	rt.Clean()
	if err := svc.validate.Struct(&rt); err != nil {
		return err
	}
	return svc.users.RegisterDevice(ctx, usr.ID, rt.FCMToken, rt.DeviceID)
}

func (svc *Service) History(ctx context.Context, usr user.User, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	} else if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return svc.repo.QueryNotifications(ctx, usr.ID, limit)
}

func (svc *Service) MarkAsRead(ctx context.Context, usr user.User, id int) error {
	return svc.repo.MarkAsRead(ctx, usr.ID, id)
}

// Send stores `msg` in the history of `usr` and pushes it to the user's device.
func (svc *Service) Send(ctx context.Context, usr user.User, msg Message) (Notification, error) {
	if usr.FCMToken == "" {
		return Notification{}, core.NewValidationError(ErrNoToken)
	}
	if msg.Type == "" {
		msg.Type = TypeInfo
	}

	n, err := svc.repo.CreateNotification(ctx, Notification{
		UserID:     usr.ID,
		Title:      msg.Title,
		Message:    msg.Message,
		Type:       msg.Type,
		DeepLink:   msg.DeepLink,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		return Notification{}, errors.Wrap(err, "storing notification")
	}

	err = svc.push.Send(ctx, core.PushMessage{
		Token:    usr.FCMToken,
		Title:    msg.Title,
		Body:     msg.Message,
		Type:     msg.Type,
		DeepLink: msg.DeepLink,
	})
	if err != nil {
		return n, errors.Wrapf(ErrPushFailed, "pushing to user %d: %v", usr.ID, err)
	}
	return n, nil
}

// SendToUsers sends `msg` to every user concurrently and reports the outcome per user.
func (svc *Service) SendToUsers(ctx context.Context, users []user.User, msg Message) []SendResult {
	results := make([]SendResult, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)
	for i, usr := range users {
		i, usr := i, usr
		g.Go(func() error {
			res := SendResult{UserID: usr.ID, Username: usr.Username, Success: true}
			if usr.FCMToken == "" {
				res.Success = false
				res.Error = ErrNoToken.Error()
			} else if _, err := svc.Send(gctx, usr, msg); err != nil {
				res.Success = false
				res.Error = errors.Cause(err).Error()
				svc.logger.Warn(fmt.Sprintf("sending notification to %s: %v", usr.Username, err), err)
			}
			results[i] = res
			return nil // keep sending to the others
		})
	}
	_ = g.Wait()
	return results
}

func (svc *Service) SendToRole(ctx context.Context, role string, msg Message) ([]SendResult, error) {
	users, err := svc.users.QueryByRole(ctx, role)
	if err != nil {
		return nil, errors.Wrap(err, "querying users by role")
	}
	return svc.SendToUsers(ctx, users, msg), nil
}

func (svc *Service) SendToJagdgebiet(ctx context.Context, jagdgebietID int, msg Message) ([]SendResult, error) {
	users, err := svc.users.QueryByJagdgebiet(ctx, jagdgebietID)
	if err != nil {
		return nil, errors.Wrap(err, "querying users by Jagdgebiet")
	}
	return svc.SendToUsers(ctx, users, msg), nil
}

// Dispatch validates `req` and sends it to its target.
func (svc *Service) Dispatch(ctx context.Context, req SendRequest) ([]SendResult, error) {
	if err := svc.validate.Struct(&req); err != nil {
		return nil, err
	}

	switch req.Target {
	case TargetUser:
		if req.UserID <= 0 {
			return nil, core.NewFieldValidationError("user_id", "Benutzer ist erforderlich")
		}
		usr, err := svc.users.GetByID(ctx, req.UserID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return nil, core.NewFieldValidationError("user_id", user.ErrNotFound.Error())
			}
			return nil, errors.Wrap(err, "getting user")
		}
		if usr.FCMToken == "" {
			return nil, core.NewValidationError(ErrNoToken)
		}
		return svc.SendToUsers(ctx, []user.User{usr}, req.Message), nil
	case TargetRole:
		if user.RolePriority(req.Role) == 0 {
			return nil, core.NewFieldValidationError("role", "ungültige Rolle")
		}
		return svc.SendToRole(ctx, req.Role, req.Message)
	default: // TargetJagdgebiet
		if req.JagdgebietID <= 0 {
			return nil, core.NewFieldValidationError("jagdgebiet_id", "Jagdgebiet ist erforderlich")
		}
		return svc.SendToJagdgebiet(ctx, req.JagdgebietID, req.Message)
	}
}
