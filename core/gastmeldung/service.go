package gastmeldung

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/notification"
	"github.com/foe05/HGMH-App/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("Gastmeldung nicht gefunden")

	MsgSubmitted = "Gastmeldung erfolgreich übermittelt"

	DefaultLimit = 50
)

type (
	Repository interface {
		CreateGastmeldung(ctx context.Context, g Gastmeldung) (Gastmeldung, error)
		GetGastmeldung(ctx context.Context, id int) (Gastmeldung, error)
		// QueryGastmeldungen returns the latest `limit` Gastmeldungen, newest first, optionally with `status` only.
		QueryGastmeldungen(ctx context.Context, status string, limit int) ([]Gastmeldung, error)
		UpdateStatus(ctx context.Context, id int, status string, at time.Time) error
	}

	Service struct {
		repo          Repository
		users         *user.Service
		notifications *notification.Service
		mailSvc       core.EmailService
		validate      *validator.Validate
		logger        core.Logger
	}
)

func NewService(
	repo Repository,
	usrSvc *user.Service,
	notifSvc *notification.Service,
	mailSvc core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:          repo,
		users:         usrSvc,
		notifications: notifSvc,
		mailSvc:       mailSvc,
		validate:      validate,
		logger:        logger,
	}
}

// Submit stores a guest submission and notifies all Obmänner.
func (svc *Service) Submit(ctx context.Context, ng NewGastmeldung) (SubmitResponse, error) {
	ng.Clean()
	if err := svc.validate.Struct(&ng); err != nil {
		return SubmitResponse{}, err
	}
	datum, _ := core.ParseDate(ng.Datum) // validated above

	now := time.Now().UTC()
	g, err := svc.repo.CreateGastmeldung(ctx, Gastmeldung{
		MelderName:    ng.MelderName,
		MelderEmail:   ng.MelderEmail,
		MelderTelefon: ng.MelderTelefon,
		WUSNummer:     ng.WUSNummer,
		Wildart:       ng.Wildart,
		Fundort:       ng.Fundort,
		Datum:         datum,
		Bemerkungen:   ng.Bemerkungen,
		OCRData:       ng.OCRData,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return SubmitResponse{}, errors.Wrap(err, "creating Gastmeldung")
	}

	if err = svc.notifyObmaenner(ctx, g); err != nil {
		// the submission is stored; a failed notification must not fail it
		svc.logger.Error(fmt.Sprintf("notifying Obmänner of Gastmeldung %d: %v", g.ID, err), err)
	}

	return SubmitResponse{Success: true, Message: MsgSubmitted, GastmeldungID: g.ID}, nil
}

// notifyObmaenner sends an email to every Obmann, and a push notification to those who registered a device.
// A failure for one Obmann does not affect the others.
func (svc *Service) notifyObmaenner(ctx context.Context, g Gastmeldung) error {
	obmaenner, err := svc.users.QueryByRole(ctx, user.RoleObmann)
	if err != nil {
		return errors.Wrap(err, "querying Obmänner")
	}

	subject := fmt.Sprintf("Neue Gastmeldung: %s (WUS: %s)", g.Wildart, g.WUSNummer)
	data := newMailData(g)
	var (
		messages []*core.EmailMessage
		devices  []user.User
	)
	for _, o := range obmaenner {
		if o.Email != "" {
			// one mail per Obmann, recipients must not see each other
			messages = append(messages, &core.EmailMessage{
				To:           []mail.Address{o.MailAddress()},
				Subject:      subject,
				TemplateName: "gastmeldung",
				TemplateData: data,
			})
		}
		if o.FCMToken != "" {
			devices = append(devices, o)
		}
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}

	results := svc.notifications.SendToUsers(ctx, devices, notification.Message{
		Title:    "Neue Gastmeldung",
		Message:  fmt.Sprintf("%s von %s", g.Wildart, g.MelderName),
		Type:     notification.TypeGastmeldung,
		DeepLink: "gastmeldung:" + strconv.Itoa(g.ID),
	})
	for _, res := range results {
		if !res.Success {
			svc.logger.Warn(fmt.Sprintf("Gastmeldung %d: push to %s failed: %s", g.ID, res.Username, res.Error))
		}
	}
	return nil
}

func (svc *Service) Get(ctx context.Context, id int) (Gastmeldung, error) {
	return svc.repo.GetGastmeldung(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Gastmeldung, error) {
	filter.Status = core.CleanString(filter.Status, true /* lower */)
	if filter.Limit <= 0 || filter.Limit > DefaultLimit {
		filter.Limit = DefaultLimit
	}
	return svc.repo.QueryGastmeldungen(ctx, filter.Status, filter.Limit)
}

func (svc *Service) SetStatus(ctx context.Context, id int, us UpdateStatus) (Gastmeldung, error) {
	us.Status = core.CleanString(us.Status, true /* lower */)
	if err := svc.validate.Struct(&us); err != nil {
		return Gastmeldung{}, err
	}
	if err := svc.repo.UpdateStatus(ctx, id, us.Status, time.Now().UTC()); err != nil {
		return Gastmeldung{}, err
	}
	return svc.repo.GetGastmeldung(ctx, id)
}
