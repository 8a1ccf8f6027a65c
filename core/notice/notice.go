// Package notice broadcasts emails to every user having a notification address.
package notice

import (
	"context"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/user"
)

const templateName = "notice"

var ErrMailNotConfigured = errors.New("email service is not configured")

type (
	Notice struct {
		Subject string `json:"subject" validate:"notblank"`
		Message string `json:"message" validate:"notblank"`
	}

	// Recipients lists the users to notify.
	Recipients interface {
		QueryNotifiable(ctx context.Context) ([]user.User, error)
	}

	Service struct {
		users    Recipients
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

func (n *Notice) Validate(validate *validator.Validate) error {
	n.Subject = core.CleanString(n.Subject)
	n.Message = strings.TrimSpace(n.Message)
	return validate.Struct(n)
}

// NewService accepts a nil mailSvc; Broadcast then fails with ErrMailNotConfigured.
func NewService(users Recipients, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{users: users, mailSvc: mailSvc, validate: validate}
}

// Broadcast sends n to every notifiable user and returns one result per recipient.
// No recipients is not an error.
func (svc *Service) Broadcast(ctx context.Context, n Notice) ([]core.DeliveryResult, error) {
	if err := n.Validate(svc.validate); err != nil {
		return nil, err
	}

	users, err := svc.users.QueryNotifiable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifiable users")
	}
	if len(users) == 0 {
		return []core.DeliveryResult{}, nil
	}
	if svc.mailSvc == nil {
		return nil, ErrMailNotConfigured
	}

	paragraphs := splitParagraphs(n.Message)
	messages := make([]*core.EmailMessage, 0, len(users))
	for _, usr := range users {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Username, Address: usr.Email1}},
			Subject:      n.Subject,
			TemplateName: templateName,
			TemplateData: map[string]interface{}{
				"Subject":    n.Subject,
				"Username":   usr.Username,
				"Message":    n.Message,
				"Paragraphs": paragraphs,
			},
		})
	}
	return svc.mailSvc.SendMessages(ctx, messages...), nil
}

func splitParagraphs(msg string) []string {
	lines := strings.Split(strings.ReplaceAll(msg, "\r\n", "\n"), "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs
}
