package notification

import (
	"context"
	"fmt"
	"time"

	"dcip/internal/models"

	"go.uber.org/zap"
)

const appName = "DCIP"

// Service composes and sends the application's emails.
type Service interface {
	SendOTP(ctx context.Context, email string, purpose models.OTPPurpose, code string, ttl time.Duration) error
	SendWelcome(ctx context.Context, employee *models.Employee) error
	SendAssignment(ctx context.Context, email, name string, policyID uint, deadline time.Time) error
	SendReportReleased(ctx context.Context, email, name string, policyID uint, reference string) error
}

type service struct {
	mailer Mailer
	log    *zap.Logger
}

// NewService creates a new notification service.
func NewService(mailer Mailer, log *zap.Logger) Service {
	return &service{mailer: mailer, log: log.Named("notification")}
}

func (s *service) SendOTP(ctx context.Context, email string, purpose models.OTPPurpose, code string, ttl time.Duration) error {
	subject := appName + " - Verify your email"
	intro := "Use the code below to verify your email address."
	if purpose == models.OTPPurposeResetPassword {
		subject = appName + " - Password reset code"
		intro = "Use the code below to reset your password. If you did not ask for a reset you can ignore this email."
	}
	body := fmt.Sprintf("%s\n\n    %s\n\nThe code expires in %d minutes.\n\nThanks,\n%s",
		intro, code, int(ttl.Minutes()), appName)
	return s.send(ctx, Message{To: email, Subject: subject, Body: body})
}

func (s *service) SendWelcome(ctx context.Context, employee *models.Employee) error {
	body := fmt.Sprintf("Hello %s,\n\nAn account with the role %s has been created for you. "+
		"Sign in with this email address and the password your administrator gave you, then change it.\n\nThanks,\n%s",
		employee.DisplayName(), employee.Role.Name, appName)
	return s.send(ctx, Message{To: employee.Email, Subject: appName + " - Your staff account", Body: body})
}

func (s *service) SendAssignment(ctx context.Context, email, name string, policyID uint, deadline time.Time) error {
	body := fmt.Sprintf("Hello %s,\n\nYou have been assigned to survey policy request #%d. "+
		"Please submit your report before %s.\n\nThanks,\n%s",
		name, policyID, deadline.UTC().Format("02 Jan 2006 15:04 MST"), appName)
	return s.send(ctx, Message{To: email, Subject: appName + " - New survey assignment", Body: body})
}

func (s *service) SendReportReleased(ctx context.Context, email, name string, policyID uint, reference string) error {
	body := fmt.Sprintf("Hello %s,\n\nThe survey report for your policy request #%d is ready. "+
		"Reference: %s\n\nThanks,\n%s", name, policyID, reference, appName)
	return s.send(ctx, Message{To: email, Subject: appName + " - Your survey report is ready", Body: body})
}

func (s *service) send(ctx context.Context, msg Message) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error("failed to send email", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		return err
	}
	return nil
}
