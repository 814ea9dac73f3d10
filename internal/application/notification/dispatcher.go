// Package notification turns account and order events into emails.
package notification

import (
	"context"
	"fmt"

	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/infrastructure/mail"
	"github.com/shop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Dispatcher sends an email for each subscribed event
type Dispatcher struct {
	sender  mail.Sender
	users   identity.UserRepository
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
}

// NewDispatcher creates a new notification Dispatcher
func NewDispatcher(sender mail.Sender, users identity.UserRepository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

// SetMetrics sets the business metrics recorder
func (d *Dispatcher) SetMetrics(metrics *telemetry.BusinessMetrics) {
	d.metrics = metrics
}

// EventTypes returns the event types this handler is interested in
func (d *Dispatcher) EventTypes() []string {
	return []string{
		identity.EventTypeUserRegistered,
		identity.EventTypePasswordResetRequested,
		ordering.EventTypeOrderCreated,
	}
}

// Handle builds and sends the message for one event
func (d *Dispatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg, err := d.compose(ctx, event)
	if err != nil {
		d.metrics.RecordNotification(ctx, event.EventType(), err)
		return err
	}
	if msg == nil {
		return nil
	}

	err = d.sender.Send(ctx, *msg)
	d.metrics.RecordNotification(ctx, event.EventType(), err)
	if err != nil {
		return fmt.Errorf("notify %s: %w", event.EventType(), err)
	}

	logger.FromContextOr(ctx, d.logger).Debug("notification sent",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
	)
	return nil
}

func (d *Dispatcher) compose(ctx context.Context, event shared.DomainEvent) (*mail.Message, error) {
	switch e := event.(type) {
	case *identity.UserRegisteredEvent:
		return &mail.Message{
			To:      e.Email,
			Subject: "Confirm your email",
			Body: fmt.Sprintf("Welcome!\n\nTo activate your account, confirm your email with this token:\n\n%s\n",
				e.TokenKey),
		}, nil

	case *identity.PasswordResetRequestedEvent:
		return &mail.Message{
			To:      e.Email,
			Subject: "Password reset",
			Body: fmt.Sprintf("A password reset was requested for your account.\n\nReset token:\n\n%s\n\nIf it was not you, ignore this message.\n",
				e.TokenKey),
		}, nil

	case *ordering.OrderCreatedEvent:
		user, err := d.users.FindByID(ctx, e.UserID)
		if err != nil {
			return nil, fmt.Errorf("load user %d: %w", e.UserID, err)
		}
		return &mail.Message{
			To:      user.Email,
			Subject: fmt.Sprintf("Order #%d placed", e.OrderID),
			Body: fmt.Sprintf("Hello, %s!\n\nYour order #%d has been placed and is waiting for confirmation.\n",
				user.FullName(), e.OrderID),
		}, nil
	}

	logger.FromContextOr(ctx, d.logger).Warn("no notification for event",
		zap.String("event_type", event.EventType()),
	)
	return nil, nil
}

var _ shared.EventHandler = (*Dispatcher)(nil)
