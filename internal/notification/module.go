// Package notification delivers the best-effort side effects of lead intake:
// the customer welcome message and the advisor notice. It subscribes to
// events.LeadCreated so intake never waits on an outbound transport.
package notification

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"medcrm_backend/internal/email"
	"medcrm_backend/internal/events"
	"medcrm_backend/internal/messaging"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"
	"medcrm_backend/platform/phone"
)

const (
	kindWelcome = "welcome"
	kindAdvisor = "advisor"
	kindEmail   = "advisor_email"

	statusSent    = "sent"
	statusFailed  = "failed"
	statusSkipped = "skipped"

	defaultDispatchTimeout = 15 * time.Second
)

// Sender delivers a text message from a session to a phone number.
type Sender interface {
	Send(ctx context.Context, session, phone, text string) error
}

// TaskEnqueuer hands a created lead to the background worker.
type TaskEnqueuer interface {
	EnqueueLeadNotifications(ctx context.Context, event events.LeadCreated) error
}

// Deps wires the module. Sender and Mailer may be nil when the transport is
// not configured.
type Deps struct {
	Sender          Sender
	Mailer          email.Sender
	Composer        *messaging.Composer
	DispatchTimeout time.Duration
	Metrics         *metrics.Metrics
	Logger          *logger.Logger
}

type Module struct {
	sender   Sender
	mailer   email.Sender
	composer *messaging.Composer
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      *logger.Logger
	enqueuer TaskEnqueuer
}

func New(d Deps) *Module {
	timeout := d.DispatchTimeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	composer := d.Composer
	if composer == nil {
		composer = messaging.NewComposer("")
	}
	m := d.Metrics
	if m == nil {
		m = metrics.Nop()
	}
	return &Module{
		sender:   d.Sender,
		mailer:   d.Mailer,
		composer: composer,
		timeout:  timeout,
		metrics:  m,
		log:      d.Logger,
	}
}

// SetTaskEnqueuer routes delivery through a background queue. When the
// enqueue fails the module falls back to in-process delivery.
func (m *Module) SetTaskEnqueuer(enqueuer TaskEnqueuer) {
	m.enqueuer = enqueuer
}

// RegisterHandlers subscribes the module to intake events.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), m)
}

// Handle implements events.Handler. Delivery failures are logged, never returned.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadCreated)
	if !ok {
		return nil
	}

	if m.enqueuer != nil {
		err := m.enqueuer.EnqueueLeadNotifications(ctx, e)
		if err == nil {
			return nil
		}
		m.log.Warn("notification enqueue failed, delivering in-process", "customerId", e.CustomerID, "error", err)
	}

	if err := m.Deliver(ctx, e); err != nil {
		m.log.Warn("lead notifications incomplete", "customerId", e.CustomerID, "error", err)
	}
	return nil
}

// Deliver runs the welcome message and advisor notice in parallel. The group
// carries no context, so one failing never cancels the other; the first
// failure is returned after both have finished.
func (m *Module) Deliver(ctx context.Context, e events.LeadCreated) error {
	var g errgroup.Group
	g.Go(func() error { return m.SendWelcome(ctx, e) })
	g.Go(func() error { return m.NotifyAdvisor(ctx, e) })
	return g.Wait()
}

// SendWelcome composes and sends the welcome message to the customer. A
// suppressed or impossible send returns nil; a transport failure is logged
// and returned for the caller to record.
func (m *Module) SendWelcome(ctx context.Context, e events.LeadCreated) error {
	if e.NoAutoWelcome {
		m.skip(kindWelcome, "customer opted out of automatic welcome", e)
		return nil
	}
	recipient := phone.Normalize(e.Phone)
	if recipient == "" {
		m.skip(kindWelcome, "customer has no usable phone", e)
		return nil
	}
	if m.sender == nil {
		m.skip(kindWelcome, "no message transport configured", e)
		return nil
	}

	msg, ok := m.composer.Welcome(messaging.WelcomeInput{
		CustomerName:  e.Name,
		Category:      e.Category,
		CampaignName:  e.CampaignName,
		Advisor:       messaging.Advisor{Name: e.Advisor, Session: e.AdvisorSession},
		LabelID:       e.LabelID,
		LabelMessage:  e.LabelMessage,
		LabelLanguage: e.LabelLanguage,
	})
	if !ok {
		m.skip(kindWelcome, "no template produced a message", e)
		return nil
	}

	return m.send(ctx, kindWelcome, recipient, msg)
}

// NotifyAdvisor tells the assigned advisor about the new lead over WhatsApp
// and, when a mailer and address are available, by email.
func (m *Module) NotifyAdvisor(ctx context.Context, e events.LeadCreated) error {
	if e.Advisor == "" {
		m.skip(kindAdvisor, "no advisor assigned", e)
		return nil
	}

	var g errgroup.Group
	errs := make([]error, 2)
	g.Go(func() error {
		errs[0] = m.notifyAdvisorWhatsApp(ctx, e)
		return errs[0]
	})
	g.Go(func() error {
		errs[1] = m.notifyAdvisorEmail(ctx, e)
		return errs[1]
	})
	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}
	return nil
}

func (m *Module) notifyAdvisorWhatsApp(ctx context.Context, e events.LeadCreated) error {
	recipient := phone.Normalize(e.AdvisorPhone)
	if recipient == "" {
		m.skip(kindAdvisor, "advisor has no phone", e)
		return nil
	}
	if m.sender == nil {
		m.skip(kindAdvisor, "no message transport configured", e)
		return nil
	}
	msg := m.composer.AdvisorNotice(
		messaging.Advisor{Name: e.Advisor, Session: e.AdvisorSession},
		e.Name, phone.E164(phone.Normalize(e.Phone)), e.Category, e.Source,
	)
	return m.send(ctx, kindAdvisor, recipient, msg)
}

func (m *Module) notifyAdvisorEmail(ctx context.Context, e events.LeadCreated) error {
	if m.mailer == nil || e.AdvisorEmail == "" {
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.mailer.SendAdvisorLeadEmail(sendCtx, e.AdvisorEmail, email.AdvisorLead{
		AdvisorName:  e.Advisor,
		CustomerName: e.Name,
		Phone:        phone.E164(phone.Normalize(e.Phone)),
		Email:        e.Email,
		Category:     e.Category,
		Source:       e.Source,
	})
	if err != nil {
		m.metrics.Notifications.WithLabelValues(kindEmail, statusFailed).Inc()
		m.log.NotificationFailure(kindEmail, e.AdvisorEmail, "", "advisor_lead.html", err)
		return err
	}
	m.metrics.Notifications.WithLabelValues(kindEmail, statusSent).Inc()
	return nil
}

func (m *Module) send(ctx context.Context, kind, recipient string, msg messaging.Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.sender.Send(sendCtx, msg.Session, recipient, msg.Text); err != nil {
		m.metrics.Notifications.WithLabelValues(kind, statusFailed).Inc()
		m.log.NotificationFailure(kind, recipient, msg.Session, msg.Template, err)
		return err
	}

	m.metrics.Notifications.WithLabelValues(kind, statusSent).Inc()
	m.log.Info("notification sent", "kind", kind, "phone", recipient, "session", msg.Session, "template", msg.Template)
	return nil
}

func (m *Module) skip(kind, reason string, e events.LeadCreated) {
	m.metrics.Notifications.WithLabelValues(kind, statusSkipped).Inc()
	m.log.Info("notification skipped", "kind", kind, "reason", reason, "customerId", e.CustomerID)
}
