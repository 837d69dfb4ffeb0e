// Package intake turns an inbound lead into a customer record: dedup,
// campaign and label resolution, advisor assignment, persistence, and the
// LeadCreated event that drives the welcome and advisor messages.
package intake

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	asvc "medcrm_backend/internal/assignment/service"
	catrepo "medcrm_backend/internal/categories/repository"
	catsvc "medcrm_backend/internal/categories/service"
	"medcrm_backend/internal/events"
	"medcrm_backend/internal/leads/domain"
	"medcrm_backend/internal/leads/repository"
	"medcrm_backend/internal/leads/transport"
	"medcrm_backend/platform/apperr"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/metrics"
	"medcrm_backend/platform/validator"
)

// Outcome is the non-error result of an intake.
type Outcome string

const (
	OutcomeCreated          Outcome = "created"
	OutcomeDuplicateSkipped Outcome = "duplicate_skipped"
	OutcomeDuplicateReview  Outcome = "duplicate_review"
)

// Result carries the created customer, or the existing one a duplicate hit.
type Result struct {
	Outcome  Outcome
	Customer domain.Customer
	Existing *domain.Customer
}

// IsDuplicate reports whether intake stopped at the duplicate check.
func (r Result) IsDuplicate() bool {
	return r.Outcome == OutcomeDuplicateSkipped || r.Outcome == OutcomeDuplicateReview
}

// CampaignResolver maps an external lead form id to category and label.
type CampaignResolver interface {
	ResolveLeadForm(ctx context.Context, formID string) (catsvc.Resolution, error)
}

// AdvisorAssigner picks the advisor for a new customer.
type AdvisorAssigner interface {
	Assign(ctx context.Context, label *catrepo.Label) asvc.Assignment
	Explicit(ctx context.Context, name string) asvc.Assignment
}

// Service is the lead intake orchestrator.
type Service struct {
	customers repository.Repository
	campaigns CampaignResolver
	advisors  AdvisorAssigner
	lock      Locker
	bus       events.Bus
	val       *validator.Validator
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// New creates the intake service. A nil lock means an in-process mutex.
func New(customers repository.Repository, campaigns CampaignResolver, advisors AdvisorAssigner, lock Locker,
	bus events.Bus, val *validator.Validator, m *metrics.Metrics, log *logger.Logger) *Service {
	if lock == nil {
		lock = NewMutexLocker()
	}
	return &Service{
		customers: customers,
		campaigns: campaigns,
		advisors:  advisors,
		lock:      lock,
		bus:       bus,
		val:       val,
		metrics:   m,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type leadShape struct {
	Name  string `validate:"max=200"`
	Email string `validate:"omitempty,email,max=254"`
	Phone string `validate:"max=40"`
}

func (s *Service) validate(lead domain.Lead) error {
	if lead.Email == "" && lead.PhoneDigits == "" {
		return apperr.Validation("lead needs an email or a phone number")
	}
	if err := s.val.Struct(leadShape{Name: lead.Name, Email: lead.Email, Phone: lead.Phone}); err != nil {
		return apperr.Validation("invalid lead").WithDetails(validator.FieldErrors(err))
	}
	return nil
}

// Intake runs the full pipeline for one payload. Only validation and
// persistence failures are returned as errors; duplicates are an Outcome.
func (s *Service) Intake(ctx context.Context, payload transport.LeadPayload, fallback domain.Source) (Result, error) {
	lead := payload.Normalize(fallback)
	ctx = context.WithValue(ctx, logger.LeadSourceKey, string(lead.Source))
	log := s.log.WithContext(ctx)

	if err := s.validate(lead); err != nil {
		s.record("invalid", lead.Source, "")
		return Result{}, err
	}

	result, event, err := s.admitLocked(ctx, lead)
	if err != nil {
		s.record("failed", lead.Source, "")
		return Result{}, err
	}

	if result.IsDuplicate() {
		existing := result.Existing
		if lead.Source.IsAutomated() {
			log.Info("duplicate lead skipped", "existingId", existing.ID, "email", lead.Email, "phone", lead.PhoneDigits)
		}
		s.record(string(result.Outcome), lead.Source, existing.ID)
		s.bus.Publish(ctx, events.DuplicateLeadDetected{
			BaseEvent:  events.NewBaseEvent(),
			ExistingID: existing.ID,
			Source:     string(lead.Source),
			Automated:  lead.Source.IsAutomated(),
			Email:      lead.Email,
			Phone:      lead.PhoneDigits,
		})
		return result, nil
	}

	s.record(string(result.Outcome), lead.Source, result.Customer.ID)
	s.bus.Publish(ctx, event)
	return result, nil
}

// admitLocked runs admit under the intake lock. The lock is released even
// when admit panics.
func (s *Service) admitLocked(ctx context.Context, lead domain.Lead) (Result, events.LeadCreated, error) {
	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return Result{}, events.LeadCreated{}, apperr.Internal("intake is busy, retry later", err)
	}
	defer release()
	return s.admit(ctx, lead)
}

// admit is the locked section: dedup, resolution, assignment, persistence.
func (s *Service) admit(ctx context.Context, lead domain.Lead) (Result, events.LeadCreated, error) {
	log := s.log.WithContext(ctx)

	candidates, err := s.customers.ListDedupCandidates(ctx, lead.Email, lead.PhoneDigits)
	if err != nil {
		log.DatabaseError("list dedup candidates", err)
		return Result{}, events.LeadCreated{}, apperr.Internal("customer store unavailable", err)
	}
	if existing := domain.FindDuplicate(lead, candidates); existing != nil {
		outcome := OutcomeDuplicateReview
		if lead.Source.IsAutomated() {
			outcome = OutcomeDuplicateSkipped
		}
		return Result{Outcome: outcome, Existing: existing}, events.LeadCreated{}, nil
	}

	var resolution catsvc.Resolution
	if lead.LeadFormID != "" {
		resolution, err = s.campaigns.ResolveLeadForm(ctx, lead.LeadFormID)
		if err != nil {
			log.Warn("campaign resolution failed, continuing without category", "leadFormId", lead.LeadFormID, "error", err)
			resolution = catsvc.Resolution{}
		}
	}

	var assignment asvc.Assignment
	if lead.Advisor != "" {
		assignment = s.advisors.Explicit(ctx, lead.Advisor)
	} else {
		assignment = s.advisors.Assign(ctx, resolution.Label)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Result{}, events.LeadCreated{}, apperr.Internal("could not allocate customer id", err)
	}
	customer := domain.Customer{
		ID:            id.String(),
		Name:          lead.Name,
		Email:         lead.Email,
		Phone:         lead.Phone,
		PhoneDigits:   lead.PhoneDigits,
		Advisor:       assignment.Advisor,
		Category:      lead.Category,
		Status:        lead.Status,
		Source:        lead.Source,
		LeadFormID:    lead.LeadFormID,
		CampaignName:  lead.CampaignName,
		NoAutoWelcome: lead.NoAutoWelcome,
		CreatedAt:     s.now(),
	}
	if c := resolution.Category; c != nil {
		customer.Category = c.Name
		customer.CategoryID = c.ID
	}
	if l := resolution.Label; l != nil {
		customer.LabelID = l.ID
	}

	created, err := s.customers.CreateCustomer(ctx, customer)
	if err != nil {
		log.DatabaseError("create customer", err)
		return Result{}, events.LeadCreated{}, apperr.Internal("customer could not be saved", err)
	}

	event := events.LeadCreated{
		BaseEvent:      events.NewBaseEvent(),
		CustomerID:     created.ID,
		Name:           created.Name,
		Email:          created.Email,
		Phone:          created.Phone,
		Source:         string(created.Source),
		Category:       created.Category,
		CampaignName:   campaignDisplayName(lead, resolution),
		NoAutoWelcome:  created.NoAutoWelcome,
		Advisor:        assignment.Advisor,
		AdvisorPhone:   assignment.Contact.Phone,
		AdvisorEmail:   assignment.Contact.Email,
		AdvisorSession: assignment.Contact.Session,
	}
	if l := resolution.Label; l != nil {
		event.LabelID = l.ID
		event.LabelMessage = l.Message
		event.LabelLanguage = l.Language
	}
	return Result{Outcome: OutcomeCreated, Customer: created}, event, nil
}

// campaignDisplayName prefers the payload's campaign name and falls back to
// the matched category name for language detection.
func campaignDisplayName(lead domain.Lead, r catsvc.Resolution) string {
	if name := strings.TrimSpace(lead.CampaignName); name != "" {
		return name
	}
	if r.Category != nil {
		return r.Category.Name
	}
	return ""
}

func (s *Service) record(outcome string, source domain.Source, customerID string) {
	s.metrics.IntakeOutcomes.WithLabelValues(outcome, string(source)).Inc()
	s.log.IntakeOutcome(outcome, string(source), customerID)
}

// ListCustomers returns a page of customers, newest first.
func (s *Service) ListCustomers(ctx context.Context, req transport.ListCustomersRequest) (transport.CustomerListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 {
		size = 20
	}

	items, total, err := s.customers.ListCustomers(ctx, (page-1)*size, size)
	if err != nil {
		return transport.CustomerListResponse{}, apperr.Internal("customer store unavailable", err)
	}
	return transport.CustomerListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}, nil
}
