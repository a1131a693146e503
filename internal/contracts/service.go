package contracts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-fin/meridian/internal/shared"
)

// ScheduleGenerator is implemented by the amortization service. It lets the
// contract lifecycle drive schedule creation without a package cycle.
type ScheduleGenerator interface {
	GenerateForContract(ctx context.Context, c Contract, actor string) error
	HasSettledEntries(ctx context.Context, contractID int64) (bool, error)
}

type auditor interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service implements contract upload, parsing, and lifecycle operations.
type Service struct {
	repo     Repository
	parser   Parser
	store    AttachmentStore
	schedule ScheduleGenerator
	audit    auditor
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the contract service. The schedule generator is attached
// later through SetScheduleGenerator because the amortization service is
// constructed after this one.
func NewService(repo Repository, parser Parser, store AttachmentStore, audit auditor, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		parser: parser,
		store:  store,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// SetScheduleGenerator attaches the amortization side of the wiring.
func (s *Service) SetScheduleGenerator(g ScheduleGenerator) { s.schedule = g }

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Parse runs the external parser over an uploaded document without
// persisting anything. When the parser is unreachable a draft result built
// from the file name is returned for manual completion.
func (s *Service) Parse(ctx context.Context, filename string, data []byte) (ParseResult, error) {
	result, err := s.parser.Parse(ctx, filename, data)
	if err != nil {
		s.logger.Warn("contract parse failed, falling back to draft",
			slog.String("filename", filename), slog.String("error", err.Error()))
		return draftFromFilename(filename), nil
	}
	return result, nil
}

// Upload stores the document, parses it, persists the contract, and
// generates its amortization schedule when the parsed fields are complete.
// A draft contract (missing dates or amount) is persisted without a schedule
// so the user can complete it through Update.
func (s *Service) Upload(ctx context.Context, filename string, data []byte, actor string) (Contract, error) {
	stored, path, err := s.store.Save(filename, data)
	if err != nil {
		return Contract{}, err
	}

	parsed, err := s.Parse(ctx, filename, data)
	if err != nil {
		return Contract{}, err
	}

	c := Contract{
		VendorName:       parsed.VendorName,
		TotalAmount:      parsed.TotalAmount,
		TaxRate:          parsed.TaxRate,
		AttachmentName:   stored,
		FilePath:         path,
		OriginalFileName: filename,
		Status:           StatusActive,
		CustomFields:     parsed.CustomFields,
	}
	if parsed.StartDate != "" {
		if c.StartDate, err = time.Parse(dateLayout, parsed.StartDate); err != nil {
			return Contract{}, fmt.Errorf("contracts: parsed start date: %w", err)
		}
	}
	if parsed.EndDate != "" {
		if c.EndDate, err = time.Parse(dateLayout, parsed.EndDate); err != nil {
			return Contract{}, fmt.Errorf("contracts: parsed end date: %w", err)
		}
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return Contract{}, err
	}

	if created.ValidDates() && created.TotalAmount.IsPositive() {
		if err := s.schedule.GenerateForContract(ctx, created, actor); err != nil {
			return Contract{}, err
		}
	} else {
		s.logger.Info("contract stored as draft, schedule deferred",
			slog.Int64("contract_id", created.ID))
	}

	s.recordAudit(ctx, actor, "contract.upload", created.ID, map[string]any{
		"vendor": created.VendorName,
		"file":   created.OriginalFileName,
	})
	return created, nil
}

// Get returns a single contract.
func (s *Service) Get(ctx context.Context, id int64) (Contract, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of contracts ordered newest first.
func (s *Service) List(ctx context.Context, page, size int) ([]Contract, shared.Pagination, error) {
	p := shared.NewPagination(page, size, 0)
	items, total, err := s.repo.List(ctx, p.Offset(), p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, size, total), nil
}

// Update replaces the parsed fields of a contract and regenerates its
// amortization schedule. It is rejected once any entry has been settled,
// because regeneration would orphan recorded payments.
func (s *Service) Update(ctx context.Context, id int64, in UpdateRequest, actor string) (Contract, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Contract{}, err
	}

	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return Contract{}, fmt.Errorf("contracts: start date: %w", err)
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return Contract{}, fmt.Errorf("contracts: end date: %w", err)
	}
	if end.Before(start) {
		return Contract{}, ErrInvalidDates
	}
	if !in.TotalAmount.IsPositive() {
		return Contract{}, ErrInvalidAmount
	}

	settled, err := s.schedule.HasSettledEntries(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	if settled {
		return Contract{}, ErrScheduleSettled
	}

	existing.VendorName = in.VendorName
	existing.TotalAmount = in.TotalAmount
	existing.StartDate = start
	existing.EndDate = end
	existing.TaxRate = in.TaxRate
	existing.CustomFields = in.CustomFields

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Contract{}, err
	}
	if err := s.schedule.GenerateForContract(ctx, updated, actor); err != nil {
		return Contract{}, err
	}

	s.recordAudit(ctx, actor, "contract.update", updated.ID, map[string]any{
		"vendor": updated.VendorName,
		"total":  updated.TotalAmount.String(),
	})
	return updated, nil
}

// UpdateStatus transitions the contract lifecycle state.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, actor string) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "contract.status", id, map[string]any{"status": string(status)})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		Operator: actor,
		Action:   action,
		Entity:   "contract",
		EntityID: id,
		Meta:     meta,
		At:       s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.String("error", err.Error()))
	}
}
