package amortization

import (
	"context"
	"log/slog"
	"time"

	"github.com/meridian-fin/meridian/internal/contracts"
	"github.com/meridian-fin/meridian/internal/shared"
)

type contractGetter interface {
	Get(ctx context.Context, id int64) (contracts.Contract, error)
}

type auditor interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service implements schedule generation and manual schedule edits.
type Service struct {
	repo      Repository
	contracts contractGetter
	audit     auditor
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the amortization service.
func NewService(repo Repository, contracts contractGetter, audit auditor, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		contracts: contracts,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Calculate recomputes the straight-line schedule from the contract's
// current fields without persisting. Persisted entry IDs are carried over by
// period so the caller can correlate the preview with stored rows.
func (s *Service) Calculate(ctx context.Context, contractID int64) ([]Entry, error) {
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	computed, err := Generate(c.TotalAmount, c.StartDate, c.EndDate, s.now())
	if err != nil {
		return nil, err
	}
	for i := range computed {
		computed[i].ContractID = contractID
	}

	stored, err := s.repo.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	byPeriod := make(map[shared.Period]Entry, len(stored))
	for _, e := range stored {
		byPeriod[e.AmortizationPeriod] = e
	}
	for i := range computed {
		if existing, ok := byPeriod[computed[i].AmortizationPeriod]; ok {
			computed[i].ID = existing.ID
			computed[i].PaidAmount = existing.PaidAmount
			computed[i].PaymentStatus = existing.PaymentStatus
			computed[i].PaymentDate = existing.PaymentDate
		}
	}
	return computed, nil
}

// GetWithContract loads a contract's schedule together with the contract.
func (s *Service) GetWithContract(ctx context.Context, contractID int64) (contracts.Contract, []Entry, error) {
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return contracts.Contract{}, nil, err
	}
	entries, err := s.repo.ListByContract(ctx, contractID)
	if err != nil {
		return contracts.Contract{}, nil, err
	}
	return c, entries, nil
}

// GenerateForContract builds and persists the schedule for a contract,
// replacing any previous unsettled schedule. It implements the port the
// contract service drives on upload and update.
func (s *Service) GenerateForContract(ctx context.Context, c contracts.Contract, actor string) error {
	entries, err := Generate(c.TotalAmount, c.StartDate, c.EndDate, s.now())
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].ContractID = c.ID
		entries[i].CreatedBy = actor
		entries[i].UpdatedBy = actor
	}
	saved, err := s.repo.ReplaceForContract(ctx, c.ID, entries)
	if err != nil {
		return err
	}
	s.logger.Info("amortization schedule generated",
		slog.Int64("contract_id", c.ID), slog.Int("periods", len(saved)))
	s.recordAudit(ctx, actor, "amortization.generate", c.ID, map[string]any{
		"periods": len(saved),
		"total":   c.TotalAmount.String(),
	})
	return nil
}

// HasSettledEntries reports whether any schedule entry of the contract has
// been paid against.
func (s *Service) HasSettledEntries(ctx context.Context, contractID int64) (bool, error) {
	return s.repo.HasSettled(ctx, contractID)
}

// Operate applies a batch of manual edits: updates for entries carrying an
// ID, inserts for those without, and deletions for stored entries missing
// from the payload. Settled entries reject both update and deletion.
func (s *Service) Operate(ctx context.Context, req OperateRequest, actor string) ([]Entry, error) {
	if _, err := s.contracts.Get(ctx, req.ContractID); err != nil {
		return nil, err
	}

	kept := make(map[int64]bool, len(req.Entries))
	upserts := make([]Entry, 0, len(req.Entries))
	for _, in := range req.Entries {
		e, err := in.toEntry(actor)
		if err != nil {
			return nil, err
		}
		upserts = append(upserts, e)
		if e.ID > 0 {
			kept[e.ID] = true
		}
	}

	stored, err := s.repo.ListByContract(ctx, req.ContractID)
	if err != nil {
		return nil, err
	}
	var deleteIDs []int64
	for _, e := range stored {
		if !kept[e.ID] {
			deleteIDs = append(deleteIDs, e.ID)
		}
	}

	entries, err := s.repo.Operate(ctx, req.ContractID, upserts, deleteIDs)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "amortization.operate", req.ContractID, map[string]any{
		"upserts": len(upserts),
		"deletes": len(deleteIDs),
	})
	return entries, nil
}

// MarkOverdue flips pending entries whose period has elapsed. Run from the
// scheduled overdue scan.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("amortization entries marked overdue", slog.Int64("count", n))
	}
	return n, nil
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, contractID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		Operator: actor,
		Action:   action,
		Entity:   "amortization",
		EntityID: contractID,
		Meta:     meta,
		At:       s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.String("error", err.Error()))
	}
}
