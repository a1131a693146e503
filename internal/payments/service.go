package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/contracts"
	"github.com/meridian-fin/meridian/internal/journals"
	"github.com/meridian-fin/meridian/internal/shared"
)

type contractGetter interface {
	Get(ctx context.Context, id int64) (contracts.Contract, error)
}

type entryReader interface {
	ListByContract(ctx context.Context, contractID int64) ([]amortization.Entry, error)
}

type auditor interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Enqueuer schedules background work after a payment commits. A nil enqueuer
// disables it, which the tests and the worker-less dev setup rely on.
type Enqueuer interface {
	EnqueueReportsWarmup(ctx context.Context) error
}

// Service executes payments: it composes the journal, persists the record
// and its lines, and updates the schedule allocation in one transaction.
type Service struct {
	repo      Repository
	contracts contractGetter
	entries   entryReader
	audit     auditor
	enqueuer  Enqueuer
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the payment service.
func NewService(repo Repository, contracts contractGetter, entries entryReader, audit auditor, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		contracts: contracts,
		entries:   entries,
		audit:     audit,
		enqueuer:  enqueuer,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Execute runs one payment atomically. The selected entries are re-read
// under a row lock inside the transaction, so a period settled by a
// concurrent payment fails the whole batch with ErrAlreadySettled and no
// partial journal is written.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest, actor string) (Response, error) {
	amount := req.PaymentAmount.Round(2)
	if !amount.IsPositive() {
		return Response{}, ErrInvalidAmount
	}
	if len(req.SelectedEntries) == 0 {
		return Response{}, ErrNoSelection
	}
	paymentDate, err := s.paymentDate(req.PaymentDate)
	if err != nil {
		return Response{}, err
	}

	contract, err := s.contracts.Get(ctx, req.ContractID)
	if err != nil {
		return Response{}, err
	}
	finalPeriod := shared.PeriodOf(contract.EndDate)

	var (
		rec    Record
		lines  []journals.Entry
		allocs []AllocationResult
	)
	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		entries, err := tx.EntriesForUpdate(ctx, req.SelectedEntries)
		if err != nil {
			return err
		}
		if len(entries) != len(req.SelectedEntries) {
			return amortization.ErrEntryNotFound
		}
		for _, e := range entries {
			if e.ContractID != contract.ID {
				return fmt.Errorf("entry %d: %w", e.ID, ErrWrongContract)
			}
			if e.Settled() {
				return fmt.Errorf("period %s: %w", e.AmortizationPeriod, ErrAlreadySettled)
			}
		}

		composed, err := ComposeJournal(contract.ID, entries, amount, paymentDate, finalPeriod)
		if err != nil {
			return err
		}

		periods := make([]shared.Period, 0, len(entries))
		for _, e := range entries {
			periods = append(periods, e.AmortizationPeriod)
		}
		rec, err = tx.InsertRecord(ctx, Record{
			ContractID:      contract.ID,
			Amount:          amount,
			BookingDate:     paymentDate,
			SelectedPeriods: periods,
			Status:          StatusConfirmed,
			Operator:        actor,
		})
		if err != nil {
			return err
		}
		if lines, err = tx.InsertJournal(ctx, rec.ID, composed); err != nil {
			return err
		}

		allocs = Allocate(entries, amount, paymentDate)
		for i := range allocs {
			allocs[i].Entry.UpdatedBy = actor
			if err := tx.UpdateEntryAllocation(ctx, allocs[i].Entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Response{}, err
	}

	for _, a := range allocs {
		s.recordAudit(ctx, actor, "payment.allocate", a.Entry.ID, map[string]any{
			"paymentId": rec.ID,
			"period":    a.Entry.AmortizationPeriod.String(),
			"applied":   a.Applied.String(),
			"status":    string(a.Entry.PaymentStatus),
		})
	}
	s.logger.Info("payment executed",
		slog.Int64("payment_id", rec.ID),
		slog.Int64("contract_id", contract.ID),
		slog.String("amount", amount.String()),
		slog.Int("journal_lines", len(lines)))

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueReportsWarmup(ctx); err != nil {
			s.logger.Warn("reports warmup enqueue failed", slog.String("error", err.Error()))
		}
	}
	return toResponse(rec, lines), nil
}

// Preview composes the journal a payment would write without persisting
// anything. Unknown entry IDs are skipped; an empty selection previews as a
// direct expense payment.
func (s *Service) Preview(ctx context.Context, contractID int64, entryIDs []int64, amount decimal.Decimal, paymentDate time.Time) ([]journals.Entry, error) {
	contract, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	all, err := s.entries.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool, len(entryIDs))
	for _, id := range entryIDs {
		wanted[id] = true
	}
	var selected []amortization.Entry
	for _, e := range all {
		if wanted[e.ID] {
			selected = append(selected, e)
		}
	}
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}
	return ComposeJournal(contractID, selected, amount, paymentDate, shared.PeriodOf(contract.EndDate))
}

// Get returns one payment with its journal lines.
func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	lines, err := s.repo.ListJournal(ctx, rec.ID)
	if err != nil {
		return Response{}, err
	}
	return toResponse(rec, lines), nil
}

// ListByContract returns a contract's payment history, newest first, each
// with its journal lines.
func (s *Service) ListByContract(ctx context.Context, contractID int64) ([]Response, error) {
	records, err := s.repo.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	out := make([]Response, 0, len(records))
	for _, rec := range records {
		lines, err := s.repo.ListJournal(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, toResponse(rec, lines))
	}
	return out, nil
}

// Cancel flips a payment to CANCELLED. The journal lines and the schedule
// allocation stay untouched: correction happens through a new payment, never
// by rewriting history.
func (s *Service) Cancel(ctx context.Context, id int64, actor string) (Response, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if rec.Status == StatusCancelled {
		return Response{}, ErrAlreadyCancelled
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return Response{}, err
	}
	rec.Status = StatusCancelled

	s.recordAudit(ctx, actor, "payment.cancel", id, map[string]any{
		"contractId": rec.ContractID,
		"amount":     rec.Amount.String(),
	})
	lines, err := s.repo.ListJournal(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return toResponse(rec, lines), nil
}

func (s *Service) paymentDate(raw string) (time.Time, error) {
	if raw == "" {
		return s.now(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("payments: payment date: %w", err)
	}
	return t, nil
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		Operator: actor,
		Action:   action,
		Entity:   "payment",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.String("error", err.Error()))
	}
}
