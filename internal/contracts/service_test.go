package contracts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/shared"
)

type fakeRepo struct {
	contracts map[int64]Contract
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{contracts: map[int64]Contract{}, nextID: 1}
}

func (r *fakeRepo) Create(ctx context.Context, c Contract) (Contract, error) {
	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.contracts[c.ID] = c
	return c, nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return Contract{}, ErrNotFound
	}
	return c, nil
}

func (r *fakeRepo) List(ctx context.Context, offset, limit int) ([]Contract, int, error) {
	var items []Contract
	for _, c := range r.contracts {
		items = append(items, c)
	}
	return items, len(r.contracts), nil
}

func (r *fakeRepo) Update(ctx context.Context, c Contract) (Contract, error) {
	if _, ok := r.contracts[c.ID]; !ok {
		return Contract{}, ErrNotFound
	}
	c.UpdatedAt = time.Now()
	r.contracts[c.ID] = c
	return c, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	c, ok := r.contracts[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	r.contracts[id] = c
	return nil
}

type fakeParser struct {
	result ParseResult
	err    error
	calls  int
}

func (p *fakeParser) Parse(ctx context.Context, filename string, data []byte) (ParseResult, error) {
	p.calls++
	return p.result, p.err
}

type fakeStore struct {
	saved map[string][]byte
}

func (s *fakeStore) Save(originalName string, data []byte) (string, string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[originalName] = data
	return "stored-" + originalName, "/uploads/stored-" + originalName, nil
}

func (s *fakeStore) Open(storedName string) ([]byte, error) {
	return nil, errors.New("not found")
}

type fakeScheduler struct {
	generated []int64
	settled   bool
}

func (g *fakeScheduler) GenerateForContract(ctx context.Context, c Contract, actor string) error {
	g.generated = append(g.generated, c.ID)
	return nil
}

func (g *fakeScheduler) HasSettledEntries(ctx context.Context, contractID int64) (bool, error) {
	return g.settled, nil
}

type fakeAuditor struct {
	entries []shared.AuditLog
}

func (a *fakeAuditor) Record(ctx context.Context, entry shared.AuditLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

func newTestService(parser Parser) (*Service, *fakeRepo, *fakeScheduler, *fakeAuditor) {
	repo := newFakeRepo()
	sched := &fakeScheduler{}
	audit := &fakeAuditor{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, parser, &fakeStore{}, audit, logger)
	svc.SetScheduleGenerator(sched)
	return svc, repo, sched, audit
}

func parsedContract() ParseResult {
	return ParseResult{
		VendorName:  "Acme Leasing",
		TotalAmount: decimal.RequireFromString("6000"),
		StartDate:   "2024-01-01",
		EndDate:     "2024-06-30",
		TaxRate:     decimal.RequireFromString("0.06"),
	}
}

func TestUploadGeneratesSchedule(t *testing.T) {
	svc, repo, sched, audit := newTestService(&fakeParser{result: parsedContract()})

	created, err := svc.Upload(context.Background(), "lease.pdf", []byte("doc"), "alice")
	require.NoError(t, err)
	require.Equal(t, "Acme Leasing", created.VendorName)
	require.Equal(t, StatusActive, created.Status)
	require.Equal(t, "lease.pdf", created.OriginalFileName)

	require.Len(t, repo.contracts, 1)
	require.Equal(t, []int64{created.ID}, sched.generated)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "contract.upload", audit.entries[0].Action)
	require.Equal(t, created.ID, audit.entries[0].EntityID)
}

func TestUploadParserFailureStoresDraft(t *testing.T) {
	svc, repo, sched, _ := newTestService(&fakeParser{err: errors.New("parser down")})

	created, err := svc.Upload(context.Background(), "Vendor Agreement.pdf", []byte("doc"), "alice")
	require.NoError(t, err)

	// No dates could be extracted, so the contract is kept without a schedule.
	require.Empty(t, sched.generated)
	require.Len(t, repo.contracts, 1)
	require.True(t, created.StartDate.IsZero())
}

func TestParseFallsBackToDraft(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeParser{err: errors.New("parser down")})

	result, err := svc.Parse(context.Background(), "Vendor Agreement.pdf", []byte("doc"))
	require.NoError(t, err)
	require.True(t, result.Draft)
	require.Equal(t, "Vendor Agreement", result.VendorName)
}

func TestUpdateRegeneratesSchedule(t *testing.T) {
	svc, repo, sched, _ := newTestService(&fakeParser{result: parsedContract()})
	created, err := svc.Upload(context.Background(), "lease.pdf", []byte("doc"), "alice")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateRequest{
		VendorName:  "Acme Leasing",
		TotalAmount: decimal.RequireFromString("8000"),
		StartDate:   "2024-03-01",
		EndDate:     "2024-08-31",
	}, "alice")
	require.NoError(t, err)
	require.True(t, updated.TotalAmount.Equal(decimal.RequireFromString("8000")))
	require.Equal(t, []int64{created.ID, created.ID}, sched.generated)
	require.True(t, repo.contracts[created.ID].StartDate.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestUpdateRejectedOnceSettled(t *testing.T) {
	svc, _, sched, _ := newTestService(&fakeParser{result: parsedContract()})
	created, err := svc.Upload(context.Background(), "lease.pdf", []byte("doc"), "alice")
	require.NoError(t, err)

	sched.settled = true
	_, err = svc.Update(context.Background(), created.ID, UpdateRequest{
		VendorName:  "Acme Leasing",
		TotalAmount: decimal.RequireFromString("8000"),
		StartDate:   "2024-03-01",
		EndDate:     "2024-08-31",
	}, "alice")
	require.ErrorIs(t, err, ErrScheduleSettled)
}

func TestUpdateValidatesDatesAndAmount(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeParser{result: parsedContract()})
	created, err := svc.Upload(context.Background(), "lease.pdf", []byte("doc"), "alice")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, UpdateRequest{
		VendorName:  "Acme Leasing",
		TotalAmount: decimal.RequireFromString("8000"),
		StartDate:   "2024-08-01",
		EndDate:     "2024-03-31",
	}, "alice")
	require.ErrorIs(t, err, ErrInvalidDates)

	_, err = svc.Update(context.Background(), created.ID, UpdateRequest{
		VendorName:  "Acme Leasing",
		TotalAmount: decimal.Zero,
		StartDate:   "2024-03-01",
		EndDate:     "2024-08-31",
	}, "alice")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestUpdateStatus(t *testing.T) {
	svc, repo, _, audit := newTestService(&fakeParser{result: parsedContract()})
	created, err := svc.Upload(context.Background(), "lease.pdf", []byte("doc"), "alice")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), created.ID, StatusArchived, "alice"))
	require.Equal(t, StatusArchived, repo.contracts[created.ID].Status)
	require.Equal(t, "contract.status", audit.entries[len(audit.entries)-1].Action)
}
