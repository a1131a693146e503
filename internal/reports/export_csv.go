package reports

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	_, err := s.buf.WriteString(line)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.flush()
	}
	return nil
}

func (s *csvStreamer) flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

// ExportAmortizationCSV streams every contract's schedule as CSV. Rows are
// flushed in batches so large exports do not buffer fully in memory.
func (s *Service) ExportAmortizationCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.repo.ScheduleRows(ctx)
	if err != nil {
		return err
	}

	streamer := newCSVStreamer(w)
	generated := s.now().Format("2006-01-02 15:04:05")
	if err := streamer.writeComment(fmt.Sprintf("# Amortization schedule export,%s", generated)); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{
		"Contract ID", "Vendor", "Amortization Period", "Accounting Period",
		"Amount", "Paid Amount", "Payment Status",
	}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := streamer.writeRow([]string{
			fmt.Sprintf("%d", row.ContractID),
			row.VendorName,
			row.AmortizationPeriod,
			row.AccountingPeriod,
			row.Amount.StringFixed(2),
			row.PaidAmount.StringFixed(2),
			row.PaymentStatus,
		}); err != nil {
			return err
		}
	}
	return streamer.flush()
}
