// Package journal records filled trades for the session: an in-memory
// ledger whose recent entries feed the orchestrator's consensus weight
// update, plus an optional excelize export on shutdown.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/orderstate"
	"github.com/xuri/excelize/v2"
)

// Entry is one completed fill, the unit the journal records.
type Entry struct {
	Timestamp  time.Time
	Level      int
	Side       orderstate.Side
	Price      float64
	Size       float64
	FeePaid    float64
	RealizedPnL float64
	Regime     string
}

// Journal is the single in-process trade ledger for a bot run. Safe for
// concurrent use: the orchestrator's tick loop records fills and reads
// recent entries, and the session export reads it at the end of a run.
type Journal struct {
	mu      sync.RWMutex
	entries []Entry
}

func New() *Journal {
	return &Journal{}
}

// Record appends one filled trade. It never blocks on I/O — export is a
// separate, explicit step.
func (j *Journal) Record(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

// Entries returns a snapshot copy of everything recorded so far.
func (j *Journal) Entries() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Recent returns the last n entries (or all of them if there are fewer
// than n); the orchestrator's consensus weight update reads it.
func (j *Journal) Recent(n int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if n <= 0 || n >= len(j.entries) {
		out := make([]Entry, len(j.entries))
		copy(out, j.entries)
		return out
	}
	out := make([]Entry, n)
	copy(out, j.entries[len(j.entries)-n:])
	return out
}

// Summary aggregates the full ledger into the scalars the orchestrator's
// status display and shutdown report want.
type Summary struct {
	TotalTrades  int
	TotalFees    float64
	RealizedPnL  float64
	WinningTrades int
	LosingTrades int
}

func (j *Journal) Summary() Summary {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var s Summary
	for _, e := range j.entries {
		s.TotalTrades++
		s.TotalFees += e.FeePaid
		s.RealizedPnL += e.RealizedPnL
		if e.RealizedPnL > 0 {
			s.WinningTrades++
		} else if e.RealizedPnL < 0 {
			s.LosingTrades++
		}
	}
	return s
}

// ExportXLSX writes the full ledger to a styled workbook with a
// header/currency/percentage style triad, as a single "Trades" sheet.
func (j *Journal) ExportXLSX(path string) error {
	entries := j.Entries()

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("journal: create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const sheet = "Trades"
	fx.SetSheetName(fx.GetSheetName(0), sheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("journal: header style: %w", err)
	}
	currencyStyle, err := fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return fmt.Errorf("journal: currency style: %w", err)
	}

	headers := []string{"Timestamp", "Level", "Side", "Price", "Size", "Fee Paid", "Realized PnL", "Regime"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, e := range entries {
		r := row + 2
		fx.SetCellValue(sheet, cellAt(1, r), e.Timestamp.Format(time.RFC3339))
		fx.SetCellValue(sheet, cellAt(2, r), e.Level)
		fx.SetCellValue(sheet, cellAt(3, r), e.Side.String())
		fx.SetCellValue(sheet, cellAt(4, r), e.Price)
		fx.SetCellValue(sheet, cellAt(5, r), e.Size)
		fx.SetCellValue(sheet, cellAt(6, r), e.FeePaid)
		fx.SetCellStyle(sheet, cellAt(6, r), cellAt(6, r), currencyStyle)
		fx.SetCellValue(sheet, cellAt(7, r), e.RealizedPnL)
		fx.SetCellStyle(sheet, cellAt(7, r), cellAt(7, r), currencyStyle)
		fx.SetCellValue(sheet, cellAt(8, r), e.Regime)
	}

	return fx.SaveAs(path)
}

func cellAt(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
