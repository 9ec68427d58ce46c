package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/mcoot/scoresnap/internal/model"
)

// Export sheet names
const (
	SeriesSheet = "Series"
	FramesSheet = "Frames"
)

// ExportSessionXLSX writes a workbook with one row per bowler on the Series
// sheet and one row per frame on the Frames sheet
func (s *Service) ExportSessionXLSX(ctx context.Context, sessionID model.SessionID, w io.Writer) error {
	summary, err := s.SessionSummary(ctx, sessionID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SeriesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(FramesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeSeriesSheet(f, summary); err != nil {
		return err
	}
	if err := writeFramesSheet(f, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("session exported",
		slog.String("session_id", string(sessionID)),
		slog.Int("series", len(summary.Series)),
	)
	return nil
}

func writeSeriesSheet(f *excelize.File, summary *SessionSummary) error {
	maxGame := 0
	for _, sr := range summary.Series {
		for _, g := range sr.Games {
			maxGame = max(maxGame, g.GameNumber)
		}
	}

	header := []any{"Bowler"}
	for n := 1; n <= maxGame; n++ {
		header = append(header, fmt.Sprintf("Game %d", n))
	}
	header = append(header, "Total")
	if err := setRow(f, SeriesSheet, 1, header); err != nil {
		return err
	}

	for i, sr := range summary.Series {
		row := make([]any, maxGame+2)
		row[0] = sr.Bowler.CanonicalName
		for n := 1; n <= maxGame; n++ {
			row[n] = ""
		}
		for _, g := range sr.Games {
			if g.TotalScore != nil && g.GameNumber > 0 {
				row[g.GameNumber] = *g.TotalScore
			}
		}
		row[maxGame+1] = sr.Total
		if err := setRow(f, SeriesSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeFramesSheet(f *excelize.File, summary *SessionSummary) error {
	header := []any{"Bowler", "Game", "Frame", "Roll 1", "Roll 2", "Roll 3", "Notation"}
	if err := setRow(f, FramesSheet, 1, header); err != nil {
		return err
	}

	rowNum := 2
	for _, sr := range summary.Series {
		for _, g := range sr.Games {
			for _, fr := range g.Frames {
				var roll3 any = ""
				if fr.Roll3 != nil {
					roll3 = *fr.Roll3
				}
				row := []any{sr.Bowler.CanonicalName, g.GameNumber, fr.FrameNumber, fr.Roll1, fr.Roll2, roll3, fr.Notation}
				if err := setRow(f, FramesSheet, rowNum, row); err != nil {
					return err
				}
				rowNum++
			}
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
