package upload

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/mcoot/scoresnap/internal/dependencies/clock"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/scoring"
)

// Layouts tried before falling back to natural language date parsing
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 3:04 PM",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/06 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2 2006",
}

// Cleaner validates parsed scoreboards and strips OCR noise from them
type Cleaner struct {
	validate *validator.Validate
	dates    *when.Parser
	clock    clock.Clock
}

// NewCleaner creates a Cleaner that resolves relative dates against clock
func NewCleaner(clock clock.Clock) *Cleaner {
	dates := when.New(nil)
	dates.Add(en.All...)
	dates.Add(common.All...)
	return &Cleaner{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		dates:    dates,
		clock:    clock,
	}
}

// Clean returns a validated copy of parsed:
//
//   - bowler names trimmed, blank and duplicate names dropped
//   - game numbers filled in, deduplicated and sorted
//   - scores outside 0-300 discarded, totals computed from complete frames
//   - unreadable frames dropped
//   - a date always present
func (c *Cleaner) Clean(parsed *model.ParsedScoreboard) (*model.ParsedScoreboard, error) {
	if parsed == nil {
		return nil, model.ErrEmptyScoreboard
	}
	if err := c.validate.Struct(parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidScoreboard, err)
	}

	out := &model.ParsedScoreboard{
		DateText:         strings.TrimSpace(parsed.DateText),
		Location:         strings.TrimSpace(parsed.Location),
		Lane:             strings.TrimSpace(parsed.Lane),
		BowlingAlleyID:   strings.TrimSpace(parsed.BowlingAlleyID),
		BowlingAlleyName: strings.TrimSpace(parsed.BowlingAlleyName),
		Bowlers:          make([]model.ParsedBowler, 0, len(parsed.Bowlers)),
	}
	if parsed.GPS != nil {
		gps := *parsed.GPS
		out.GPS = &gps
	}
	dt := c.resolveDate(parsed)
	out.DateTime = &dt

	seen := make(map[string]struct{}, len(parsed.Bowlers))
	for _, b := range parsed.Bowlers {
		name := collapseSpaces(b.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out.Bowlers = append(out.Bowlers, model.ParsedBowler{
			Name:  name,
			Team:  collapseSpaces(b.Team),
			Games: cleanGames(b.Games),
		})
	}

	if len(out.Bowlers) == 0 {
		return nil, model.ErrEmptyScoreboard
	}
	return out, nil
}

func (c *Cleaner) resolveDate(parsed *model.ParsedScoreboard) time.Time {
	if parsed.DateTime != nil && !parsed.DateTime.IsZero() {
		return parsed.DateTime.UTC()
	}

	now := c.clock.Now()
	text := strings.TrimSpace(parsed.DateText)
	if text == "" {
		return now.UTC()
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t.UTC()
		}
	}
	if r, err := c.dates.Parse(text, now); err == nil && r != nil {
		return r.Time.UTC()
	}
	return now.UTC()
}

func cleanGames(games []model.ParsedGame) []model.ParsedGame {
	out := make([]model.ParsedGame, 0, len(games))
	explicit := make(map[int]struct{}, len(games))
	for _, g := range games {
		if g.GameNumber > 0 {
			explicit[g.GameNumber] = struct{}{}
		}
	}

	seen := make(map[int]struct{}, len(games))
	for i, g := range games {
		number := g.GameNumber
		if number == 0 {
			// unnumbered games take their position, moving past numbers already claimed
			number = i + 1
			for taken(explicit, number) || taken(seen, number) {
				number++
			}
		}
		if _, dup := seen[number]; dup {
			continue
		}
		seen[number] = struct{}{}

		cleaned := model.ParsedGame{
			GameNumber: number,
			IsPartial:  g.IsPartial,
			Frames:     cleanFrames(g.Frames),
		}
		if g.TotalScore != nil && *g.TotalScore >= 0 && *g.TotalScore <= model.MaxScore {
			total := *g.TotalScore
			cleaned.TotalScore = &total
		}
		if cleaned.TotalScore == nil && !g.IsPartial {
			if total, ok := scoring.ScoreGame(toFrames(cleaned.Frames)); ok {
				cleaned.TotalScore = &total
			}
		}
		if cleaned.TotalScore == nil {
			cleaned.IsPartial = true
		}
		if cleaned.IsPartial {
			cleaned.TotalScore = nil
		}
		out = append(out, cleaned)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out
}

func taken(numbers map[int]struct{}, n int) bool {
	_, ok := numbers[n]
	return ok
}

func cleanFrames(frames []model.ParsedFrame) []model.ParsedFrame {
	out := make([]model.ParsedFrame, 0, len(frames))
	seen := make(map[int]struct{}, len(frames))
	for _, f := range frames {
		if f.FrameNumber < 1 || f.FrameNumber > model.FramesPerGame {
			continue
		}
		if _, dup := seen[f.FrameNumber]; dup {
			continue
		}

		rolls := f.Rolls
		if len(rolls) == 0 {
			parsed, err := scoring.ParseNotation(f.Notation)
			if err != nil || len(parsed) == 0 {
				continue
			}
			rolls = parsed
		}
		frame, err := scoring.BuildFrame(f.FrameNumber, rolls, f.Notation)
		if err != nil {
			continue
		}

		seen[f.FrameNumber] = struct{}{}
		out = append(out, model.ParsedFrame{
			FrameNumber: frame.FrameNumber,
			Rolls:       append([]int(nil), rolls...),
			Notation:    frame.Notation,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FrameNumber < out[j].FrameNumber })
	return out
}

// toFrames converts cleaned frames to model frames. Frames must already be valid.
func toFrames(frames []model.ParsedFrame) []model.Frame {
	out := make([]model.Frame, 0, len(frames))
	for _, f := range frames {
		frame, err := scoring.BuildFrame(f.FrameNumber, f.Rolls, f.Notation)
		if err != nil {
			continue
		}
		out = append(out, frame)
	}
	return out
}

// ValidationErrors extracts field errors from a Clean failure
func ValidationErrors(err error) (validator.ValidationErrors, bool) {
	var verrs validator.ValidationErrors
	ok := errors.As(err, &verrs)
	return verrs, ok
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
