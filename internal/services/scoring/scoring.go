// Package scoring implements ten-pin bowling frame parsing and scoring.
package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/scoresnap/internal/model"
)

const pins = 10

var (
	ErrInvalidNotation = errors.New("invalid frame notation")
	ErrInvalidFrame    = errors.New("invalid frame")
)

// ParseNotation converts scoreboard notation into pin counts.
// X is a strike, / a spare, - or F a miss, digits are pin counts and
// whitespace is ignored, so "X", "7/", "9-" and "X 9/" are all valid.
func ParseNotation(notation string) ([]int, error) {
	var rolls []int
	fresh := true // next roll is the first of a pair
	for _, r := range strings.ToUpper(notation) {
		switch {
		case r == ' ' || r == '\t':
			continue
		case r == 'X':
			if !fresh {
				return nil, fmt.Errorf("%w: strike on second ball in %q", ErrInvalidNotation, notation)
			}
			rolls = append(rolls, pins)
		case r == '/':
			if fresh {
				return nil, fmt.Errorf("%w: spare on first ball in %q", ErrInvalidNotation, notation)
			}
			rolls = append(rolls, pins-rolls[len(rolls)-1])
			fresh = true
		case r == '-' || r == 'F':
			rolls = append(rolls, 0)
			fresh = !fresh
		case r >= '0' && r <= '9':
			n := int(r - '0')
			if !fresh && rolls[len(rolls)-1]+n > pins {
				return nil, fmt.Errorf("%w: more than %d pins in %q", ErrInvalidNotation, pins, notation)
			}
			rolls = append(rolls, n)
			fresh = !fresh
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidNotation, r, notation)
		}
	}
	return rolls, nil
}

// FormatNotation renders the rolls of one frame in scoreboard notation
func FormatNotation(rolls []int) string {
	var b strings.Builder
	fresh := true
	prev := 0
	for _, n := range rolls {
		switch {
		case fresh && n == pins:
			b.WriteByte('X')
		case !fresh && prev+n == pins:
			b.WriteByte('/')
			fresh = true
		case n == 0:
			b.WriteByte('-')
			fresh = !fresh
		default:
			b.WriteByte(byte('0' + n))
			fresh = !fresh
		}
		prev = n
	}
	return b.String()
}

// BuildFrame validates the rolls of a frame and returns it with notation filled in
func BuildFrame(frameNumber int, rolls []int, notation string) (model.Frame, error) {
	if frameNumber < 1 || frameNumber > model.FramesPerGame {
		return model.Frame{}, fmt.Errorf("%w: frame number %d", ErrInvalidFrame, frameNumber)
	}
	for _, n := range rolls {
		if n < 0 || n > pins {
			return model.Frame{}, fmt.Errorf("%w: roll %d in frame %d", ErrInvalidFrame, n, frameNumber)
		}
	}

	if frameNumber < model.FramesPerGame {
		if err := validateOpenFrame(frameNumber, rolls); err != nil {
			return model.Frame{}, err
		}
	} else if err := validateTenthFrame(rolls); err != nil {
		return model.Frame{}, err
	}

	frame := model.Frame{FrameNumber: frameNumber, Roll1: rolls[0]}
	if len(rolls) > 1 {
		frame.Roll2 = rolls[1]
	}
	if len(rolls) > 2 {
		third := rolls[2]
		frame.Roll3 = &third
	}
	frame.Notation = strings.ToUpper(strings.TrimSpace(notation))
	if frame.Notation == "" {
		frame.Notation = FormatNotation(rolls)
	}
	return frame, nil
}

func validateOpenFrame(frameNumber int, rolls []int) error {
	switch {
	case len(rolls) == 1 && rolls[0] == pins:
		return nil
	case len(rolls) == 2 && rolls[0] < pins && rolls[0]+rolls[1] <= pins:
		return nil
	default:
		return fmt.Errorf("%w: rolls %v in frame %d", ErrInvalidFrame, rolls, frameNumber)
	}
}

func validateTenthFrame(rolls []int) error {
	if len(rolls) < 2 || len(rolls) > 3 {
		return fmt.Errorf("%w: tenth frame needs 2 or 3 rolls, got %d", ErrInvalidFrame, len(rolls))
	}

	first, second := rolls[0], rolls[1]
	if first < pins && first+second > pins {
		return fmt.Errorf("%w: rolls %v in tenth frame", ErrInvalidFrame, rolls)
	}

	bonus := first == pins || first+second == pins
	if len(rolls) == 3 {
		if !bonus {
			return fmt.Errorf("%w: bonus ball without strike or spare in tenth frame", ErrInvalidFrame)
		}
		// After a strike and a non-strike, the second and third balls share a rack
		if first == pins && second < pins && second+rolls[2] > pins {
			return fmt.Errorf("%w: rolls %v in tenth frame", ErrInvalidFrame, rolls)
		}
	} else if bonus {
		return fmt.Errorf("%w: tenth frame missing bonus ball", ErrInvalidFrame)
	}
	return nil
}

// frameRolls returns the rolls actually thrown in a frame
func frameRolls(f model.Frame) []int {
	if f.FrameNumber < model.FramesPerGame {
		if f.Roll1 == pins {
			return []int{pins}
		}
		return []int{f.Roll1, f.Roll2}
	}
	rolls := []int{f.Roll1, f.Roll2}
	if f.Roll3 != nil {
		rolls = append(rolls, *f.Roll3)
	}
	return rolls
}

// FramesToRolls flattens frames into the sequence of balls thrown
func FramesToRolls(frames []model.Frame) []int {
	var rolls []int
	for _, f := range frames {
		rolls = append(rolls, frameRolls(f)...)
	}
	return rolls
}

// Complete reports whether frames hold a full game numbered 1 to 10
func Complete(frames []model.Frame) bool {
	if len(frames) != model.FramesPerGame {
		return false
	}
	for i, f := range frames {
		if f.FrameNumber != i+1 {
			return false
		}
	}
	return true
}

// ScoreGame totals a complete game with strike and spare bonuses.
// ok is false when the frames do not form a complete game.
func ScoreGame(frames []model.Frame) (total int, ok bool) {
	if !Complete(frames) {
		return 0, false
	}

	rolls := FramesToRolls(frames)
	i := 0
	for frame := 0; frame < model.FramesPerGame; frame++ {
		switch {
		case i >= len(rolls):
			return 0, false
		case rolls[i] == pins:
			if i+2 >= len(rolls) {
				return 0, false
			}
			total += pins + rolls[i+1] + rolls[i+2]
			i++
		case i+1 < len(rolls) && rolls[i]+rolls[i+1] == pins:
			if i+2 >= len(rolls) {
				return 0, false
			}
			total += pins + rolls[i+2]
			i += 2
		default:
			if i+1 >= len(rolls) {
				return 0, false
			}
			total += rolls[i] + rolls[i+1]
			i += 2
		}
	}
	return total, true
}
