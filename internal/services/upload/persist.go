package upload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/scoresnap/internal/matching"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/session"
)

// Persist writes a parsed scoreboard into sessions, bowlers, series and games.
//
// mappings assigns parsed names to bowlers chosen by the user. An empty
// BowlerID forces a new bowler for that name. Names without a mapping are
// resolved automatically.
//
// Persist never returns an error: failures are reported in the result and
// the upload is marked failed. Work done before a failure is kept.
func (s *Service) Persist(
	ctx context.Context,
	uploadID model.UploadID,
	parsed *model.ParsedScoreboard,
	mappings map[string]model.BowlerID,
	userID model.UserID,
) *model.PersistResult {
	result := &model.PersistResult{
		BowlerIDs: []model.BowlerID{},
		SeriesIDs: []model.SeriesID{},
		GameIDs:   []model.GameID{},
	}

	if err := s.persist(ctx, uploadID, parsed, mappings, userID, result); err != nil {
		result.Success = false
		result.Error = err.Error()
		s.logger.Error("failed to persist upload",
			slog.String("upload_id", string(uploadID)),
			slog.String("user_id", string(userID)),
			slog.String("error", err.Error()),
		)
		s.markUpload(ctx, uploadID, model.UploadStatusFailed, result.SessionID, err.Error())
		s.metrics.ObservePersist(result)
		return result
	}

	result.Success = true
	s.markUpload(ctx, uploadID, model.UploadStatusProcessed, result.SessionID, "")
	s.publish(uploadID, result)
	s.metrics.ObservePersist(result)

	s.logger.Info("upload persisted",
		slog.String("upload_id", string(uploadID)),
		slog.String("session_id", string(*result.SessionID)),
		slog.Bool("session_matched", result.SessionMatched),
		slog.Int("games", len(result.GameIDs)),
		slog.Int("skipped_games", result.SkippedGames),
	)
	return result
}

func (s *Service) persist(
	ctx context.Context,
	uploadID model.UploadID,
	parsed *model.ParsedScoreboard,
	mappings map[string]model.BowlerID,
	userID model.UserID,
	result *model.PersistResult,
) error {
	cleaned, err := s.Clean(parsed)
	if err != nil {
		return err
	}

	sess, err := s.findOrCreateSession(ctx, userID, cleaned, result)
	if err != nil {
		return err
	}
	result.SessionID = &sess.ID

	seenBowlers := make(map[model.BowlerID]struct{}, len(cleaned.Bowlers))
	for _, pb := range cleaned.Bowlers {
		bowlerID, err := s.chooseBowler(ctx, pb.Name, mappings, userID)
		if err != nil {
			return fmt.Errorf("bowler %q: %w", pb.Name, err)
		}
		if _, seen := seenBowlers[bowlerID]; !seen {
			seenBowlers[bowlerID] = struct{}{}
			result.BowlerIDs = append(result.BowlerIDs, bowlerID)
		}

		if pb.Team != "" {
			if _, err := s.sessions.EnsureTeam(ctx, sess.ID, pb.Team, bowlerID); err != nil {
				return fmt.Errorf("team %q: %w", pb.Team, err)
			}
		}

		if err := s.persistGames(ctx, sess.ID, bowlerID, pb.Games, result); err != nil {
			return fmt.Errorf("games for %q: %w", pb.Name, err)
		}
	}
	return nil
}

func (s *Service) findOrCreateSession(
	ctx context.Context,
	userID model.UserID,
	parsed *model.ParsedScoreboard,
	result *model.PersistResult,
) (*model.Session, error) {
	match, err := s.matcher.FindMatchingSession(ctx, model.SessionCriteria{
		UserID:         userID,
		DateTime:       *parsed.DateTime,
		BowlingAlleyID: parsed.BowlingAlleyID,
		Location:       parsed.Location,
		GPS:            parsed.GPS,
		BowlerNames:    parsed.BowlerNames(),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSessionMatch(match)

	if match != nil {
		result.SessionMatched = true
		return match.Session, nil
	}

	return s.sessions.Create(ctx, userID, session.CreateParams{
		DateTime:         *parsed.DateTime,
		Location:         parsed.Location,
		Lane:             parsed.Lane,
		BowlingAlleyID:   parsed.BowlingAlleyID,
		BowlingAlleyName: parsed.BowlingAlleyName,
		GPS:              parsed.GPS,
	})
}

// chooseBowler picks the bowler for a parsed name: the user's mapping, then
// an automatic resolution, then a new bowler
func (s *Service) chooseBowler(
	ctx context.Context,
	name string,
	mappings map[string]model.BowlerID,
	userID model.UserID,
) (model.BowlerID, error) {
	if mapped, ok := lookupMapping(mappings, name); ok {
		if mapped == "" {
			return s.createBowler(ctx, name, userID)
		}
		if _, err := s.bowlers.Get(ctx, mapped); err != nil {
			return "", err
		}
		return mapped, nil
	}

	res, err := s.bowlers.ResolveName(ctx, name)
	if err != nil {
		return "", err
	}
	if res.ResolvedBowlerID != nil {
		s.learnAlias(ctx, name, res)
		return *res.ResolvedBowlerID, nil
	}
	if res.NeedsUserInput {
		s.logger.Warn("ambiguous name persisted without a mapping, creating new bowler",
			slog.String("name", name),
			slog.Int("suggestions", len(res.Suggestions)),
		)
	}
	return s.createBowler(ctx, name, userID)
}

func (s *Service) createBowler(ctx context.Context, name string, userID model.UserID) (model.BowlerID, error) {
	b, err := s.bowlers.CreateBowler(ctx, name, userID)
	if err != nil {
		return "", err
	}
	return b.ID, nil
}

// learnAlias records a spelling that resolved by similarity rather than exactly
func (s *Service) learnAlias(ctx context.Context, name string, res *model.NameResolution) {
	if len(res.Suggestions) == 0 || res.Suggestions[0].Confidence >= 1 {
		return
	}
	top := res.Suggestions[0]
	if matching.NormalizeName(top.Bowler.CanonicalName) == matching.NormalizeName(name) {
		return
	}
	if err := s.bowlers.AddAlias(ctx, top.Bowler.ID, name, model.AliasSourceAutoVision, top.Confidence); err != nil {
		s.logger.Warn("failed to record alias",
			slog.String("bowler_id", string(top.Bowler.ID)),
			slog.String("alias", name),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) persistGames(
	ctx context.Context,
	sessionID model.SessionID,
	bowlerID model.BowlerID,
	games []model.ParsedGame,
	result *model.PersistResult,
) error {
	numbers := make([]int, 0, len(games))
	for _, g := range games {
		numbers = append(numbers, g.GameNumber)
	}

	rec, err := s.series.Reconcile(ctx, sessionID, bowlerID, numbers)
	if err != nil {
		return err
	}
	result.SeriesIDs = append(result.SeriesIDs, rec.SeriesID)
	result.SkippedGames += len(rec.ConflictingGames)

	if len(rec.NewGames) == 0 {
		return nil
	}

	wanted := make(map[int]struct{}, len(rec.NewGames))
	for _, n := range rec.NewGames {
		wanted[n] = struct{}{}
	}
	toInsert := make([]*model.Game, 0, len(rec.NewGames))
	for _, g := range games {
		if _, ok := wanted[g.GameNumber]; !ok {
			continue
		}
		toInsert = append(toInsert, &model.Game{
			GameNumber: g.GameNumber,
			TotalScore: g.TotalScore,
			IsPartial:  g.IsPartial,
			Frames:     toFrames(g.Frames),
		})
	}

	gameIDs, err := s.series.AppendGames(ctx, rec.SeriesID, toInsert)
	result.GameIDs = append(result.GameIDs, gameIDs...)
	return err
}

func (s *Service) markUpload(
	ctx context.Context,
	uploadID model.UploadID,
	status model.UploadStatus,
	sessionID *model.SessionID,
	errMsg string,
) {
	if uploadID == "" {
		return
	}
	upload, err := s.storage.GetUpload(ctx, uploadID)
	if err != nil {
		s.logger.Warn("could not load upload to update status",
			slog.String("upload_id", string(uploadID)),
			slog.String("error", err.Error()),
		)
		return
	}
	upload.Status = status
	upload.SessionID = sessionID
	upload.Error = errMsg
	upload.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUpload(ctx, upload); err != nil {
		s.logger.Warn("could not update upload status",
			slog.String("upload_id", string(uploadID)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) publish(uploadID model.UploadID, result *model.PersistResult) {
	if s.notifier == nil || result.SessionID == nil {
		return
	}
	s.notifier.SessionUpdated(model.SessionUpdatedEvent{
		Type:         model.EventSessionUpdated,
		Timestamp:    s.clock.Now(),
		SessionID:    *result.SessionID,
		UploadID:     uploadID,
		GameIDs:      result.GameIDs,
		SkippedGames: result.SkippedGames,
		BowlerIDs:    result.BowlerIDs,
	})
}

// lookupMapping finds the mapping for a name, falling back to a
// case-insensitive comparison of trimmed keys
func lookupMapping(mappings map[string]model.BowlerID, name string) (model.BowlerID, bool) {
	if id, ok := mappings[name]; ok {
		return id, true
	}
	for k, id := range mappings {
		if strings.EqualFold(collapseSpaces(k), name) {
			return id, true
		}
	}
	return "", false
}
