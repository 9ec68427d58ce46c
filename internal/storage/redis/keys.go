package redis

import (
	"fmt"

	"github.com/mcoot/scoresnap/internal/model"
)

// Key prefix for all ScoreSnap data
const keyPrefix = "scoresnap"

// Key generation functions for each entity type

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// credentialsKey returns the Redis key for a user's Credentials, by username
func credentialsKey(username string) string {
	return fmt.Sprintf("%s:credentials:%s", keyPrefix, username)
}

// bowlerKey returns the Redis key for a Bowler
func bowlerKey(id model.BowlerID) string {
	return fmt.Sprintf("%s:bowler:%s", keyPrefix, id)
}

// bowlersIndexKey returns the Redis key for the SET of all bowler ids
func bowlersIndexKey() string {
	return fmt.Sprintf("%s:idx:bowlers", keyPrefix)
}

// aliasesKey returns the Redis key for the HASH of alias text -> BowlerAlias
func aliasesKey(bowlerID model.BowlerID) string {
	return fmt.Sprintf("%s:aliases:%s", keyPrefix, bowlerID)
}

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionsIndexKey returns the Redis key for the ZSET of all sessions by date
func sessionsIndexKey() string {
	return fmt.Sprintf("%s:idx:sessions", keyPrefix)
}

// userSessionsIndexKey returns the Redis key for the ZSET of a user's sessions by date
func userSessionsIndexKey(userID model.UserID) string {
	return fmt.Sprintf("%s:idx:user_sessions:%s", keyPrefix, userID)
}

// seriesKey returns the Redis key for a Series
func seriesKey(id model.SeriesID) string {
	return fmt.Sprintf("%s:series:%s", keyPrefix, id)
}

// seriesLookupKey returns the Redis key for the (session, bowler) -> series_id index
func seriesLookupKey(sessionID model.SessionID, bowlerID model.BowlerID) string {
	return fmt.Sprintf("%s:idx:series_lookup:%s:%s", keyPrefix, sessionID, bowlerID)
}

// sessionSeriesIndexKey returns the Redis key for the SET of series in a session
func sessionSeriesIndexKey(sessionID model.SessionID) string {
	return fmt.Sprintf("%s:idx:session_series:%s", keyPrefix, sessionID)
}

// bowlerSeriesIndexKey returns the Redis key for the SET of series for a bowler
func bowlerSeriesIndexKey(bowlerID model.BowlerID) string {
	return fmt.Sprintf("%s:idx:bowler_series:%s", keyPrefix, bowlerID)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// seriesGamesIndexKey returns the Redis key for the SET of games in a series
func seriesGamesIndexKey(seriesID model.SeriesID) string {
	return fmt.Sprintf("%s:idx:series_games:%s", keyPrefix, seriesID)
}

// teamKey returns the Redis key for a Team
func teamKey(id model.TeamID) string {
	return fmt.Sprintf("%s:team:%s", keyPrefix, id)
}

// sessionTeamsIndexKey returns the Redis key for the SET of teams in a session
func sessionTeamsIndexKey(sessionID model.SessionID) string {
	return fmt.Sprintf("%s:idx:session_teams:%s", keyPrefix, sessionID)
}

// teamBowlersKey returns the Redis key for the SET of bowlers on a team
func teamBowlersKey(teamID model.TeamID) string {
	return fmt.Sprintf("%s:team_bowlers:%s", keyPrefix, teamID)
}

// uploadKey returns the Redis key for an Upload
func uploadKey(id model.UploadID) string {
	return fmt.Sprintf("%s:upload:%s", keyPrefix, id)
}
