package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/mcoot/scoresnap/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		o.println(string(data))
	} else {
		o.println(msg)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) println(s string) {
	_, _ = fmt.Fprintln(o.w, s)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printf("Status: %s\n", v.Status)
	case response.User:
		o.printUser(v)
	case response.AuthResponse:
		o.printUser(v.User)
		o.printf("Token: %s\n", v.Token)
		o.printf("Expires: %s\n", v.ExpiresAt.Local().Format("2006-01-02 15:04"))
	case response.Bowler:
		o.printf("Bowler: %s (%s)\n", v.CanonicalName, v.ID)
	case []response.Bowler:
		o.printBowlers(v)
	case response.BowlerDetail:
		o.printBowlerDetail(v)
	case response.NameResolution:
		o.printResolution(v)
	case response.BowlerStats:
		o.printBowlerStats(v)
	case []response.Session:
		o.printSessions(v)
	case response.SessionSummary:
		o.printSessionSummary(v)
	case []response.AlleyStats:
		o.printAlleys(v)
	case response.UploadResponse:
		o.printUpload(v)
	case response.NameAnalysis:
		o.printAnalysis(v)
	case response.PersistResult:
		o.printPersistResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) table(fn func(tw *tabwriter.Writer)) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fn(tw)
	_ = tw.Flush()
}

func (o *Output) printUser(u response.User) {
	o.printf("User: %s (%s)\n", u.DisplayName, u.Username)
	o.printf("ID: %s\n", u.ID)
}

func (o *Output) printBowlers(bowlers []response.Bowler) {
	if len(bowlers) == 0 {
		o.println("No bowlers")
		return
	}
	o.table(func(tw *tabwriter.Writer) {
		_, _ = fmt.Fprintln(tw, "ID\tNAME")
		for _, b := range bowlers {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", b.ID, b.CanonicalName)
		}
	})
}

func (o *Output) printBowlerDetail(d response.BowlerDetail) {
	o.printf("Bowler: %s (%s)\n", d.Bowler.CanonicalName, d.Bowler.ID)
	if len(d.Aliases) == 0 {
		o.println("Aliases: none")
		return
	}
	o.printf("Aliases (%d):\n", len(d.Aliases))
	for _, a := range d.Aliases {
		o.printf("  - %s [%s, %.2f]\n", a.Alias, a.Source, a.Confidence)
	}
}

func (o *Output) printResolution(r response.NameResolution) {
	o.printf("Name: %s\n", r.ParsedName)
	switch {
	case r.ResolvedBowlerID != nil:
		o.printf("Resolved: %s\n", *r.ResolvedBowlerID)
	case r.NeedsUserInput:
		o.println("Resolved: needs a decision")
	default:
		o.println("Resolved: new bowler")
	}
	for _, s := range r.Suggestions {
		o.printf("  - %s (%s) %s %.2f\n", s.Bowler.CanonicalName, s.Bowler.ID, s.MatchType, s.Confidence)
	}
}

func (o *Output) printBowlerStats(s response.BowlerStats) {
	o.printf("Bowler: %s (%s)\n", s.Bowler.CanonicalName, s.Bowler.ID)
	o.printf("Games: %d (%d complete)\n", s.Games, s.CompleteGames)
	o.printf("Average: %.1f\n", s.Average)
	o.printf("High Game: %d\n", s.HighGame)
	o.printf("High Series: %d\n", s.HighSeries)
	o.printf("Sessions: %d\n", s.SessionCount)
}

func (o *Output) printSessions(sessions []response.Session) {
	if len(sessions) == 0 {
		o.println("No sessions")
		return
	}
	o.table(func(tw *tabwriter.Writer) {
		_, _ = fmt.Fprintln(tw, "ID\tDATE\tALLEY\tLANE")
		for _, s := range sessions {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.DateTime.Format("2006-01-02 15:04"), sessionPlace(s), s.Lane)
		}
	})
}

func sessionPlace(s response.Session) string {
	switch {
	case s.BowlingAlleyName != "":
		return s.BowlingAlleyName
	case s.Location != "":
		return s.Location
	default:
		return "-"
	}
}

func (o *Output) printSessionSummary(s response.SessionSummary) {
	o.printf("Session: %s\n", s.Session.ID)
	o.printf("Date: %s\n", s.Session.DateTime.Format("2006-01-02 15:04"))
	o.printf("Alley: %s\n", sessionPlace(s.Session))

	o.table(func(tw *tabwriter.Writer) {
		_, _ = fmt.Fprintln(tw, "BOWLER\tGAMES\tTOTAL")
		for _, sr := range s.Series {
			scores := make([]string, 0, len(sr.Games))
			for _, g := range sr.Games {
				if g.TotalScore == nil {
					scores = append(scores, "-")
					continue
				}
				scores = append(scores, fmt.Sprint(*g.TotalScore))
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", sr.Bowler.CanonicalName, strings.Join(scores, " "), sr.Total)
		}
	})

	for _, t := range s.Teams {
		o.printf("Team %s: %d\n", t.Name, t.Total)
	}
}

func (o *Output) printAlleys(alleys []response.AlleyStats) {
	if len(alleys) == 0 {
		o.println("No sessions")
		return
	}
	o.table(func(tw *tabwriter.Writer) {
		_, _ = fmt.Fprintln(tw, "ALLEY\tSESSIONS\tGAMES\tAVERAGE")
		for _, a := range alleys {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\n", a.Alley, a.Sessions, a.Games, a.Average)
		}
	})
}

func (o *Output) printUpload(u response.UploadResponse) {
	o.printf("Upload: %s\n", u.Upload.ID)
	o.printf("Status: %s\n", u.Upload.Status)
	if u.Upload.SessionID != nil {
		o.printf("Session: %s\n", *u.Upload.SessionID)
	}
	if u.Upload.Error != "" {
		o.printf("Error: %s\n", u.Upload.Error)
	}
	if u.Upload.Parsed != nil {
		o.printf("Bowlers: %s\n", strings.Join(u.Upload.Parsed.BowlerNames(), ", "))
	}
	o.printAnalysis(u.Analysis)
}

func (o *Output) printAnalysis(a response.NameAnalysis) {
	if !a.NeedsResolution {
		o.println("All names resolved")
		return
	}
	o.printf("Names needing a decision (%d):\n", len(a.UnresolvedNames))
	for _, r := range a.UnresolvedNames {
		o.printf("  %s:\n", r.ParsedName)
		for _, s := range r.Suggestions {
			o.printf("    - %s (%s) %.2f\n", s.Bowler.CanonicalName, s.Bowler.ID, s.Confidence)
		}
	}
}

func (o *Output) printPersistResult(r response.PersistResult) {
	if !r.Success {
		o.printf("Persist failed: %s\n", r.Error)
		return
	}
	if r.SessionID != nil {
		verb := "Created"
		if r.SessionMatched {
			verb = "Merged into"
		}
		o.printf("%s session %s\n", verb, *r.SessionID)
	}
	o.printf("Bowlers: %d\n", len(r.BowlerIDs))
	o.printf("Games saved: %d\n", len(r.GameIDs))
	if r.SkippedGames > 0 {
		o.printf("Games already recorded: %d\n", r.SkippedGames)
	}
}
