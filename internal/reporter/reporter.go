package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/admuter/admuter/internal/database"
	"github.com/admuter/admuter/internal/models"
	"github.com/admuter/admuter/pkg/utils"
)

const topTitleLimit = 10

// Reporter handles report generation
type Reporter struct {
	repo *database.Repository
	now  func() time.Time
}

// New creates a new reporter
func New(repo *database.Repository) *Reporter {
	return &Reporter{
		repo: repo,
		now:  time.Now,
	}
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := r.Period(periodType)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Period:      *period,
		GeneratedAt: r.now(),
	}

	if report.Tracks, err = r.repo.CountByKindSince("track_changed", period.Start); err != nil {
		return nil, errors.Wrap(err, "failed to count tracks")
	}
	if report.AdsMuted, err = r.repo.CountByKindSince("muted", period.Start); err != nil {
		return nil, errors.Wrap(err, "failed to count mutes")
	}
	if report.Warnings, err = r.repo.CountByKindSince("warning", period.Start); err != nil {
		return nil, errors.Wrap(err, "failed to count warnings")
	}
	if report.Errors, err = r.repo.CountErrorsSince(period.Start); err != nil {
		return nil, errors.Wrap(err, "failed to count errors")
	}
	if report.TopTitles, err = r.repo.TopTitlesSince(period.Start, topTitleLimit); err != nil {
		return nil, errors.Wrap(err, "failed to get top titles")
	}

	// Muted time is derived at runtime from muted/unmuted pairs, starting from
	// the state in effect when the period began.
	before, err := r.repo.GetLastMuteEventBefore(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get mute state at period start")
	}
	events, err := r.repo.GetEventsSince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get events")
	}
	mutedAtStart := before != nil && before.Kind == "muted"
	report.MutedSeconds = mutedSeconds(period.Start, mutedAtStart, events, report.GeneratedAt)

	return report, nil
}

func mutedSeconds(start time.Time, mutedAtStart bool, events []*models.PlaybackEvent, end time.Time) int64 {
	var (
		total      time.Duration
		mutedSince = start
		muted      = mutedAtStart
	)
	for _, e := range events {
		switch e.Kind {
		case "muted":
			if !muted {
				muted = true
				mutedSince = e.Timestamp
			}
		case "unmuted":
			if muted {
				total += e.Timestamp.Sub(mutedSince)
				muted = false
			}
		}
	}
	if muted && end.After(mutedSince) {
		total += end.Sub(mutedSince)
	}
	return int64(total / time.Second)
}

// Period calculates the time range for the report
func (r *Reporter) Period(periodType string) (*models.ReportPeriod, error) {
	now := r.now()
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.Add(24 * time.Hour)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, errors.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Playback Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Tracks: %d  Ads muted: %d  Muted for: %s  Warnings: %d  Errors: %d\n\n",
		report.Tracks,
		report.AdsMuted,
		utils.FormatRoundedUnit(report.MutedSeconds),
		report.Warnings,
		report.Errors)

	if len(report.TopTitles) == 0 {
		b.WriteString("No playback recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-60s %10s\n", "Title", "Plays")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 71))

	for _, t := range report.TopTitles {
		fmt.Fprintf(&b, "%-60s %10d\n", truncate(t.Title, 60), t.PlayCount)
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}

// truncate truncates a string to the specified number of runes
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
