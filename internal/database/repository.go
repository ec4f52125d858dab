package database

import (
	"time"

	"github.com/admuter/admuter/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for playback history
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new playback event into the database
func (r *Repository) Create(event *models.PlaybackEvent) error {
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert playback event")
	}
	return nil
}

// GetEventsSince retrieves all playback events since a given time, oldest first
func (r *Repository) GetEventsSince(since time.Time) ([]*models.PlaybackEvent, error) {
	var events []*models.PlaybackEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC, id ASC").Find(&events)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query playback events")
	}

	return events, nil
}

// GetLatest retrieves the most recent playback event, or nil when there is none
func (r *Repository) GetLatest() (*models.PlaybackEvent, error) {
	var event models.PlaybackEvent
	result := r.db.Order("timestamp DESC, id DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest event")
	}
	return &event, nil
}

// GetLastMuteEventBefore returns the latest "muted" or "unmuted" event strictly
// before a given time, or nil when there is none
func (r *Repository) GetLastMuteEventBefore(before time.Time) (*models.PlaybackEvent, error) {
	var event models.PlaybackEvent
	result := r.db.Where("kind IN ? AND timestamp < ?", []string{"muted", "unmuted"}, before).
		Order("timestamp DESC, id DESC").
		First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get last mute event")
	}
	return &event, nil
}

// CountByKindSince counts events of one kind since a given time
func (r *Repository) CountByKindSince(kind string, since time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.PlaybackEvent{}).
		Where("kind = ? AND timestamp >= ?", kind, since).
		Count(&count)
	if result.Error != nil {
		return 0, errors.Wrapf(result.Error, "failed to count %s events", kind)
	}
	return count, nil
}

// TopTitlesSince returns the most frequently started titles since a given time.
// Absent titles are not counted.
func (r *Repository) TopTitlesSince(since time.Time, limit int) ([]models.TitleSummary, error) {
	var summaries []models.TitleSummary

	result := r.db.Model(&models.PlaybackEvent{}).
		Select("title, COUNT(*) as play_count").
		Where("kind = ? AND present = ? AND timestamp >= ?", "track_changed", true, since).
		Group("title").
		Order("play_count DESC, title ASC").
		Limit(limit).
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query top titles")
	}

	return summaries, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// CountErrorsSince counts error logs since a given time
func (r *Repository) CountErrorsSince(since time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.ErrorLog{}).Where("timestamp >= ?", since).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count error logs")
	}
	return count, nil
}

// Clear removes all playback events and error logs from the database
func (r *Repository) Clear() error {
	if result := r.db.Exec("DELETE FROM playback_events"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear playback events")
	}
	if result := r.db.Exec("DELETE FROM error_logs"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}
