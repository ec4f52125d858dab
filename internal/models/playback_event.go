package models

import (
	"time"

	"gorm.io/gorm"
)

// PlaybackEvent is one recorded observation of the player: a track change, a
// mute or unmute, or a failed mute attempt.
type PlaybackEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Kind      string         `gorm:"not null;index" json:"kind"` // "track_changed", "muted", "unmuted", "warning"
	Title     string         `gorm:"not null;default:''" json:"title"`
	Present   bool           `gorm:"not null;default:false" json:"present"`
	Muted     bool           `gorm:"not null;default:false" json:"muted"`
	Message   string         `gorm:"not null;default:''" json:"message,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type TitleSummary struct {
	Title     string `json:"title"`
	PlayCount int    `json:"play_count"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period       ReportPeriod   `json:"period"`
	Tracks       int64          `json:"tracks"`
	AdsMuted     int64          `json:"ads_muted"`
	Warnings     int64          `json:"warnings"`
	Errors       int64          `json:"errors"`
	MutedSeconds int64          `json:"muted_seconds"`
	TopTitles    []TitleSummary `json:"top_titles"`
	GeneratedAt  time.Time      `json:"generated_at"`
}
