package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Studio represents a tenant: one tattoo studio with its own settings
// Maps to: studio table
type Studio struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Name    string    `db:"name" json:"name"`
	OwnerID string    `db:"owner_id" json:"owner_id"`

	// Settings document (JSONB); updated via JSON merge patch
	Settings json.RawMessage `db:"settings" json:"settings"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudioSettings is the typed view of the settings document
type StudioSettings struct {
	Concierge       ConciergeSettings `json:"concierge"`
	RetentionPolicy string            `json:"retention_policy,omitempty"`
	StorageQuotaMB  int64             `json:"storage_quota_mb,omitempty"`
}

// ConciergeSettings configures the studio's AI concierge persona
type ConciergeSettings struct {
	Name     string `json:"name,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Greeting string `json:"greeting,omitempty"`
}

// ParseSettings decodes the settings document
func (s *Studio) ParseSettings() (*StudioSettings, error) {
	settings := &StudioSettings{}
	if len(s.Settings) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(s.Settings, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
