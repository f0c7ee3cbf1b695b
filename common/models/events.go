package models

import (
	"time"

	"github.com/google/uuid"
)

// TopicDesignEvents is the in-process topic carrying design lifecycle events
const TopicDesignEvents = "design.events"

// ChannelDesignEvents is the Redis channel mirroring lifecycle events for
// external consumers (dashboards, fanout)
const ChannelDesignEvents = "inkwell:design:events"

// Design event types
const (
	EventDesignCreated = "design.created"
	EventDesignUpdated = "design.updated"
	EventDesignDeleted = "design.deleted"
)

// DesignEvent describes a lifecycle change to a design
type DesignEvent struct {
	Type     string     `json:"type"`
	DesignID uuid.UUID  `json:"design_id"`
	OwnerID  string     `json:"owner_id"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	At       time.Time  `json:"at"`
}
