package events

import (
	"strconv"
	"time"
)

// DomainEvent is something that already happened in the store.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeActionLogged = "action.logged"
	TypeAlbumCreated = "album.created"
	TypeAlbumUpdated = "album.updated"
	TypeAlbumDeleted = "album.deleted"
)

// ActionLogged is raised after an action filter persisted an ActionLog entry.
type ActionLogged struct {
	BaseEvent
	Controller string `json:"controller"`
	Action     string `json:"action"`
	IP         string `json:"ip"`
}

func NewActionLogged(id, controller, action, ip string, timestamp time.Time) ActionLogged {
	return ActionLogged{
		BaseEvent: BaseEvent{
			AggregateID: id,
			EventType:   TypeActionLogged,
			Timestamp:   timestamp,
			Version:     1,
		},
		Controller: controller,
		Action:     action,
		IP:         ip,
	}
}

// AlbumChanged covers catalog edits made through the store manager.
type AlbumChanged struct {
	BaseEvent
	AlbumID int    `json:"album_id"`
	Title   string `json:"title,omitempty"`
}

func NewAlbumChanged(eventType string, albumID int, title string, timestamp time.Time) AlbumChanged {
	return AlbumChanged{
		BaseEvent: BaseEvent{
			AggregateID: strconv.Itoa(albumID),
			EventType:   eventType,
			Timestamp:   timestamp,
			Version:     1,
		},
		AlbumID: albumID,
		Title:   title,
	}
}
