package storage

import (
	"encoding/json"
	"time"
)

// User mirrors the users table owned by the auth service. The game server
// only ever touches the two counters.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:255"`
	Email        string `gorm:"size:255;uniqueIndex"`
	AuthProvider string `gorm:"size:50"`
	GamesPlayed  int    `gorm:"not null;default:0"`
	GamesWon     int    `gorm:"not null;default:0"`
	ProfilePic   string
	CreatedAt    time.Time
}

// Session is the connect-pg-simple session row.
type Session struct {
	Sid    string          `gorm:"primaryKey;size:255"`
	Sess   json.RawMessage `gorm:"type:json;not null"`
	Expire time.Time       `gorm:"type:timestamp(6);not null;index:IDX_session_expire"`
}

func (Session) TableName() string { return "session" }
