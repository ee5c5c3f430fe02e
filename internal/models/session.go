package models

import "time"

// Session is a completed productivity session (PostgreSQL)
type Session struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          string    `json:"user_id" gorm:"size:128;index"`
	Title           string    `json:"title" gorm:"size:120"`
	Tag             string    `json:"tag" gorm:"size:40;index"` // deep-work, reading, exercise, ...
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateSessionRequest defines the request body for recording a session
type CreateSessionRequest struct {
	Title           string    `json:"title" validate:"required,min=1,max=120"`
	Tag             string    `json:"tag" validate:"omitempty,max=40"`
	StartedAt       time.Time `json:"started_at" validate:"required"`
	EndedAt         time.Time `json:"ended_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
}
