package repositories

import (
	"fmt"

	"github.com/focusloop/backend/internal/models"
	"gorm.io/gorm"
)

// SessionRepository defines the interface for productivity session operations
type SessionRepository interface {
	CreateSession(session *models.Session) error
	GetSessionByID(id uint) (*models.Session, error)
	GetSessionsByUser(userID string, page, limit int) ([]models.Session, int64, error)
	DeleteSession(id uint, userID string) error
	GetTotalMinutes(userID string) (int64, error)
}

// PostgresSessionRepository implements SessionRepository for PostgreSQL
type PostgresSessionRepository struct {
	db *gorm.DB
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository
func NewPostgresSessionRepository(db *gorm.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) CreateSession(session *models.Session) error {
	return r.db.Create(session).Error
}

func (r *PostgresSessionRepository) GetSessionByID(id uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *PostgresSessionRepository) GetSessionsByUser(userID string, page, limit int) ([]models.Session, int64, error) {
	var sessions []models.Session
	var total int64

	r.db.Model(&models.Session{}).Where("user_id = ?", userID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where("user_id = ?", userID).
		Order("started_at DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error

	return sessions, total, err
}

func (r *PostgresSessionRepository) DeleteSession(id uint, userID string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Session{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session not found")
	}
	return nil
}

func (r *PostgresSessionRepository) GetTotalMinutes(userID string) (int64, error) {
	var total int64
	err := r.db.Model(&models.Session{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&total).Error
	return total, err
}
