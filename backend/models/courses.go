package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string    `gorm:"uniqueIndex;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Instructor  string    `gorm:"not null" json:"instructor"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Enrollment is one roster entry. The composite primary key makes the
// roster a set: a second insert for the same pair is a no-op.
type Enrollment struct {
	CourseID  string    `gorm:"type:varchar(36);primaryKey" json:"course_id"`
	UserID    string    `gorm:"type:varchar(36);primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
