// Package domain contains persistence models for the student registry.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// StudentStatus represents enrolment states.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "active"
	StudentStatusInactive StudentStatus = "inactive"
)

// Student represents an enrolled student.
type Student struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	AdmissionNumber string            `gorm:"type:text;not null;uniqueIndex:ux_students_admission_number" json:"admission_number"`
	FirstName       string            `gorm:"type:text;not null" json:"first_name"`
	LastName        string            `gorm:"type:text;not null" json:"last_name"`
	GuardianName    string            `gorm:"type:text" json:"guardian_name,omitempty"`
	PhoneNumber     string            `gorm:"type:text" json:"phone_number,omitempty"`
	EducationLevel  string            `gorm:"type:text" json:"education_level,omitempty"`
	Class           string            `gorm:"type:text" json:"class,omitempty"`
	Status          StudentStatus     `gorm:"type:text;not null;default:'active';index" json:"status"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Student) TableName() string { return "students" }
