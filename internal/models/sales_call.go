package models

import "time"

// SalesCall records a sales visit to an account.
type SalesCall struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AccountID uint64    `gorm:"not null;index"`      // Visited account.
	VisitDate time.Time `gorm:"type:date;not null;index"` // Date of the visit.
	City      string    `gorm:"type:varchar(100)"`   // Visit city.
	Address   string    `gorm:"type:text"`           // Visit address.

	MeetingSubject    string `gorm:"type:varchar(50)"`                            // Subject of the meeting.
	BusinessPotential string `gorm:"type:varchar(10);not null;default:'Unknown'"` // Estimated potential.

	NextSteps     string `gorm:"type:text"` // Planned next steps.
	DetailedNotes string `gorm:"type:text"` // Detailed meeting notes.

	FollowUpRequired  bool       `gorm:"not null;default:false"` // Whether a follow-up is needed.
	FollowUpDate      *time.Time `gorm:"type:date"`              // When to follow up.
	FollowUpCompleted bool       `gorm:"not null;default:false"` // Whether the follow-up happened.

	Account Account `gorm:"foreignKey:AccountID"` // Account relation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
