package models

import "time"

// Agreement is a rate agreement signed with an account.
type Agreement struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AccountID uint64 `gorm:"not null;index"`            // Owning account.
	RateType  string `gorm:"type:varchar(20);not null"` // Rate agreement type.

	StartDate      time.Time `gorm:"type:date;not null"` // Agreement validity start.
	EndDate        time.Time `gorm:"type:date;not null"` // Agreement validity end.
	ReturnDeadline time.Time `gorm:"type:date;not null"` // Deadline for signed return.

	Status        string `gorm:"type:varchar(10);not null;default:'Draft'"` // Lifecycle status.
	AgreementFile string `gorm:"type:varchar(255)"`                         // Stored file reference.
	Notes         string `gorm:"type:text"`                                 // Free-form notes.

	Account Account `gorm:"foreignKey:AccountID"` // Account relation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
