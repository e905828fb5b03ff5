package models

import "time"

// Request type identifiers used as form-type variants.
const (
	// RequestTypeGroupAccommodation is a group booking of 10+ rooms.
	RequestTypeGroupAccommodation = "Group Accommodation"
	// RequestTypeIndividualAccommodation is a booking of 1-9 rooms.
	RequestTypeIndividualAccommodation = "Individual Accommodation"
	// RequestTypeEventWithRooms is an event that includes accommodation.
	RequestTypeEventWithRooms = "Event with Rooms"
	// RequestTypeEventWithoutRooms is an event without accommodation.
	RequestTypeEventWithoutRooms = "Event without Rooms"
	// RequestTypeSeriesGroup is a group booking over multiple date ranges.
	RequestTypeSeriesGroup = "Series Group"
)

// Request is a booking or event request raised against an account.
type Request struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RequestType        string `gorm:"type:varchar(30);not null"`            // Request variant.
	AccountID          uint64 `gorm:"not null;index"`                       // Owning account.
	ConfirmationNumber string `gorm:"type:varchar(50);uniqueIndex;default:null"` // Unique confirmation code.

	CheckInDate  *time.Time `gorm:"type:date;index"` // Arrival date.
	CheckOutDate *time.Time `gorm:"type:date"`       // Departure date.
	Nights       uint       `gorm:"not null;default:0"` // Calculated night count.
	MealPlan     string     `gorm:"type:varchar(2);not null;default:'RO'"` // Meal plan code.

	Status                  string  `gorm:"type:varchar(20);not null;default:'Draft'"` // Lifecycle status.
	CancellationReason      string  `gorm:"type:text"`                                 // Free-form cancellation reason.
	CancellationReasonFixedID *uint64 `gorm:"index"`                                   // Predefined cancellation reason.

	TotalCost     *float64 `gorm:"type:decimal(10,2);not null;default:0"` // Calculated total cost.
	DepositAmount *float64 `gorm:"type:decimal(10,2);not null;default:0"` // Deposit received.
	PaidAmount    *float64 `gorm:"type:decimal(10,2);not null;default:0"` // Amount paid so far.

	AgreementFile string `gorm:"type:varchar(255)"` // Stored agreement file reference.
	Notes         string `gorm:"type:text"`         // Free-form notes.

	Account                 Account             `gorm:"foreignKey:AccountID"`                 // Account relation.
	CancellationReasonFixed *CancellationReason `gorm:"foreignKey:CancellationReasonFixedID"` // Fixed reason relation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
