package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a single paid subscription of one user to one service.
// A user may hold several overlapping subscriptions to the same service;
// the aggregation layer collapses those per month. Price is a monthly cost
// in the smallest whole currency unit.
type Subscription struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ServiceName string     `json:"service_name" db:"service_name"`
	Price       int        `json:"price" db:"price"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	StartDate   MonthDate  `json:"start_date" db:"start_date"`
	EndDate     *MonthDate `json:"end_date" db:"end_date"`
	CreatedAt   time.Time  `json:"-" db:"created_at"`
	UpdatedAt   time.Time  `json:"-" db:"updated_at"`
}
