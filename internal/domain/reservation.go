package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID        string            `json:"id"`
	Type      ReservationType   `json:"type"`
	Status    ReservationStatus `json:"status"`
	QuoteID   string            `json:"quote_id"`
	UserID    string            `json:"user_id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ServiceDetail is a row of a quote detail table (room, airport, ...) or of a
// reservation_<type> table. ReservationID is empty for quote-side rows.
type ServiceDetail struct {
	ID            string     `json:"id"`
	ReservationID string     `json:"reservation_id,omitempty"`
	Kind          Kind       `json:"kind"`
	Facets        []string   `json:"facets"`
	PriceCode     string     `json:"price_code"`
	UsageDate     *time.Time `json:"usage_date,omitempty"`
	Quantity      int        `json:"quantity"`
	UnitPrice     int64      `json:"unit_price"`
	TotalPrice    int64      `json:"total_price"`
	Note          string     `json:"note,omitempty"`
}

type ReservationBundle struct {
	Reservation Reservation     `json:"reservation"`
	Details     []ServiceDetail `json:"details"`
}

type ReservationSummary struct {
	Reservation Reservation `json:"reservation"`
	UserName    string      `json:"user_name"`
	QuoteTitle  string      `json:"quote_title"`
	DetailCount int         `json:"detail_count"`
	TotalPrice  int64       `json:"total_price"`
}

type ReservationFilter struct {
	Status ReservationStatus
	Type   ReservationType
	Limit  int
	Offset int
}

type ConfirmationLog struct {
	ID         string    `json:"id"`
	QuoteID    string    `json:"quote_id"`
	ManagerID  string    `json:"manager_id"`
	DocumentNo string    `json:"document_no"`
	Method     string    `json:"method"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CanTransition reports whether a reservation may move from s to next.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	switch s {
	case ReservationStatusPending:
		return next == ReservationStatusConfirmed || next == ReservationStatusCancelled
	case ReservationStatusConfirmed:
		return next == ReservationStatusCancelled
	}
	return false
}
