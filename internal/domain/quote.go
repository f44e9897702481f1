package domain

import "time"

type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusPending   QuoteStatus = "pending"
	QuoteStatusSubmitted QuoteStatus = "submitted"
	QuoteStatusApproved  QuoteStatus = "approved"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusConfirmed QuoteStatus = "confirmed"
	QuoteStatusPaid      QuoteStatus = "paid"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:     {QuoteStatusSubmitted, QuoteStatusPending},
	QuoteStatusSubmitted: {QuoteStatusPending, QuoteStatusApproved, QuoteStatusRejected, QuoteStatusConfirmed},
	QuoteStatusPending:   {QuoteStatusApproved, QuoteStatusRejected, QuoteStatusConfirmed},
	QuoteStatusApproved:  {QuoteStatusPending, QuoteStatusConfirmed, QuoteStatusRejected},
	QuoteStatusConfirmed: {QuoteStatusPaid},
}

// CanTransition reports whether a quote may move from s to next.
func (s QuoteStatus) CanTransition(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Quote struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Title       string      `json:"title"`
	Status      QuoteStatus `json:"status"`
	TotalPrice  int64       `json:"total_price"`
	ManagerNote string      `json:"manager_note,omitempty"`
	ConfirmedAt *time.Time  `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// QuoteItem is one priced line of a quote. ServiceRefID points at a row of the
// detail table named by ServiceType.
type QuoteItem struct {
	ID           string     `json:"id"`
	QuoteID      string     `json:"quote_id"`
	LineNo       int        `json:"line_no"`
	ServiceType  Kind       `json:"service_type"`
	ServiceRefID string     `json:"service_ref_id"`
	Quantity     int        `json:"quantity"`
	UnitPrice    int64      `json:"unit_price"`
	TotalPrice   int64      `json:"total_price"`
	UsageDate    *time.Time `json:"usage_date,omitempty"`
}

// QuoteLine is an item joined with the detail row it references. Detail is nil
// when the referenced row does not exist.
type QuoteLine struct {
	Item   QuoteItem      `json:"item"`
	Detail *ServiceDetail `json:"detail,omitempty"`
}

// QuoteBundle is the write model of a submitted quote and the read model of the quote page.
type QuoteBundle struct {
	Quote   Quote           `json:"quote"`
	Items   []QuoteItem     `json:"-"`
	Details []ServiceDetail `json:"-"`
	Lines   []QuoteLine     `json:"lines"`
	// Reservations is only filled on the quote page.
	Reservations []ReservationBundle `json:"reservations,omitempty"`
}

type QuoteSummary struct {
	Quote            Quote  `json:"quote"`
	UserName         string `json:"user_name"`
	UserEmail        string `json:"user_email"`
	ItemCount        int    `json:"item_count"`
	ReservationCount int    `json:"reservation_count"`
}

type QuoteFilter struct {
	Status QuoteStatus
	Limit  int
	Offset int
}
