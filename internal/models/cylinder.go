package models

import "time"

// CylinderTracking is the per-customer cylinder counter record, created
// lazily on the first cylinder sale. Invariant at all times:
// cylinders_outstanding == cylinders_delivered - cylinders_returned.
type CylinderTracking struct {
	CustomerID           int       `json:"customer_id"`
	CylindersDelivered   int       `json:"cylinders_delivered"`
	CylindersReturned    int       `json:"cylinders_returned"`
	CylindersOutstanding int       `json:"cylinders_outstanding"`
	LastUpdate           time.Time `json:"last_update"`
	Notes                string    `json:"notes"`
}

type ReturnEventStatus string

const (
	ReturnCompleted ReturnEventStatus = "completed"
	ReturnReset     ReturnEventStatus = "reset"
)

// CylinderReturnEvent is append-only history: one row per return and per
// tracking reset. CylindersOutstanding is the snapshot after the event.
type CylinderReturnEvent struct {
	ID                   int               `json:"id"`
	CustomerID           int               `json:"customer_id"`
	CylindersReturned    int               `json:"cylinders_returned"`
	CylindersOutstanding int               `json:"cylinders_outstanding"`
	Status               ReturnEventStatus `json:"status"`
	Notes                string            `json:"notes"`
	Date                 time.Time         `json:"date"`
}

// RecordReturnRequest represents the request body for recording a return
type RecordReturnRequest struct {
	CylindersReturned int    `json:"cylinders_returned"`
	Notes             string `json:"notes"`
}
