package domain

import "time"

type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// LedgerEntry is an append-only record of point movement: escrow
// reserves at ingestion (debit) and awards at settlement (credit).
type LedgerEntry struct {
	ID          int64
	UserID      *int64
	TaskID      *int64
	Amount      int64
	EntryType   EntryType
	Description string
	CreatedAt   time.Time
}
