package bill

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bill struct {
	Id         string
	BoardId    string
	Title      string
	Amount     decimal.Decimal
	DueDate    time.Time // calendar day, midnight UTC
	CategoryId string
	Notes      string
	// Paid is true exactly when one transaction linked to this bill exists on the board.
	Paid bool
	// Payer fields are set only while Paid.
	PaidByUserId      string
	PaidByDisplayName string
	// Provenance of bills copied from another board.
	IsSharedCopy    bool
	OriginalBoardId string
	OriginalBillId  string
	SharedByUserId  string
	CreatedAt       time.Time
}

type ViolationKind string

const (
	// MissingTransaction: the bill is paid but nothing is linked to it.
	MissingTransaction ViolationKind = "missing_transaction"
	// StaleTransaction: the bill is unpaid but transactions are still linked to it.
	StaleTransaction ViolationKind = "stale_transaction"
	// DuplicateTransactions: the bill is paid and more than one transaction is linked.
	DuplicateTransactions ViolationKind = "duplicate_transactions"
	// OrphanedTransaction: a transaction links to a bill that no longer exists.
	OrphanedTransaction ViolationKind = "orphaned_transaction"
)

// Violation is a disagreement between a bill's paid flag and its linked transactions.
type Violation struct {
	BoardId        string
	BillId         string
	Kind           ViolationKind
	TransactionIds []string
}

// ShareResult is the outcome of copying a bill to one target board.
type ShareResult struct {
	BoardId string
	// BillId is the id of the copy, empty when Err is set.
	BillId string
	Err    error
}

func (b Bill) sharedCopy(targetBoardId string, copyId string, sharedBy string, now time.Time) Bill {
	return Bill{
		Id:              copyId,
		BoardId:         targetBoardId,
		Title:           b.Title,
		Amount:          b.Amount,
		DueDate:         b.DueDate,
		CategoryId:      b.CategoryId,
		Notes:           b.Notes,
		Paid:            false,
		IsSharedCopy:    true,
		OriginalBoardId: b.BoardId,
		OriginalBillId:  b.Id,
		SharedByUserId:  sharedBy,
		CreatedAt:       now,
	}
}
