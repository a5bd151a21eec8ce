package event_bus

import "time"

const (
	TransactionChangedType EventType = "ledger.transaction.changed"
	BillPaidType           EventType = "bill.paid"
	BillUnpaidType         EventType = "bill.unpaid"
	BillChangedType        EventType = "bill.changed"
	BillDeletedType        EventType = "bill.deleted"
	BoardChangedType       EventType = "board.changed"
	SavingsGoalChangedType EventType = "savings.goal.changed"
)

// BoardScoped is implemented by every payload so subscribers can route by board.
type BoardScoped interface {
	Board() string
	// Actor is the id of the user whose action caused the event.
	Actor() string
}

// TransactionChanged is published after a transaction is created, updated or deleted.
// Days holds every calendar day whose month totals may have changed.
type TransactionChanged struct {
	BoardId       string
	TransactionId string
	UserId        string
	Days          []time.Time
}

func (e TransactionChanged) Board() string { return e.BoardId }
func (e TransactionChanged) Actor() string { return e.UserId }

type BillPaymentChanged struct {
	BoardId       string
	BillId        string
	TransactionId string
	UserId        string
	Paid          bool
}

func (e BillPaymentChanged) Board() string { return e.BoardId }
func (e BillPaymentChanged) Actor() string { return e.UserId }

type BillChanged struct {
	BoardId string
	BillId  string
	UserId  string
}

func (e BillChanged) Board() string { return e.BoardId }
func (e BillChanged) Actor() string { return e.UserId }

type BoardChanged struct {
	BoardId string
	UserId  string
}

func (e BoardChanged) Board() string { return e.BoardId }
func (e BoardChanged) Actor() string { return e.UserId }

type SavingsGoalChanged struct {
	BoardId string
	GoalId  string
	UserId  string
}

func (e SavingsGoalChanged) Board() string { return e.BoardId }
func (e SavingsGoalChanged) Actor() string { return e.UserId }
