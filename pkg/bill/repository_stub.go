package bill

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/boardledger/boardledger/pkg/ledger"
)

// RepositoryStub keeps bills and transactions in memory. WithTransaction restores the
// state from before fn when fn fails, and failures can be injected per operation.
type RepositoryStub struct {
	mu           sync.RWMutex
	bills        map[string]Bill
	transactions map[string]ledger.Transaction
	failOn       map[string]error // operation name -> error
	failBoards   map[string]error // board id -> error returned by CreateBill
	calls        map[string]int
}

func NewRepositoryStub() *RepositoryStub {
	s := &RepositoryStub{}
	s.Reset()
	return s
}

func (s *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	s.mu.Lock()
	bills := maps.Clone(s.bills)
	transactions := maps.Clone(s.transactions)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.bills = bills
		s.transactions = transactions
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *RepositoryStub) CreateBill(ctx context.Context, b Bill) (Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateBill"); err != nil {
		return Bill{}, err
	}
	if err := s.failBoards[b.BoardId]; err != nil {
		return Bill{}, err
	}
	s.bills[b.Id] = b
	return b, nil
}

func (s *RepositoryStub) GetBill(ctx context.Context, boardId string, id string) (Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetBill"); err != nil {
		return Bill{}, err
	}
	b, ok := s.bills[id]
	if !ok || b.BoardId != boardId {
		return Bill{}, ErrBillNotFound
	}
	return b, nil
}

func (s *RepositoryStub) GetBillForUpdate(ctx context.Context, boardId string, id string) (Bill, error) {
	return s.GetBill(ctx, boardId, id)
}

func (s *RepositoryStub) ListBills(ctx context.Context, boardId string, unpaidOnly bool) ([]Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListBills"); err != nil {
		return nil, err
	}
	var result []Bill
	for _, b := range s.bills {
		if b.BoardId == boardId && !(unpaidOnly && b.Paid) {
			result = append(result, b)
		}
	}
	slices.SortFunc(result, func(a, b Bill) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return strings.Compare(a.Id, b.Id)
	})
	return result, nil
}

func (s *RepositoryStub) UpdateBill(ctx context.Context, b Bill) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateBill"); err != nil {
		return false, err
	}
	existing, ok := s.bills[b.Id]
	if !ok || existing.BoardId != b.BoardId {
		return false, nil
	}
	existing.Title = b.Title
	existing.Amount = b.Amount
	existing.DueDate = b.DueDate
	existing.CategoryId = b.CategoryId
	existing.Notes = b.Notes
	s.bills[b.Id] = existing
	return true, nil
}

func (s *RepositoryStub) SetPayment(ctx context.Context, boardId string, id string, paid bool, paidByUserId string, paidByDisplayName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SetPayment"); err != nil {
		return false, err
	}
	b, ok := s.bills[id]
	if !ok || b.BoardId != boardId {
		return false, nil
	}
	b.Paid = paid
	b.PaidByUserId = paidByUserId
	b.PaidByDisplayName = paidByDisplayName
	s.bills[id] = b
	return true, nil
}

func (s *RepositoryStub) DeleteBill(ctx context.Context, boardId string, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteBill"); err != nil {
		return false, err
	}
	b, ok := s.bills[id]
	if !ok || b.BoardId != boardId {
		return false, nil
	}
	delete(s.bills, id)
	return true, nil
}

func (s *RepositoryStub) CreateTransaction(ctx context.Context, t ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateTransaction"); err != nil {
		return err
	}
	s.transactions[t.Id] = t
	return nil
}

func (s *RepositoryStub) GetTransaction(ctx context.Context, boardId string, id string) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetTransaction"); err != nil {
		return ledger.Transaction{}, err
	}
	t, ok := s.transactions[id]
	if !ok || t.BoardId != boardId {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return t, nil
}

func (s *RepositoryStub) LinkedTransactions(ctx context.Context, boardId string, billId string) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("LinkedTransactions"); err != nil {
		return nil, err
	}
	return s.filter(boardId, func(t ledger.Transaction) bool { return t.IsLinked() && t.LinkedBillId == billId }), nil
}

func (s *RepositoryStub) AllLinkedTransactions(ctx context.Context, boardId string) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AllLinkedTransactions"); err != nil {
		return nil, err
	}
	return s.filter(boardId, ledger.Transaction.IsLinked), nil
}

func (s *RepositoryStub) DeleteTransactions(ctx context.Context, boardId string, ids ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteTransactions"); err != nil {
		return 0, err
	}
	var deleted int64
	for _, id := range ids {
		if t, ok := s.transactions[id]; ok && t.BoardId == boardId {
			delete(s.transactions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *RepositoryStub) filter(boardId string, match func(ledger.Transaction) bool) []ledger.Transaction {
	var result []ledger.Transaction
	for _, t := range s.transactions {
		if t.BoardId == boardId && match(t) {
			result = append(result, t)
		}
	}
	slices.SortFunc(result, func(a, b ledger.Transaction) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Id, b.Id)
	})
	return result
}

func (s *RepositoryStub) fail(op string) error {
	s.calls[op]++
	return s.failOn[op]
}

// FailOn makes every later call of the named Repository method return err.
func (s *RepositoryStub) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[op] = err
}

// FailBoard makes CreateBill fail for bills of boardId.
func (s *RepositoryStub) FailBoard(boardId string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBoards[boardId] = err
}

// Calls returns how often the named method ran.
func (s *RepositoryStub) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

func (s *RepositoryStub) PutBill(b Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills[b.Id] = b
}

func (s *RepositoryStub) PutTransaction(t ledger.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.Id] = t
}

// Transactions returns every stored transaction of boardId.
func (s *RepositoryStub) Transactions(boardId string) []ledger.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(boardId, func(ledger.Transaction) bool { return true })
}

func (s *RepositoryStub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills = make(map[string]Bill)
	s.transactions = make(map[string]ledger.Transaction)
	s.failOn = make(map[string]error)
	s.failBoards = make(map[string]error)
	s.calls = make(map[string]int)
}
