package bill

import (
	"context"
	"errors"
	"fmt"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/database"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrBillNotFound = fmt.Errorf("bill %w", apperr.ErrNotFound)

// Repository spans bills and the transactions linked to them, so the linker can
// change both inside one WithTransaction call.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	CreateBill(ctx context.Context, b Bill) (Bill, error)
	GetBill(ctx context.Context, boardId string, id string) (Bill, error)
	// GetBillForUpdate locks the bill until the surrounding transaction ends.
	GetBillForUpdate(ctx context.Context, boardId string, id string) (Bill, error)
	// ListBills orders bills by due date.
	ListBills(ctx context.Context, boardId string, unpaidOnly bool) ([]Bill, error)
	// UpdateBill writes title, amount, due date, category and notes.
	UpdateBill(ctx context.Context, b Bill) (bool, error)
	SetPayment(ctx context.Context, boardId string, id string, paid bool, paidByUserId string, paidByDisplayName string) (bool, error)
	DeleteBill(ctx context.Context, boardId string, id string) (bool, error)

	CreateTransaction(ctx context.Context, t ledger.Transaction) error
	GetTransaction(ctx context.Context, boardId string, id string) (ledger.Transaction, error)
	// LinkedTransactions returns the transactions linked to billId, oldest first.
	LinkedTransactions(ctx context.Context, boardId string, billId string) ([]ledger.Transaction, error)
	AllLinkedTransactions(ctx context.Context, boardId string) ([]ledger.Transaction, error)
	DeleteTransactions(ctx context.Context, boardId string, ids ...string) (int64, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

// getQueryer returns the transaction when running inside WithTransaction, the pool otherwise.
func (r *repositoryImpl) getQueryer() database.Queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&repositoryImpl{db: r.db, tx: tx})
	})
	return apperr.FromStore(err)
}

const billColumns = `id, board_id, title, amount, due_date, category_id, notes, paid,
	paid_by_user_id, paid_by_display_name, is_shared_copy, original_board_id, original_bill_id,
	shared_by_user_id, created_at`

func (r *repositoryImpl) CreateBill(ctx context.Context, b Bill) (Bill, error) {
	query := `INSERT INTO bills (` + billColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11,
			          NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), $15)`
	_, err := r.getQueryer().Exec(ctx, query,
		b.Id, b.BoardId, b.Title, b.Amount, b.DueDate, b.CategoryId, b.Notes, b.Paid,
		b.PaidByUserId, b.PaidByDisplayName, b.IsSharedCopy, b.OriginalBoardId, b.OriginalBillId,
		b.SharedByUserId, b.CreatedAt)
	if err != nil {
		log.Errorf("could not create bill on board %s: %v", b.BoardId, err)
		return Bill{}, apperr.FromStore(err)
	}
	return b, nil
}

func (r *repositoryImpl) GetBill(ctx context.Context, boardId string, id string) (Bill, error) {
	return r.getBill(ctx, boardId, id, false)
}

func (r *repositoryImpl) GetBillForUpdate(ctx context.Context, boardId string, id string) (Bill, error) {
	return r.getBill(ctx, boardId, id, true)
}

func (r *repositoryImpl) getBill(ctx context.Context, boardId string, id string, forUpdate bool) (Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE board_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	b, err := scanBill(r.getQueryer().QueryRow(ctx, query, boardId, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrBillNotFound
	}
	if err != nil {
		log.Errorf("could not get bill %s: %v", id, err)
		return Bill{}, apperr.FromStore(err)
	}
	return b, nil
}

func (r *repositoryImpl) ListBills(ctx context.Context, boardId string, unpaidOnly bool) ([]Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills
			  WHERE board_id = $1 AND (NOT $2 OR NOT paid)
			  ORDER BY due_date, created_at, id`
	rows, err := r.getQueryer().Query(ctx, query, boardId, unpaidOnly)
	if err != nil {
		log.Errorf("could not list bills: %v", err)
		return nil, apperr.FromStore(err)
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			log.Errorf("error scanning row: %v", err)
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, apperr.FromStore(err)
	}
	return bills, nil
}

func (r *repositoryImpl) UpdateBill(ctx context.Context, b Bill) (bool, error) {
	query := `UPDATE bills SET title = $1, amount = $2, due_date = $3, category_id = $4, notes = $5
			  WHERE board_id = $6 AND id = $7`
	result, err := r.getQueryer().Exec(ctx, query, b.Title, b.Amount, b.DueDate, b.CategoryId, b.Notes, b.BoardId, b.Id)
	if err != nil {
		log.Errorf("could not update bill %s: %v", b.Id, err)
		return false, apperr.FromStore(err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *repositoryImpl) SetPayment(
	ctx context.Context,
	boardId string,
	id string,
	paid bool,
	paidByUserId string,
	paidByDisplayName string,
) (bool, error) {
	query := `UPDATE bills SET paid = $1, paid_by_user_id = NULLIF($2, ''), paid_by_display_name = NULLIF($3, '')
			  WHERE board_id = $4 AND id = $5`
	result, err := r.getQueryer().Exec(ctx, query, paid, paidByUserId, paidByDisplayName, boardId, id)
	if err != nil {
		log.Errorf("could not set payment of bill %s: %v", id, err)
		return false, apperr.FromStore(err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *repositoryImpl) DeleteBill(ctx context.Context, boardId string, id string) (bool, error) {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM bills WHERE board_id = $1 AND id = $2`, boardId, id)
	if err != nil {
		log.Errorf("could not delete bill %s: %v", id, err)
		return false, apperr.FromStore(err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *repositoryImpl) CreateTransaction(ctx context.Context, t ledger.Transaction) error {
	if err := ledger.InsertTransaction(ctx, r.getQueryer(), t); err != nil {
		log.Errorf("could not create linked transaction for bill %s: %v", t.LinkedBillId, err)
		return apperr.FromStore(err)
	}
	return nil
}

func (r *repositoryImpl) GetTransaction(ctx context.Context, boardId string, id string) (ledger.Transaction, error) {
	t, err := ledger.SelectTransaction(ctx, r.getQueryer(), boardId, id, false)
	if err != nil && !errors.Is(err, ledger.ErrTransactionNotFound) {
		log.Errorf("could not get transaction %s: %v", id, err)
		return ledger.Transaction{}, apperr.FromStore(err)
	}
	return t, err
}

func (r *repositoryImpl) LinkedTransactions(ctx context.Context, boardId string, billId string) ([]ledger.Transaction, error) {
	transactions, err := ledger.SelectLinked(ctx, r.getQueryer(), boardId, billId)
	if err != nil {
		log.Errorf("could not get transactions linked to bill %s: %v", billId, err)
		return nil, apperr.FromStore(err)
	}
	return transactions, nil
}

func (r *repositoryImpl) AllLinkedTransactions(ctx context.Context, boardId string) ([]ledger.Transaction, error) {
	transactions, err := ledger.SelectAllLinked(ctx, r.getQueryer(), boardId)
	if err != nil {
		log.Errorf("could not get linked transactions of board %s: %v", boardId, err)
		return nil, apperr.FromStore(err)
	}
	return transactions, nil
}

func (r *repositoryImpl) DeleteTransactions(ctx context.Context, boardId string, ids ...string) (int64, error) {
	deleted, err := ledger.DeleteTransactions(ctx, r.getQueryer(), boardId, ids...)
	if err != nil {
		log.Errorf("could not delete transactions %v: %v", ids, err)
		return 0, apperr.FromStore(err)
	}
	return deleted, nil
}

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	var paidByUserId, paidByDisplayName, originalBoardId, originalBillId, sharedByUserId *string
	err := row.Scan(
		&b.Id,
		&b.BoardId,
		&b.Title,
		&b.Amount,
		&b.DueDate,
		&b.CategoryId,
		&b.Notes,
		&b.Paid,
		&paidByUserId,
		&paidByDisplayName,
		&b.IsSharedCopy,
		&originalBoardId,
		&originalBillId,
		&sharedByUserId,
		&b.CreatedAt,
	)
	if err != nil {
		return Bill{}, err
	}
	b.PaidByUserId = deref(paidByUserId)
	b.PaidByDisplayName = deref(paidByDisplayName)
	b.OriginalBoardId = deref(originalBoardId)
	b.OriginalBillId = deref(originalBillId)
	b.SharedByUserId = deref(sharedByUserId)
	return b, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
