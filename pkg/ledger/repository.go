package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrTransactionNotFound = fmt.Errorf("transaction %w", apperr.ErrNotFound)

type Repository interface {
	Create(ctx context.Context, t Transaction) (Transaction, error)
	Get(ctx context.Context, boardId string, id string) (Transaction, error)
	// Update rewrites the editable fields; LinkedBillId is never changed.
	Update(ctx context.Context, t Transaction) (bool, error)
	List(ctx context.Context, boardId string, from time.Time, to time.Time) ([]Transaction, error)
	// SumByType totals income and expenses dated within [from, to], both days inclusive.
	SumByType(ctx context.Context, boardId string, from time.Time, to time.Time) (Totals, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const transactionColumns = `id, board_id, title, amount, tx_date, category_id, tx_type, linked_bill_id, created_by, created_at`

func (r *RepositoryImpl) Create(ctx context.Context, t Transaction) (Transaction, error) {
	if err := InsertTransaction(ctx, r.db, t); err != nil {
		log.Errorf("could not create transaction: %v", err)
		return Transaction{}, apperr.FromStore(err)
	}
	return t, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, boardId string, id string) (Transaction, error) {
	t, err := SelectTransaction(ctx, r.db, boardId, id, false)
	if err != nil && !errors.Is(err, ErrTransactionNotFound) {
		log.Errorf("could not get transaction %s: %v", id, err)
		return Transaction{}, apperr.FromStore(err)
	}
	return t, err
}

func (r *RepositoryImpl) Update(ctx context.Context, t Transaction) (bool, error) {
	query := `UPDATE transactions SET title = $1, amount = $2, tx_date = $3, category_id = $4, tx_type = $5
			  WHERE board_id = $6 AND id = $7`
	result, err := r.db.Exec(ctx, query, t.Title, t.Amount, t.Date, t.CategoryId, string(t.Type), t.BoardId, t.Id)
	if err != nil {
		log.Errorf("could not update transaction %s: %v", t.Id, err)
		return false, apperr.FromStore(err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) List(ctx context.Context, boardId string, from time.Time, to time.Time) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
			  WHERE board_id = $1 AND tx_date BETWEEN $2 AND $3
			  ORDER BY tx_date, created_at, id`
	rows, err := r.db.Query(ctx, query, boardId, from, to)
	if err != nil {
		log.Errorf("could not list transactions: %v", err)
		return nil, apperr.FromStore(err)
	}
	transactions, err := scanTransactions(rows)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	return transactions, nil
}

func (r *RepositoryImpl) SumByType(ctx context.Context, boardId string, from time.Time, to time.Time) (Totals, error) {
	query := `SELECT tx_type, COALESCE(SUM(amount), 0)
			  FROM transactions
			  WHERE board_id = $1 AND tx_date BETWEEN $2 AND $3
			  GROUP BY tx_type`
	rows, err := r.db.Query(ctx, query, boardId, from, to)
	if err != nil {
		log.Errorf("could not aggregate transactions: %v", err)
		return Totals{}, apperr.FromStore(err)
	}
	defer rows.Close()

	totals := Totals{Income: decimal.Zero, Expenses: decimal.Zero}
	for rows.Next() {
		var txType string
		var sum decimal.Decimal
		if err := rows.Scan(&txType, &sum); err != nil {
			return Totals{}, fmt.Errorf("error scanning row: %w", err)
		}
		switch TransactionType(txType) {
		case Income:
			totals.Income = sum
		case Expense:
			totals.Expenses = sum
		}
	}
	if err := rows.Err(); err != nil {
		return Totals{}, apperr.FromStore(err)
	}
	return totals, nil
}

// The functions below run on any Queryer so that the bill linker can combine them
// with bill writes inside one database transaction.

func InsertTransaction(ctx context.Context, q database.Queryer, t Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)`
	_, err := q.Exec(ctx, query,
		t.Id, t.BoardId, t.Title, t.Amount, t.Date, t.CategoryId, string(t.Type), t.LinkedBillId, t.CreatedBy, t.CreatedAt)
	return err
}

// SelectTransaction loads one transaction. With forUpdate the row stays locked until
// the surrounding database transaction ends.
func SelectTransaction(ctx context.Context, q database.Queryer, boardId string, id string, forUpdate bool) (Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE board_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTransaction(q.QueryRow(ctx, query, boardId, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, err
}

// SelectLinked returns the transactions linked to billId, oldest first.
func SelectLinked(ctx context.Context, q database.Queryer, boardId string, billId string) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
			  WHERE board_id = $1 AND linked_bill_id = $2
			  ORDER BY created_at, id
			  FOR UPDATE`
	rows, err := q.Query(ctx, query, boardId, billId)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

// SelectAllLinked returns every transaction of the board that carries a bill link.
func SelectAllLinked(ctx context.Context, q database.Queryer, boardId string) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
			  WHERE board_id = $1 AND linked_bill_id IS NOT NULL
			  ORDER BY created_at, id`
	rows, err := q.Query(ctx, query, boardId)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func DeleteTransactions(ctx context.Context, q database.Queryer, boardId string, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := q.Exec(ctx, `DELETE FROM transactions WHERE board_id = $1 AND id = ANY($2)`, boardId, ids)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var txType string
	var linkedBillId *string
	err := row.Scan(&t.Id, &t.BoardId, &t.Title, &t.Amount, &t.Date, &t.CategoryId, &txType, &linkedBillId, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	t.Type = TransactionType(txType)
	if linkedBillId != nil {
		t.LinkedBillId = *linkedBillId
	}
	return t, nil
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return transactions, nil
}
