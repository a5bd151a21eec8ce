package savings

import (
	"context"
	"errors"
	"fmt"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrGoalNotFound = fmt.Errorf("savings goal %w", apperr.ErrNotFound)

type Repository interface {
	CreateGoal(ctx context.Context, g Goal) (Goal, error)
	GetGoal(ctx context.Context, boardId string, id string) (Goal, error)
	ListGoals(ctx context.Context, boardId string) ([]Goal, error)
	// UpdateGoal changes name and target. The current amount is lowered to a smaller target.
	UpdateGoal(ctx context.Context, g Goal) (Goal, error)
	// AdjustAmount adds delta to the current amount, clamped to [0, target].
	AdjustAmount(ctx context.Context, boardId string, id string, delta decimal.Decimal) (Goal, error)
	DeleteGoal(ctx context.Context, boardId string, id string) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const goalColumns = `id, board_id, name, target_amount, current_amount, created_at`

func (r *RepositoryImpl) CreateGoal(ctx context.Context, g Goal) (Goal, error) {
	query := `INSERT INTO savings_goals (` + goalColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query, g.Id, g.BoardId, g.Name, g.TargetAmount, g.CurrentAmount, g.CreatedAt)
	if err != nil {
		log.Errorf("could not insert savings goal: %v", err)
		return Goal{}, apperr.FromStore(err)
	}
	return g, nil
}

func (r *RepositoryImpl) GetGoal(ctx context.Context, boardId string, id string) (Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE board_id = $1 AND id = $2`
	return scanGoal(r.db.QueryRow(ctx, query, boardId, id))
}

func (r *RepositoryImpl) ListGoals(ctx context.Context, boardId string) ([]Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE board_id = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, boardId)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromStore(err)
	}
	return goals, nil
}

func (r *RepositoryImpl) UpdateGoal(ctx context.Context, g Goal) (Goal, error) {
	query := `UPDATE savings_goals
			  SET name = $3, target_amount = $4, current_amount = LEAST(current_amount, $4)
			  WHERE board_id = $1 AND id = $2
			  RETURNING ` + goalColumns
	return scanGoal(r.db.QueryRow(ctx, query, g.BoardId, g.Id, g.Name, g.TargetAmount))
}

func (r *RepositoryImpl) AdjustAmount(ctx context.Context, boardId string, id string, delta decimal.Decimal) (Goal, error) {
	query := `UPDATE savings_goals
			  SET current_amount = LEAST(target_amount, GREATEST(0, current_amount + $3))
			  WHERE board_id = $1 AND id = $2
			  RETURNING ` + goalColumns
	return scanGoal(r.db.QueryRow(ctx, query, boardId, id, delta))
}

func (r *RepositoryImpl) DeleteGoal(ctx context.Context, boardId string, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM savings_goals WHERE board_id = $1 AND id = $2`, boardId, id)
	if err != nil {
		return false, apperr.FromStore(err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanGoal(row pgx.Row) (Goal, error) {
	var g Goal
	err := row.Scan(&g.Id, &g.BoardId, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Goal{}, ErrGoalNotFound
		}
		log.Errorf("failed to read savings goal: %v", err)
		return Goal{}, apperr.FromStore(err)
	}
	return g, nil
}
