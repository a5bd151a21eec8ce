package board

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrBoardNotFound = fmt.Errorf("board %w", apperr.ErrNotFound)
var ErrMemberNotFound = fmt.Errorf("board member %w", apperr.ErrNotFound)

type Repository interface {
	Reader
	CreateBoard(ctx context.Context, b Board) (Board, error)
	ListBoardsForUser(ctx context.Context, userId string) ([]Board, error)
	RenameBoard(ctx context.Context, boardId string, name string) (bool, error)
	// UpsertMember adds userId to the board or changes its role.
	UpsertMember(ctx context.Context, boardId string, userId string, role Role) error
	RemoveMember(ctx context.Context, boardId string, userId string) (bool, error)
	// DeleteBoard removes the board document and its membership only.
	DeleteBoard(ctx context.Context, boardId string) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) CreateBoard(ctx context.Context, b Board) (Board, error) {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `INSERT INTO boards (id, name, owner_id, created_at) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, query, b.Id, b.Name, b.OwnerId, b.CreatedAt); err != nil {
			return fmt.Errorf("could not insert board: %w", err)
		}
		for _, memberId := range b.MemberIds {
			var role *string
			if memberRole, ok := b.MemberRoles[memberId]; ok && memberId != b.OwnerId {
				s := string(memberRole)
				role = &s
			}
			memberQuery := `INSERT INTO board_members (board_id, user_id, role) VALUES ($1, $2, $3)`
			if _, err := tx.Exec(ctx, memberQuery, b.Id, memberId, role); err != nil {
				return fmt.Errorf("could not insert board member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Errorf("failed to create board: %v", err)
		return Board{}, apperr.FromStore(err)
	}
	return b, nil
}

func (r *RepositoryImpl) GetBoard(ctx context.Context, boardId string) (Board, error) {
	query := `SELECT b.id, b.name, b.owner_id, b.created_at, m.user_id, m.role
			  FROM boards b
			  LEFT JOIN board_members m ON m.board_id = b.id
			  WHERE b.id = $1
			  ORDER BY m.user_id`
	rows, err := r.db.Query(ctx, query, boardId)
	if err != nil {
		log.Errorf("could not query board %s: %v", boardId, err)
		return Board{}, apperr.FromStore(err)
	}
	boards, err := scanBoards(rows)
	if err != nil {
		return Board{}, apperr.FromStore(err)
	}
	if len(boards) == 0 {
		return Board{}, ErrBoardNotFound
	}
	return boards[0], nil
}

func (r *RepositoryImpl) ListBoardsForUser(ctx context.Context, userId string) ([]Board, error) {
	query := `SELECT b.id, b.name, b.owner_id, b.created_at, m.user_id, m.role
			  FROM boards b
			  LEFT JOIN board_members m ON m.board_id = b.id
			  WHERE b.owner_id = $1 OR b.id IN (SELECT board_id FROM board_members WHERE user_id = $1)
			  ORDER BY b.created_at, b.id, m.user_id`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		log.Errorf("could not list boards for user %s: %v", userId, err)
		return nil, apperr.FromStore(err)
	}
	boards, err := scanBoards(rows)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	return boards, nil
}

// scanBoards folds board x member rows into boards, keeping row order.
func scanBoards(rows pgx.Rows) ([]Board, error) {
	defer rows.Close()

	var boards []Board
	index := map[string]int{}
	for rows.Next() {
		var (
			b        Board
			memberId sql.NullString
			role     sql.NullString
		)
		if err := rows.Scan(&b.Id, &b.Name, &b.OwnerId, &b.CreatedAt, &memberId, &role); err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		idx, seen := index[b.Id]
		if !seen {
			b.MemberRoles = map[string]Role{}
			boards = append(boards, b)
			idx = len(boards) - 1
			index[b.Id] = idx
		}
		if !memberId.Valid {
			continue
		}
		boards[idx].MemberIds = append(boards[idx].MemberIds, memberId.String)
		if role.Valid {
			boards[idx].MemberRoles[memberId.String] = Role(role.String)
		}
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return boards, nil
}

func (r *RepositoryImpl) RenameBoard(ctx context.Context, boardId string, name string) (bool, error) {
	result, err := r.db.Exec(ctx, `UPDATE boards SET name = $1 WHERE id = $2`, name, boardId)
	if err != nil {
		log.Errorf("could not rename board: %v", err)
		return false, apperr.FromStore(err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) UpsertMember(ctx context.Context, boardId string, userId string, role Role) error {
	query := `INSERT INTO board_members (board_id, user_id, role) VALUES ($1, $2, $3)
			  ON CONFLICT (board_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.db.Exec(ctx, query, boardId, userId, string(role))
	if err != nil {
		log.Errorf("could not upsert board member: %v", err)
		return apperr.FromStore(err)
	}
	return nil
}

func (r *RepositoryImpl) RemoveMember(ctx context.Context, boardId string, userId string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM board_members WHERE board_id = $1 AND user_id = $2`, boardId, userId)
	if err != nil {
		log.Errorf("could not remove board member: %v", err)
		return false, apperr.FromStore(err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) DeleteBoard(ctx context.Context, boardId string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM boards WHERE id = $1`, boardId)
	if err != nil {
		log.Errorf("could not delete board: %v", err)
		return false, apperr.FromStore(err)
	}
	return result.RowsAffected() == 1, nil
}
