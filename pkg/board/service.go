package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	CreateBoard(ctx context.Context, name string) (Board, error)
	GetBoard(ctx context.Context, boardId string) (Board, error)
	ListBoards(ctx context.Context) ([]Board, error)
	RenameBoard(ctx context.Context, boardId string, name string) (Board, error)
	// SetMember adds userId to the board or changes its role. Owner only.
	SetMember(ctx context.Context, boardId string, userId string, role Role) (Board, error)
	// RemoveMember is allowed for the owner, or for members leaving on their own.
	RemoveMember(ctx context.Context, boardId string, userId string) (Board, error)
	DeleteBoard(ctx context.Context, boardId string) error
	CurrentRole(ctx context.Context, boardId string) (Role, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(repo Repository, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) CreateBoard(ctx context.Context, name string) (Board, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("failed to get current user: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Board{}, apperr.InvalidInput("board name is required")
	}
	b := Board{
		Id:          uuid.NewString(),
		Name:        name,
		OwnerId:     u.Id,
		MemberIds:   []string{u.Id},
		MemberRoles: map[string]Role{},
		CreatedAt:   s.clock.Now().UTC(),
	}
	created, err := s.repo.CreateBoard(ctx, b)
	if err != nil {
		return Board{}, err
	}
	log.Debugf("board %s created by %s", created.Id, u.Id)
	return created, nil
}

func (s *ServiceImpl) GetBoard(ctx context.Context, boardId string) (Board, error) {
	access, err := ResolveAccess(ctx, s.repo, boardId)
	if err != nil {
		return Board{}, err
	}
	return access.Board, nil
}

func (s *ServiceImpl) ListBoards(ctx context.Context) ([]Board, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ListBoardsForUser(ctx, userId)
}

func (s *ServiceImpl) RenameBoard(ctx context.Context, boardId string, name string) (Board, error) {
	access, err := RequireMutate(ctx, s.repo, boardId)
	if err != nil {
		return Board{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Board{}, apperr.InvalidInput("board name is required")
	}
	ok, err := s.repo.RenameBoard(ctx, boardId, name)
	if err != nil {
		return Board{}, err
	}
	if !ok {
		return Board{}, ErrBoardNotFound
	}
	s.publishChanged(ctx, boardId, access.User.Id)
	access.Board.Name = name
	return access.Board, nil
}

func (s *ServiceImpl) SetMember(ctx context.Context, boardId string, userId string, role Role) (Board, error) {
	access, err := RequireOwner(ctx, s.repo, boardId)
	if err != nil {
		return Board{}, err
	}
	if !role.assignable() {
		return Board{}, apperr.InvalidInput("role must be editor or viewer, got %q", role)
	}
	if userId == "" {
		return Board{}, apperr.InvalidInput("member id is required")
	}
	if userId == access.Board.OwnerId {
		return Board{}, apperr.InvalidInput("the owner's role cannot be changed")
	}
	if err := s.repo.UpsertMember(ctx, boardId, userId, role); err != nil {
		return Board{}, err
	}
	s.publishChanged(ctx, boardId, access.User.Id)
	return s.repo.GetBoard(ctx, boardId)
}

func (s *ServiceImpl) RemoveMember(ctx context.Context, boardId string, userId string) (Board, error) {
	access, err := ResolveAccess(ctx, s.repo, boardId)
	if err != nil {
		return Board{}, err
	}
	if userId == access.Board.OwnerId {
		return Board{}, apperr.InvalidInput("the owner cannot be removed from board %s", boardId)
	}
	leaving := userId == access.User.Id
	if access.Role != RoleOwner && !leaving {
		return Board{}, apperr.PermissionDenied("only the owner can remove other members of board %s", boardId)
	}
	removed, err := s.repo.RemoveMember(ctx, boardId, userId)
	if err != nil {
		return Board{}, err
	}
	if !removed {
		return Board{}, ErrMemberNotFound
	}
	s.publishChanged(ctx, boardId, access.User.Id)
	if leaving {
		return Board{}, nil
	}
	return s.repo.GetBoard(ctx, boardId)
}

func (s *ServiceImpl) DeleteBoard(ctx context.Context, boardId string) error {
	access, err := RequireOwner(ctx, s.repo, boardId)
	if err != nil {
		return err
	}
	deleted, err := s.repo.DeleteBoard(ctx, boardId)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBoardNotFound
	}
	// Transactions, bills, summaries and goals of the board are left in place.
	log.Infof("board %s deleted by %s; nested collections are not removed", boardId, access.User.Id)
	s.publishChanged(ctx, boardId, access.User.Id)
	return nil
}

func (s *ServiceImpl) CurrentRole(ctx context.Context, boardId string) (Role, error) {
	access, err := ResolveAccess(ctx, s.repo, boardId)
	if err != nil {
		return RoleNone, err
	}
	return access.Role, nil
}

func (s *ServiceImpl) publishChanged(ctx context.Context, boardId string, userId string) {
	s.eventBus.PublishCommitted(ctx, event_bus.BoardChangedType, event_bus.BoardChanged{BoardId: boardId, UserId: userId})
}
