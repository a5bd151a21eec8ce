package board

import (
	"context"
	"fmt"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/pkg/user"
)

// Reader loads a board without any authorization; callers resolve access themselves.
type Reader interface {
	GetBoard(ctx context.Context, boardId string) (Board, error)
}

// Access is the acting user's resolved standing on a board.
type Access struct {
	Board Board
	User  user.User
	Role  Role
}

func (a Access) CanMutate() bool {
	return CanMutate(a.Role)
}

// ResolveAccess loads boardId and resolves the role of the user in ctx.
// Users who are not members get ErrPermissionDenied.
func ResolveAccess(ctx context.Context, reader Reader, boardId string) (Access, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return Access{}, fmt.Errorf("failed to get current user: %w", err)
	}
	b, err := reader.GetBoard(ctx, boardId)
	if err != nil {
		return Access{}, err
	}
	role := ResolveRole(b, u.Id)
	if role == RoleNone {
		return Access{}, apperr.PermissionDenied("user %s is not a member of board %s", u.Id, boardId)
	}
	return Access{Board: b, User: u, Role: role}, nil
}

// RequireMutate is ResolveAccess for write operations: only owners and editors pass.
func RequireMutate(ctx context.Context, reader Reader, boardId string) (Access, error) {
	access, err := ResolveAccess(ctx, reader, boardId)
	if err != nil {
		return Access{}, err
	}
	if !access.CanMutate() {
		return Access{}, apperr.PermissionDenied("role %s cannot modify board %s", access.Role, boardId)
	}
	return access, nil
}

// RequireOwner passes only for the board owner.
func RequireOwner(ctx context.Context, reader Reader, boardId string) (Access, error) {
	access, err := ResolveAccess(ctx, reader, boardId)
	if err != nil {
		return Access{}, err
	}
	if access.Role != RoleOwner {
		return Access{}, apperr.PermissionDenied("only the owner can manage board %s", boardId)
	}
	return access, nil
}
