package board

import (
	"context"
	"maps"
	"slices"
	"sync"
)

type RepositoryStub struct {
	mu     sync.RWMutex
	boards map[string]Board
	err    error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{boards: make(map[string]Board)}
}

func (s *RepositoryStub) CreateBoard(ctx context.Context, b Board) (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Board{}, s.err
	}
	s.boards[b.Id] = clone(b)
	return b, nil
}

func (s *RepositoryStub) GetBoard(ctx context.Context, boardId string) (Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return Board{}, s.err
	}
	b, ok := s.boards[boardId]
	if !ok {
		return Board{}, ErrBoardNotFound
	}
	return clone(b), nil
}

func (s *RepositoryStub) ListBoardsForUser(ctx context.Context, userId string) ([]Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []Board
	for _, b := range s.boards {
		if b.IsMember(userId) {
			result = append(result, clone(b))
		}
	}
	slices.SortFunc(result, func(a, b Board) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return result, nil
}

func (s *RepositoryStub) RenameBoard(ctx context.Context, boardId string, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardId]
	if !ok {
		return false, nil
	}
	b.Name = name
	s.boards[boardId] = b
	return true, nil
}

func (s *RepositoryStub) UpsertMember(ctx context.Context, boardId string, userId string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardId]
	if !ok {
		return ErrBoardNotFound
	}
	if !slices.Contains(b.MemberIds, userId) {
		b.MemberIds = append(b.MemberIds, userId)
	}
	b.MemberRoles[userId] = role
	s.boards[boardId] = b
	return nil
}

func (s *RepositoryStub) RemoveMember(ctx context.Context, boardId string, userId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardId]
	if !ok || !slices.Contains(b.MemberIds, userId) {
		return false, nil
	}
	b.MemberIds = slices.DeleteFunc(b.MemberIds, func(id string) bool { return id == userId })
	delete(b.MemberRoles, userId)
	s.boards[boardId] = b
	return true, nil
}

func (s *RepositoryStub) DeleteBoard(ctx context.Context, boardId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[boardId]; !ok {
		return false, nil
	}
	delete(s.boards, boardId)
	return true, nil
}

// Put stores b as is, bypassing the service (test setup helper).
func (s *RepositoryStub) Put(b Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.MemberRoles == nil {
		b.MemberRoles = map[string]Role{}
	}
	s.boards[b.Id] = clone(b)
}

// SetError makes every subsequent read and create fail with err.
func (s *RepositoryStub) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *RepositoryStub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = make(map[string]Board)
	s.err = nil
}

func clone(b Board) Board {
	b.MemberIds = slices.Clone(b.MemberIds)
	b.MemberRoles = maps.Clone(b.MemberRoles)
	if b.MemberRoles == nil {
		b.MemberRoles = map[string]Role{}
	}
	return b
}
