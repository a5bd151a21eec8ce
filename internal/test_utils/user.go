package test_utils

import (
	"context"

	"github.com/boardledger/boardledger/pkg/user"
)

// AsUser returns a context acting as the given identity-provider user.
func AsUser(id string, displayName string) context.Context {
	return user.WithUser(context.Background(), user.User{Id: id, DisplayName: displayName})
}
