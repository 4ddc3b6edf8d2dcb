package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateUser(ctx, &User{Username: "Bert", Password: "Ernie", Authorities: []string{"ROLE_USER"}}))
	err := store.CreateUser(ctx, &User{Username: "Bert"})
	assert.ErrorIs(t, err, ErrUserExists)

	user, err := store.GetUser(ctx, "Bert")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ernie", user.Password)
	assert.False(t, user.CreatedAt.IsZero())
	created := user.CreatedAt

	user.Authorities[0] = "changed"
	again, _ := store.GetUser(ctx, "Bert")
	assert.Equal(t, "ROLE_USER", again.Authorities[0])

	require.NoError(t, store.SaveUser(ctx, &User{Username: "Bert", Password: "Grover", Locked: true}))
	user, _ = store.GetUser(ctx, "Bert")
	assert.Equal(t, "Grover", user.Password)
	assert.Equal(t, created, user.CreatedAt)

	details, err := store.LoadUserByUsername(ctx, "Bert")
	require.NoError(t, err)
	assert.True(t, details.Locked)

	require.NoError(t, store.SaveUser(ctx, &User{Username: "Alice"}))
	names, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bert"}, names)

	require.NoError(t, store.DeleteUser(ctx, "Bert"))
	user, err = store.GetUser(ctx, "Bert")
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = store.LoadUserByUsername(ctx, "Bert")
	assert.ErrorIs(t, err, authn.ErrUserNotFound)

	assert.NoError(t, store.Ping(ctx))
	assert.NoError(t, store.Close(ctx))
}
