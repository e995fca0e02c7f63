package memory

import (
	"context"
	"testing"
	"time"

	"github.com/coderi421/mvc/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s := NewStore(time.Minute)
	ctx := context.Background()

	_, err := s.Get(ctx, "abc")
	assert.Equal(t, session.ErrSessionNotFound, err)
	assert.Equal(t, session.ErrSessionNotFound, s.Refresh(ctx, "abc"))

	sess, err := s.Generate(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", sess.ID())

	require.NoError(t, sess.Set(ctx, "name", "Tom"))
	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Same(t, sess, got)
	val, err := got.Get(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "Tom", val)

	require.NoError(t, got.Delete(ctx, "name"))
	_, err = got.Get(ctx, "name")
	assert.Equal(t, session.ErrKeyNotFound, err)

	require.NoError(t, s.Refresh(ctx, "abc"))
	require.NoError(t, s.Remove(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.Equal(t, session.ErrSessionNotFound, err)
}

func TestStore_Expiration(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	ctx := context.Background()
	_, err := s.Generate(ctx, "abc")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := s.Get(ctx, "abc")
		return err == session.ErrSessionNotFound
	}, time.Second, 10*time.Millisecond)
}
