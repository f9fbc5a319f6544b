package textsql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/textsql/logging"
)

func TestTaskGuard_RefusesWhileBusy(t *testing.T) {
	t.Parallel()

	g := NewTaskGuard(logging.Discard())
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- g.Do(ctx, TaskIngest, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.True(t, g.Busy())
	ran := false
	err := g.Do(ctx, TaskQuery, func(context.Context) error {
		ran = true
		return nil
	})
	assert.True(t, errors.Is(err, ErrBusy), "got %v", err)
	assert.False(t, ran)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first job did not finish")
	}

	assert.False(t, g.Busy())
	require.NoError(t, g.Do(ctx, TaskQuery, func(context.Context) error { return nil }))
}

func TestTaskGuard_ReleasesOnError(t *testing.T) {
	t.Parallel()

	g := NewTaskGuard(nil)
	boom := errors.New("boom")

	err := g.Do(context.Background(), TaskIngest, func(context.Context) error { return boom })
	assert.Equal(t, boom, err)
	assert.False(t, g.Busy())
}

func TestTaskGuard_ReleasesOnPanic(t *testing.T) {
	t.Parallel()

	g := NewTaskGuard(logging.Discard())
	func() {
		defer func() {
			assert.NotNil(t, recover())
		}()
		_ = g.Do(context.Background(), TaskQuery, func(context.Context) error {
			panic("query blew up")
		})
	}()
	assert.False(t, g.Busy())
}

func TestTaskGuard_CanceledContext(t *testing.T) {
	t.Parallel()

	g := NewTaskGuard(logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := g.Do(ctx, TaskQuery, func(context.Context) error {
		ran = true
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, ran)
	assert.False(t, g.Busy())
}
