package xctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	id   uint64
	name string
}

func (f *fakeTask) TaskID() uint64   { return f.id }
func (f *fakeTask) TaskName() string { return f.name }

func TestWithTask(t *testing.T) {
	ft := &fakeTask{id: 7, name: "worker"}
	ctx, err := WithTask(context.Background(), ft)
	require.NoError(t, err)

	got, ok := Task(ctx)
	require.True(t, ok)
	assert.Same(t, ft, got)

	got, err = RequireTask(ctx)
	require.NoError(t, err)
	assert.Same(t, ft, got)
}

func TestWithTaskNilContext(t *testing.T) {
	//nolint:staticcheck // 测试 nil ctx
	_, err := WithTask(nil, &fakeTask{})
	assert.ErrorIs(t, err, ErrNilContext)

	//nolint:staticcheck // 测试 nil ctx
	_, err = RequireTask(nil)
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestTaskMissing(t *testing.T) {
	_, ok := Task(context.Background())
	assert.False(t, ok)

	_, err := RequireTask(context.Background())
	assert.ErrorIs(t, err, ErrMissingTask)
}

func TestAppendTaskAttrs(t *testing.T) {
	ctx, err := WithTask(context.Background(), &fakeTask{id: 42, name: "net"})
	require.NoError(t, err)

	attrs := AppendTaskAttrs(nil, ctx)
	require.Len(t, attrs, 2)
	assert.Equal(t, KeyTaskID, attrs[0].Key)
	assert.Equal(t, "42", attrs[0].Value.String())
	assert.Equal(t, KeyTaskName, attrs[1].Key)
	assert.Equal(t, "net", attrs[1].Value.String())

	ctx, err = WithTask(context.Background(), &fakeTask{id: 1})
	require.NoError(t, err)
	assert.Len(t, AppendTaskAttrs(nil, ctx), 1)

	assert.Empty(t, AppendTaskAttrs(nil, context.Background()))
}
