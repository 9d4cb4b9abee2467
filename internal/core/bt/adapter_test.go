package bt

import (
	"context"
	"testing"

	gobt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusConversion(t *testing.T) {
	for _, st := range []Status{StatusSuccess, StatusFailure, StatusRunning} {
		assert.Equal(t, st, FromGoStatus(ToGoStatus(st)))
	}
	assert.Equal(t, gobt.Failure, ToGoStatus(Status(42)))
	assert.Equal(t, StatusFailure, FromGoStatus(gobt.Status(0)))
}

func TestRunAsGoNode(t *testing.T) {
	b := NewBuilder()
	seq := b.Sequence("seq")
	attach(t, b, seq, b.Task("wait", NewWait(2)))
	run := NewRun(mustBuild(t, b, seq))

	other := 0
	root := gobt.New(gobt.Sequence,
		run.Node(context.Background()),
		gobt.New(func([]gobt.Node) (gobt.Status, error) {
			other++
			return gobt.Success, nil
		}),
	)

	st, err := root.Tick()
	require.NoError(t, err)
	assert.Equal(t, gobt.Running, st)
	assert.Zero(t, other)

	st, err = root.Tick()
	require.NoError(t, err)
	assert.Equal(t, gobt.Success, st)
	assert.Equal(t, 1, other)
}

func TestRunAsGoNodeReportsErrors(t *testing.T) {
	b := NewBuilder()
	seq := b.Sequence("seq")
	attach(t, b, seq, b.Task("a", fixed(StatusSuccess)))
	run := NewRun(mustBuild(t, b, seq))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st, err := run.Node(ctx).Tick()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobt.Failure, st)
}

func TestNodeTask(t *testing.T) {
	calls := 0
	node := gobt.New(func([]gobt.Node) (gobt.Status, error) {
		calls++
		if calls < 2 {
			return gobt.Running, nil
		}
		return gobt.Success, nil
	})

	b := NewBuilder()
	seq := b.Sequence("seq")
	attach(t, b, seq, b.Task("legacy", NodeTask(node)))
	run := NewRun(mustBuild(t, b, seq))

	st, err := run.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st)
	st, err = run.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st)
}
