package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	var processed atomic.Int64

	err := Pool(context.Background(), 2, items, func(_ context.Context, item int) error {
		processed.Add(1)
		return nil
	})

	require.NoError(t, err)
	assert.EqualValues(t, 5, processed.Load())
}

func TestPool_PropagatesFirstError(t *testing.T) {
	items := []int{1, 2, 3}
	err := Pool(context.Background(), 3, items, func(_ context.Context, item int) error {
		if item == 2 {
			return errors.New("boom")
		}
		return nil
	})
	require.Error(t, err)
}

func TestPoolCollect_PreservesInputOrder(t *testing.T) {
	items := []int{10, 20, 30, 40}
	results, errs := PoolCollect(context.Background(), 2, items, func(_ context.Context, item int) (int, error) {
		return item * 2, nil
	})

	require.Equal(t, []int{20, 40, 60, 80}, results)
	for _, e := range errs {
		assert.NoError(t, e)
	}
}

func TestPoolCollect_IsolatesPerItemErrors(t *testing.T) {
	items := []int{1, 2, 3}
	results, errs := PoolCollect(context.Background(), 3, items, func(_ context.Context, item int) (int, error) {
		if item == 2 {
			return 0, errors.New("bad item")
		}
		return item, nil
	})

	assert.Equal(t, []int{1, 0, 3}, results)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.NoError(t, errs[2])
}
