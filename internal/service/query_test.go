package service

import (
	"context"
	"testing"

	"mnist-lab/internal/logger"
	"mnist-lab/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSortFallback(t *testing.T) {
	st := newTestStore(t)
	registry := NewRegistry(st, logger.NewNop())
	query := NewQueryService(st, logger.NewNop())
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		req := validRequest(name)
		_, err := registry.Create(ctx, req)
		require.NoError(t, err)
	}

	// 非法 sort/order 等价于 created_at/desc，而不是报错
	fallback, err := query.List(ctx, "bogus", "bogus")
	require.NoError(t, err)
	expected, err := query.List(ctx, "created_at", "desc")
	require.NoError(t, err)
	assert.Equal(t, expected, fallback)
	require.Len(t, fallback, 3)

	byName, err := query.List(ctx, "name", "asc")
	require.NoError(t, err)
	assert.Equal(t, "a", byName[0].Name)
	assert.Equal(t, "c", byName[2].Name)
}

func TestDetailNotFound(t *testing.T) {
	query := NewQueryService(newTestStore(t), logger.NewNop())

	_, err := query.Detail(context.Background(), 42)
	var nerr *NotFoundError
	assert.ErrorAs(t, err, &nerr)
}

func TestDetailIncludesOrderedHistory(t *testing.T) {
	st := newTestStore(t)
	registry := NewRegistry(st, logger.NewNop())
	query := NewQueryService(st, logger.NewNop())
	ctx := context.Background()

	exp, err := registry.Create(ctx, validRequest("t1"))
	require.NoError(t, err)

	detail, err := query.Detail(ctx, exp.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.History)
	assert.Empty(t, detail.History)

	_, err = st.TryMarkRunning(ctx, exp.ID)
	require.NoError(t, err)
	require.NoError(t, st.RecordEpoch(ctx, exp.ID, model.HistoryRecord{Epoch: 1, ValAcc: 0.5}))
	require.NoError(t, st.RecordEpoch(ctx, exp.ID, model.HistoryRecord{Epoch: 2, ValAcc: 0.8}))

	detail, err = query.Detail(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, exp.ID, detail.ID)
	require.Len(t, detail.History, 2)
	assert.Equal(t, 1, detail.History[0].Epoch)
	assert.Equal(t, 2, detail.History[1].Epoch)
}
