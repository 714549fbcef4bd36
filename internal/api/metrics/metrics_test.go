package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecore/order-marketplace/internal/core/domain"
)

func TestRecorder_Handle(t *testing.T) {
	ctx := context.Background()
	r := Recorder{}

	created := testutil.ToFloat64(OrdersCreatedTotal.WithLabelValues("static"))
	toReview := testutil.ToFloat64(OrderTransitionsTotal.WithLabelValues("in_progress", "review"))
	revenue := testutil.ToFloat64(CompletedBudgetTotal)
	messages := testutil.ToFloat64(MessagesPostedTotal)
	withdrawn := testutil.ToFloat64(OrdersWithdrawnTotal)

	events := []domain.OrderEvent{
		{Type: domain.EventOrderCreated, ProjectType: domain.ProjectStatic},
		{Type: domain.EventStatusChanged, From: domain.StatusInProgress, To: domain.StatusReview},
		{Type: domain.EventStatusChanged, From: domain.StatusReview, To: domain.StatusCompleted, Budget: 1200},
		{Type: domain.EventMessagePosted},
		{Type: domain.EventOrderWithdrawn},
	}
	for _, ev := range events {
		require.NoError(t, r.Handle(ctx, ev))
	}

	assert.Equal(t, created+1, testutil.ToFloat64(OrdersCreatedTotal.WithLabelValues("static")))
	assert.Equal(t, toReview+1, testutil.ToFloat64(OrderTransitionsTotal.WithLabelValues("in_progress", "review")))
	assert.Equal(t, revenue+1200, testutil.ToFloat64(CompletedBudgetTotal))
	assert.Equal(t, messages+1, testutil.ToFloat64(MessagesPostedTotal))
	assert.Equal(t, withdrawn+1, testutil.ToFloat64(OrdersWithdrawnTotal))
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context) (*domain.Snapshot, error) {
	return domain.NewSnapshot(), nil
}
func (f failingStore) Save(context.Context, *domain.Snapshot) error { return f.err }

func TestInstrumentStore_CountsFailuresByKind(t *testing.T) {
	ctx := context.Background()
	pending := testutil.ToFloat64(SnapshotSaveFailuresTotal.WithLabelValues("sync_pending"))
	hard := testutil.ToFloat64(SnapshotSaveFailuresTotal.WithLabelValues("persistence"))

	require.NoError(t, InstrumentStore(failingStore{}).Save(ctx, domain.NewSnapshot()))
	remote := fmt.Errorf("%w: %w", domain.ErrSyncPending, errors.New("timeout"))
	assert.ErrorIs(t, InstrumentStore(failingStore{err: remote}).Save(ctx, domain.NewSnapshot()), domain.ErrSyncPending)
	assert.Error(t, InstrumentStore(failingStore{err: errors.New("disk full")}).Save(ctx, domain.NewSnapshot()))

	assert.Equal(t, pending+1, testutil.ToFloat64(SnapshotSaveFailuresTotal.WithLabelValues("sync_pending")))
	assert.Equal(t, hard+1, testutil.ToFloat64(SnapshotSaveFailuresTotal.WithLabelValues("persistence")))
}
