package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

func TestUpdateGroupStatusKeepsStoredReason(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	now := time.Now()
	items := []*entity.RequestItem{
		{RequestNumber: "REQ-00001", ItemOrder: 1, ItemName: "Cement OPC 53", Quantity: 100, Unit: "bag", SiteID: 1, Status: workflow.StatePending, Version: 1, CreatedBy: "eng-1", CreatedAt: now, UpdatedAt: now},
		{RequestNumber: "REQ-00001", ItemOrder: 2, ItemName: "Steel TMT 12mm", Quantity: 40, Unit: "kg", SiteID: 1, Status: workflow.StatePending, Version: 1, CreatedBy: "eng-1", CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, repo.CreateItems(ctx, items))

	n, err := repo.UpdateGroupStatus(ctx, "REQ-00001", workflow.StatePending, workflow.StateRecheck, "please fix the quantities")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	// resending carries no reason and must not blank the stored one
	n, err = repo.UpdateGroupStatus(ctx, "REQ-00001", workflow.StateRecheck, workflow.StatePending, "")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	group, err := repo.GetGroup(ctx, "REQ-00001")
	require.NoError(t, err)
	require.Len(t, group, 2)
	for _, item := range group {
		assert.Equal(t, workflow.StatePending, item.Status)
		assert.Equal(t, "please fix the quantities", item.RejectionReason)
	}
}
