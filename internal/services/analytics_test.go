package services

import (
	"context"
	"errors"
	"testing"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenGroups struct{ repository.GroupRepository }

func (brokenGroups) List(ctx context.Context) ([]models.Group, error) {
	return nil, errors.New("connection reset")
}

type brokenGroupStore struct{ repository.Store }

func (s brokenGroupStore) Groups() repository.GroupRepository {
	return brokenGroups{s.Store.Groups()}
}

func TestGetSystemOverview_CountsGroups(t *testing.T) {
	f := newFixture(t)
	g, _ := f.group(t)
	f.join(t, g, "Uma")

	out, err := f.p.Analytics.GetSystemOverview(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalGroups)
	assert.Equal(t, 1, out.ActiveGroups)
	assert.Equal(t, 2, out.TotalMembers)
	require.Len(t, out.Groups, 1)
	assert.Equal(t, g.ID, out.Groups[0].GroupID)
}

func TestGetSystemOverview_GroupListFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.group(t)

	a := NewAnalyticsService(brokenGroupStore{f.store}, f.p.Aggregator, nil, nil, f.clock.Now)
	out, err := a.GetSystemOverview(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, out.TotalGroups)
	assert.Empty(t, out.Groups)
	assert.NotNil(t, out.Groups)
	assert.Len(t, out.HealthBands, 3)
	assert.Equal(t, f.clock.Now(), out.GeneratedAt)
}
