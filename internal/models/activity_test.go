package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	m, err := ParseMetadata(ActivitySteps, json.RawMessage(`{"steps":12000,"source":"watch"}`))
	require.NoError(t, err)
	assert.Equal(t, StepsMetadata{Steps: 12000, Source: "watch"}, m)

	m, err = ParseMetadata(ActivityTrainingCompletion, json.RawMessage(`{"moduleId":"nutrition-1","moduleNumber":8,"totalModules":8}`))
	require.NoError(t, err)
	training, ok := m.(TrainingMetadata)
	require.True(t, ok)
	assert.True(t, training.IsFinalModule())

	m, err = ParseMetadata(ActivityFoodEntry, nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = ParseMetadata("sleep", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownActivityType)

	_, err = ParseMetadata(ActivitySteps, json.RawMessage(`{"steps":"many"}`))
	assert.Error(t, err)
}

func TestEncodeDecodeMetadata(t *testing.T) {
	raw, err := EncodeMetadata(FoodEntryMetadata{MealType: "dinner", Calories: 700})
	require.NoError(t, err)

	m, err := DecodeMetadata(ActivityFoodEntry, raw)
	require.NoError(t, err)
	assert.Equal(t, FoodEntryMetadata{MealType: "dinner", Calories: 700}, m)

	_, err = DecodeMetadata(ActivitySteps, raw)
	assert.ErrorIs(t, err, ErrMetadataMismatch)

	raw, err = EncodeMetadata(nil)
	require.NoError(t, err)
	m, err = DecodeMetadata(ActivitySteps, raw)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCheckMetadata(t *testing.T) {
	assert.NoError(t, CheckMetadata(ActivitySteps, nil))
	assert.NoError(t, CheckMetadata(ActivityGroupInteraction, InteractionMetadata{Kind: InteractionCheer}))
	assert.ErrorIs(t, CheckMetadata(ActivitySteps, FoodEntryMetadata{}), ErrMetadataMismatch)
	assert.ErrorIs(t, CheckMetadata("", nil), ErrUnknownActivityType)
}

func TestUserRole_CanSponsor(t *testing.T) {
	assert.True(t, UserRoleParticipant.CanSponsor())
	assert.True(t, UserRoleSuperAdmin.CanSponsor())
	assert.False(t, UserRoleGuest.CanSponsor())
	assert.False(t, UserRole("").CanSponsor())
}

func TestNotificationPreferences_Defaults(t *testing.T) {
	p := DefaultNotificationPreferences(uuid.New(), uuid.New())
	assert.True(t, p.Allows(NotifyNewMessage))
	assert.False(t, p.Allows(NotifyWeeklySummary))
	assert.False(t, p.Allows("bogus"))
	assert.False(t, p.QuietHoursEnabled)
	assert.Equal(t, "22:00", p.QuietStart)
	assert.Equal(t, "07:00", p.QuietEnd)
	assert.True(t, p.PushEnabled)
}
