package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivitySteps              ActivityType = "steps"
	ActivityFoodEntry          ActivityType = "food_entry"
	ActivityTrainingCompletion ActivityType = "training_completion"
	ActivityGroupInteraction   ActivityType = "group_interaction"
)

// AllActivityTypes lists every activity type in a stable order.
var AllActivityTypes = []ActivityType{
	ActivitySteps,
	ActivityFoodEntry,
	ActivityTrainingCompletion,
	ActivityGroupInteraction,
}

func (t ActivityType) Valid() bool {
	switch t {
	case ActivitySteps, ActivityFoodEntry, ActivityTrainingCompletion, ActivityGroupInteraction:
		return true
	}
	return false
}

// DateLayout is the calendar-day key used for activity dates.
const DateLayout = "2006-01-02"

// DateKey formats t as a calendar-day key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

var (
	ErrUnknownActivityType = errors.New("unknown activity type")
	ErrMetadataMismatch    = errors.New("metadata does not match activity type")
)

// ActivityMetadata is implemented by exactly one payload type per ActivityType.
type ActivityMetadata interface {
	ActivityType() ActivityType
}

type StepsMetadata struct {
	Steps  int    `json:"steps"`
	Source string `json:"source,omitempty"`
}

func (StepsMetadata) ActivityType() ActivityType { return ActivitySteps }

type FoodEntryMetadata struct {
	MealType    string `json:"mealType,omitempty"`
	Calories    int    `json:"calories,omitempty"`
	Description string `json:"description,omitempty"`
}

func (FoodEntryMetadata) ActivityType() ActivityType { return ActivityFoodEntry }

type TrainingMetadata struct {
	ModuleID     string `json:"moduleId"`
	ModuleNumber int    `json:"moduleNumber,omitempty"`
	TotalModules int    `json:"totalModules,omitempty"`
}

func (TrainingMetadata) ActivityType() ActivityType { return ActivityTrainingCompletion }

// IsFinalModule reports whether this completion finishes the curriculum.
func (m TrainingMetadata) IsFinalModule() bool {
	return m.TotalModules > 0 && m.ModuleNumber >= m.TotalModules
}

type InteractionKind string

const (
	InteractionMessage  InteractionKind = "message"
	InteractionReaction InteractionKind = "reaction"
	InteractionComment  InteractionKind = "comment"
	InteractionCheer    InteractionKind = "cheer"
)

type InteractionMetadata struct {
	Kind     InteractionKind `json:"kind"`
	TargetID *uuid.UUID      `json:"targetId,omitempty"`
}

func (InteractionMetadata) ActivityType() ActivityType { return ActivityGroupInteraction }

type metadataEnvelope struct {
	Type ActivityType    `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EncodeMetadata serializes a payload together with its type tag.
func EncodeMetadata(m ActivityMetadata) (datatypes.JSON, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	raw, err := json.Marshal(metadataEnvelope{Type: m.ActivityType(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal metadata envelope: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// DecodeMetadata restores the payload stored for an activity of type t.
// A nil payload decodes to nil without error.
func DecodeMetadata(t ActivityType, raw datatypes.JSON) (ActivityMetadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var env metadataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal metadata envelope: %w", err)
	}
	if env.Type != t {
		return nil, fmt.Errorf("%w: stored %q, row %q", ErrMetadataMismatch, env.Type, t)
	}

	var m ActivityMetadata
	switch t {
	case ActivitySteps:
		var v StepsMetadata
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		m = v
	case ActivityFoodEntry:
		var v FoodEntryMetadata
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		m = v
	case ActivityTrainingCompletion:
		var v TrainingMetadata
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		m = v
	case ActivityGroupInteraction:
		var v InteractionMetadata
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		m = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivityType, t)
	}
	return m, nil
}

// CheckMetadata verifies that m may be attached to an activity of type t.
func CheckMetadata(t ActivityType, m ActivityMetadata) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActivityType, t)
	}
	if m != nil && m.ActivityType() != t {
		return fmt.Errorf("%w: payload %q, activity %q", ErrMetadataMismatch, m.ActivityType(), t)
	}
	return nil
}

// UserActivity is one entry of the per-user raw activity log.
type UserActivity struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID      `json:"userId" gorm:"type:uuid;not null;index:idx_user_activity_date"`
	GroupID      *uuid.UUID     `json:"groupId" gorm:"type:uuid;index"`
	Type         ActivityType   `json:"type" gorm:"not null"`
	ActivityDate string         `json:"activityDate" gorm:"size:10;not null;index:idx_user_activity_date"`
	Metadata     datatypes.JSON `json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (a *UserActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *UserActivity) Payload() (ActivityMetadata, error) {
	return DecodeMetadata(a.Type, a.Metadata)
}

type ActivitySource string

const (
	SourceManual ActivitySource = "manual"
	SourceDevice ActivitySource = "device"
	SourceSystem ActivitySource = "system"
)

// MemberActivityEntry is the group-scoped activity log used for rollups.
type MemberActivityEntry struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	GroupID      uuid.UUID      `json:"groupId" gorm:"type:uuid;not null;index:idx_member_entry"`
	UserID       uuid.UUID      `json:"userId" gorm:"type:uuid;not null;index:idx_member_entry"`
	Type         ActivityType   `json:"type" gorm:"not null"`
	Value        float64        `json:"value"`
	Source       ActivitySource `json:"source" gorm:"not null;default:'manual'"`
	ActivityDate string         `json:"activityDate" gorm:"size:10;not null;index"`
	Metadata     datatypes.JSON `json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (e *MemberActivityEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *MemberActivityEntry) Payload() (ActivityMetadata, error) {
	return DecodeMetadata(e.Type, e.Metadata)
}

// Activity DTOs
type TrackActivityRequest struct {
	Type     ActivityType    `json:"type"`
	GroupID  *uuid.UUID      `json:"groupId"`
	Metadata json.RawMessage `json:"metadata"`
}

type LogMemberActivityRequest struct {
	Type     ActivityType    `json:"type"`
	Value    float64         `json:"value"`
	Source   ActivitySource  `json:"source"`
	Metadata json.RawMessage `json:"metadata"`
}

// ParseMetadata decodes an untagged request payload into the variant for t.
func ParseMetadata(t ActivityType, raw json.RawMessage) (ActivityMetadata, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivityType, t)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return DecodeMetadata(t, wrapEnvelope(t, raw))
}

func wrapEnvelope(t ActivityType, raw json.RawMessage) datatypes.JSON {
	out, _ := json.Marshal(metadataEnvelope{Type: t, Data: raw})
	return datatypes.JSON(out)
}
