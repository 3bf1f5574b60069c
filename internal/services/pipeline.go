package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnold/wellness-api/internal/cache"
	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/metrics"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PipelineDeps struct {
	Store       repository.Store
	Log         *zap.Logger
	Clock       Clock
	Metrics     *metrics.Metrics
	Pusher      Pusher
	Broadcaster Broadcaster
	Cache       *cache.AnalyticsCache
	Sinks       []events.Sink
}

// Pipeline holds every service sharing one dispatcher, with the post-commit
// reactions registered.
type Pipeline struct {
	Dispatcher    *Dispatcher
	Tracker       *ActivityTracker
	Groups        *GroupRegistry
	Aggregator    *MemberActivityAggregator
	Achievements  *AchievementEngine
	Notifications *NotificationService
	Feed          *FeedService
	Messages      *MessageService
	Analytics     *AnalyticsService

	store repository.Store
	cache *cache.AnalyticsCache
	log   *zap.Logger
}

func NewPipeline(d PipelineDeps) *Pipeline {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = SystemClock
	}

	dispatcher := NewDispatcher(d.Log.Named("events"), d.Metrics)
	for _, s := range d.Sinks {
		dispatcher.AddSink(s)
	}
	tracker := NewActivityTracker(d.Store, d.Log.Named("activity"), d.Clock, d.Metrics)
	aggregator := NewMemberActivityAggregator(d.Store, dispatcher, d.Log.Named("engagement"), d.Clock, d.Metrics)
	tracker.members = aggregator

	p := &Pipeline{
		Dispatcher:    dispatcher,
		Tracker:       tracker,
		Groups:        NewGroupRegistry(d.Store, tracker, dispatcher, d.Log.Named("groups"), d.Clock, d.Metrics),
		Aggregator:    aggregator,
		Achievements:  NewAchievementEngine(d.Store, dispatcher, d.Log.Named("achievements"), d.Clock, d.Metrics),
		Notifications: NewNotificationService(d.Store, d.Pusher, d.Log.Named("notifications"), d.Clock, d.Metrics),
		Feed:          NewFeedService(d.Store, d.Broadcaster, d.Log.Named("feed"), d.Clock),
		Messages:      NewMessageService(d.Store, dispatcher, d.Log.Named("messages"), d.Clock),
		Analytics:     NewAnalyticsService(d.Store, aggregator, d.Cache, d.Log.Named("analytics"), d.Clock),
		store:         d.Store,
		cache:         d.Cache,
		log:           d.Log,
	}
	p.register()
	return p
}

func (p *Pipeline) register() {
	d := p.Dispatcher

	d.On(events.MemberJoined, "system-message", p.postJoinMessage)
	d.On(events.MemberJoined, "feed", p.recordJoin)
	d.On(events.MemberJoined, "notify", p.notifyJoin)

	d.On(events.MemberLeft, "feed", p.recordDeparture)
	d.On(events.MemberLeft, "notify", p.notifyDeparture)
	d.On(events.MemberRemoved, "feed", p.recordDeparture)
	d.On(events.MemberRemoved, "notify", p.notifyDeparture)

	d.On(events.OwnershipTransfer, "notify", p.notifyOwnership)
	d.On(events.GroupDeleted, "notify", p.notifyDeleted)
	d.On(events.GroupUpdated, "notify", p.notifyUpdated)

	d.On(events.ActivityLogged, "feed", p.recordActivity)
	d.On(events.ActivityLogged, "achievements", p.checkAchievements)

	d.On(events.AchievementEarned, "feed", p.recordAchievement)
	d.On(events.AchievementEarned, "system-message", p.postAchievementMessage)
	d.On(events.AchievementEarned, "notify", p.notifyAchievement)

	d.On(events.MessagePosted, "notify", p.notifyMessage)
	d.On(events.MessagePosted, "interaction", p.logInteraction)

	d.On(events.InvitationCreated, "notify", p.notifyInvitee)

	if p.cache != nil {
		for _, t := range []events.Type{
			events.MemberJoined,
			events.MemberLeft,
			events.MemberRemoved,
			events.GroupUpdated,
			events.GroupDeleted,
			events.ActivityLogged,
			events.AchievementEarned,
			events.MessagePosted,
		} {
			d.On(t, "analytics-cache", p.invalidateAnalytics)
		}
	}
}

var errPayload = errors.New("unexpected event payload")

func payloadError(e events.Event) error {
	return fmt.Errorf("%w for %s: %T", errPayload, e.Type, e.Payload)
}

// fanoutErr logs the delivery counts of a successful broadcast.
func (p *Pipeline) fanoutErr(e events.Event, r FanoutResult, err error) error {
	if err != nil {
		return err
	}
	p.log.Debug("notifications sent",
		zap.String("event", string(e.Type)),
		zap.Int("sent", r.Sent),
		zap.Int("suppressed", r.Suppressed),
	)
	return nil
}

func (p *Pipeline) postJoinMessage(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.MemberPayload)
	if !ok {
		return payloadError(e)
	}
	_, err := p.Messages.PostSystemMessage(ctx, e.GroupID, fmt.Sprintf("%s joined the group! 👋", pl.DisplayName))
	return err
}

func (p *Pipeline) recordJoin(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.MemberPayload)
	if !ok {
		return payloadError(e)
	}
	return p.Feed.Record(ctx, &models.GroupFeedActivity{
		GroupID:   e.GroupID,
		UserID:    e.UserID,
		Type:      models.FeedMemberJoined,
		Title:     pl.DisplayName + " joined the group",
		CreatedAt: e.OccurredAt,
	})
}

func (p *Pipeline) notifyJoin(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.MemberPayload)
	if !ok {
		return payloadError(e)
	}
	group, err := p.store.Groups().Get(ctx, e.GroupID)
	if err != nil {
		return err
	}
	if !group.Settings.NotifyOnJoin {
		return nil
	}
	r, err := p.Notifications.NotifyMemberJoined(ctx, e.GroupID, pl.GroupName, e.UserID, pl.DisplayName)
	return p.fanoutErr(e, r, err)
}

func (p *Pipeline) recordDeparture(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.MemberPayload)
	if !ok {
		return payloadError(e)
	}
	title := pl.DisplayName + " left the group"
	if e.Type == events.MemberRemoved {
		title = pl.DisplayName + " was removed from the group"
	}
	return p.Feed.Record(ctx, &models.GroupFeedActivity{
		GroupID:   e.GroupID,
		UserID:    e.UserID,
		Type:      models.FeedMemberLeft,
		Title:     title,
		CreatedAt: e.OccurredAt,
	})
}

func (p *Pipeline) notifyDeparture(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.MemberPayload)
	if !ok {
		return payloadError(e)
	}
	r, err := p.Notifications.NotifyMemberLeft(ctx, e.GroupID, pl.GroupName, e.UserID, pl.DisplayName, e.Type == events.MemberRemoved)
	return p.fanoutErr(e, r, err)
}

func (p *Pipeline) notifyOwnership(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.OwnershipPayload)
	if !ok {
		return payloadError(e)
	}
	name := displayName(ctx, p.store, pl.NewSponsorID)
	r, err := p.Notifications.SendGroupNotification(ctx, e.GroupID, models.NotifyOwnershipTransferred,
		"New group sponsor",
		fmt.Sprintf("%s is now the sponsor of %s", name, pl.GroupName),
		NotificationOptions{Priority: models.PriorityHigh, ActionURL: groupURL(e.GroupID)},
		pl.PreviousSponsorID,
	)
	return p.fanoutErr(e, r, err)
}

// notifyDeleted reaches the former members directly since the membership
// rows are already gone.
func (p *Pipeline) notifyDeleted(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.GroupPayload)
	if !ok {
		return payloadError(e)
	}
	var errs []error
	for _, id := range pl.MemberIDs {
		if id == pl.ActorID {
			continue
		}
		_, err := p.Notifications.SendNotification(ctx, id, e.GroupID, models.NotifyGroupDeleted,
			"Group deleted",
			fmt.Sprintf("%s was deleted by its sponsor", pl.GroupName),
			NotificationOptions{Priority: models.PriorityHigh, Persistent: true},
		)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) notifyUpdated(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.GroupPayload)
	if !ok {
		return payloadError(e)
	}
	message := pl.GroupName + " settings were updated"
	if pl.Status == models.GroupInactive {
		message = pl.GroupName + " is no longer accepting new members"
	}
	r, err := p.Notifications.SendGroupNotification(ctx, e.GroupID, models.NotifyGroupUpdated,
		"Group updated", message,
		NotificationOptions{Priority: models.PriorityLow, ActionURL: groupURL(e.GroupID)},
		pl.ActorID,
	)
	return p.fanoutErr(e, r, err)
}

func (p *Pipeline) recordActivity(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.ActivityPayload)
	if !ok {
		return payloadError(e)
	}
	entries, err := p.Feed.RecordActivity(ctx, e.GroupID, e.UserID, pl)
	if err != nil {
		return err
	}
	var errs []error
	for _, entry := range entries {
		if !entry.Type.IsMilestoneType() {
			continue
		}
		r, err := p.Notifications.NotifyMilestoneReached(ctx, e.GroupID, e.UserID, pl.DisplayName, entry.Title)
		if err := p.fanoutErr(e, r, err); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) checkAchievements(ctx context.Context, e events.Event) error {
	result, err := p.Achievements.CheckUserAchievements(ctx, e.UserID, e.GroupID)
	if err != nil {
		return err
	}
	return result.SideEffects.Err()
}

func (p *Pipeline) recordAchievement(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.AchievementPayload)
	if !ok {
		return payloadError(e)
	}
	return p.Feed.Record(ctx, &models.GroupFeedActivity{
		GroupID:     e.GroupID,
		UserID:      e.UserID,
		Type:        models.FeedAchievementEarned,
		Title:       fmt.Sprintf("%s earned %s", pl.DisplayName, pl.Achievement.Title),
		Description: pl.Achievement.Description,
		CreatedAt:   e.OccurredAt,
	})
}

func (p *Pipeline) postAchievementMessage(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.AchievementPayload)
	if !ok {
		return payloadError(e)
	}
	_, err := p.Messages.PostSystemMessage(ctx, e.GroupID,
		fmt.Sprintf("%s %s earned the %s achievement!", pl.Achievement.Icon, pl.DisplayName, pl.Achievement.Title))
	return err
}

func (p *Pipeline) notifyAchievement(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.AchievementPayload)
	if !ok {
		return payloadError(e)
	}
	broadcast := true
	if group, err := p.store.Groups().Get(ctx, e.GroupID); err == nil {
		broadcast = group.Settings.NotifyOnAchievement
	}
	r, err := p.Notifications.NotifyAchievementEarned(ctx, e.GroupID, e.UserID, pl.DisplayName, pl.Achievement, broadcast)
	return p.fanoutErr(e, r, err)
}

func (p *Pipeline) notifyMessage(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.MessagePayload)
	if !ok {
		return payloadError(e)
	}
	r, err := p.Notifications.NotifyNewMessage(ctx, e.GroupID, e.UserID, pl.SenderName, pl.Body)
	return p.fanoutErr(e, r, err)
}

// logInteraction counts a chat message toward the sender's engagement.
func (p *Pipeline) logInteraction(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.MessagePayload)
	if !ok {
		return payloadError(e)
	}
	target := pl.MessageID
	result, err := p.Aggregator.LogMemberActivity(ctx, e.GroupID, e.UserID, models.ActivityGroupInteraction, 1, models.SourceSystem,
		models.InteractionMetadata{Kind: models.InteractionMessage, TargetID: &target})
	if err != nil {
		return err
	}
	return result.SideEffects.Err()
}

func (p *Pipeline) notifyInvitee(ctx context.Context, e events.Event) error {
	pl, ok := e.Payload.(events.InvitationPayload)
	if !ok {
		return payloadError(e)
	}
	if pl.Invitation.InviteeID == nil {
		return nil
	}
	_, err := p.Notifications.SendNotification(ctx, *pl.Invitation.InviteeID, e.GroupID, models.NotifyGroupInvitation,
		"You're invited to "+pl.GroupName,
		fmt.Sprintf("%s invited you. Join with code %s", displayName(ctx, p.store, pl.Invitation.InviterID), pl.Invitation.InviteCode),
		NotificationOptions{
			ExpiresAt: pl.Invitation.ExpiresAt,
			ActionURL: "/join/" + pl.Invitation.InviteCode,
			Metadata:  map[string]interface{}{"invitationId": pl.Invitation.ID},
		},
	)
	return err
}

func (p *Pipeline) invalidateAnalytics(ctx context.Context, e events.Event) error {
	if e.GroupID == uuid.Nil {
		return nil
	}
	return p.cache.Invalidate(ctx, e.GroupID.String())
}
