package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-realtime/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type presenceFixture struct {
	service       *Presence
	users         *fakeUserRepo
	presenceRepo  *fakePresenceRepo
	notifications *fakeNotificationRepo
	registry      *fakeRegistry
	broadcaster   *fakeBroadcaster
}

func newPresenceFixture() *presenceFixture {
	users := &fakeUserRepo{users: map[string]*models.User{}}
	presenceRepo := &fakePresenceRepo{}
	notifications := &fakeNotificationRepo{}
	registry := &fakeRegistry{live: map[string]bool{}}
	broadcaster := &fakeBroadcaster{}

	return &presenceFixture{
		service:       NewPresence(users, presenceRepo, notifications, registry, broadcaster),
		users:         users,
		presenceRepo:  presenceRepo,
		notifications: notifications,
		registry:      registry,
		broadcaster:   broadcaster,
	}
}

func TestAnnounceOnlineNotifiesDirectConnections(t *testing.T) {
	f := newPresenceFixture()

	f.service.AnnounceOnline(context.Background(), "alice", "alice", []string{"bob", "charlie"})

	assert.Equal(t, models.StatusOnline, f.users.statusUpdates["alice"])
	assert.True(t, f.presenceRepo.online["alice"])

	require.Len(t, f.broadcaster.userEmits, 2)
	for i, recipient := range []string{"bob", "charlie"} {
		emit := f.broadcaster.userEmits[i]
		assert.Equal(t, recipient, emit.userID)
		assert.Equal(t, models.EventUserOnline, emit.event)
		payload := emit.payload.(models.PresencePayload)
		assert.Equal(t, "alice", payload.UserID)
		assert.Nil(t, payload.LastSeen)
	}
}

func TestAnnounceOnlineWithoutConnectionsEmitsNothing(t *testing.T) {
	f := newPresenceFixture()

	f.service.AnnounceOnline(context.Background(), "alice", "alice", nil)

	assert.Empty(t, f.broadcaster.userEmits)
}

func TestAnnounceOnlineSurvivesRepositoryFailure(t *testing.T) {
	f := newPresenceFixture()
	f.users.statusErr = errors.New("database down")
	f.presenceRepo.err = errors.New("redis down")

	f.service.AnnounceOnline(context.Background(), "alice", "alice", []string{"bob"})

	// Status writes are best-effort; the announcement still goes out.
	require.Len(t, f.broadcaster.userEmits, 1)
	assert.Equal(t, models.EventUserOnline, f.broadcaster.userEmits[0].event)
}

func TestAnnounceOfflineCarriesLastSeen(t *testing.T) {
	f := newPresenceFixture()
	lastSeen := time.Now().Add(-time.Minute)

	f.service.AnnounceOffline(context.Background(), "alice", "alice", []string{"bob"}, lastSeen)

	assert.Equal(t, models.StatusOffline, f.users.statusUpdates["alice"])
	assert.False(t, f.presenceRepo.online["alice"])

	require.Len(t, f.broadcaster.userEmits, 1)
	emit := f.broadcaster.userEmits[0]
	assert.Equal(t, "bob", emit.userID)
	assert.Equal(t, models.EventUserOffline, emit.event)
	payload := emit.payload.(models.PresencePayload)
	require.NotNil(t, payload.LastSeen)
	assert.True(t, payload.LastSeen.Equal(lastSeen))
}

func TestFlushQueuedDeliversOneBatch(t *testing.T) {
	f := newPresenceFixture()
	messageID := "msg-1"
	f.notifications.queued = []models.Notification{
		{ID: "n-1", RecipientID: "alice", Type: models.NotificationMessage, SenderID: "bob", MessageID: &messageID, ChatID: "chat-1"},
		{ID: "n-2", RecipientID: "alice", Type: models.NotificationMessage, SenderID: "charlie", ChatID: "group-1", IsGroup: true},
	}

	require.NoError(t, f.service.FlushQueued(context.Background(), "alice"))

	require.Len(t, f.broadcaster.userEmits, 1)
	emit := f.broadcaster.userEmits[0]
	assert.Equal(t, "alice", emit.userID)
	assert.Equal(t, models.EventQueuedNotifications, emit.event)
	payload := emit.payload.(models.QueuedNotificationsPayload)
	assert.Equal(t, 2, payload.Count)
	require.Len(t, payload.Notifications, 2)
	assert.Equal(t, "n-1", payload.Notifications[0].ID)

	// The drain consumed the queue; a second flush is silent.
	require.NoError(t, f.service.FlushQueued(context.Background(), "alice"))
	assert.Len(t, f.broadcaster.userEmits, 1)
}

func TestFlushQueuedEmptyQueueEmitsNothing(t *testing.T) {
	f := newPresenceFixture()

	require.NoError(t, f.service.FlushQueued(context.Background(), "alice"))

	assert.Empty(t, f.broadcaster.userEmits)
	assert.Equal(t, []string{"alice"}, f.notifications.drained)
}

func TestFlushQueuedSurfacesDrainFailure(t *testing.T) {
	f := newPresenceFixture()
	f.notifications.drainErr = errors.New("database down")

	err := f.service.FlushQueued(context.Background(), "alice")

	assert.ErrorIs(t, err, ErrRepositoryUnavailable)
	assert.Empty(t, f.broadcaster.userEmits)
}

func TestStatusPrefersLocalRegistry(t *testing.T) {
	f := newPresenceFixture()
	f.registry.live["alice"] = true
	f.presenceRepo.status = map[string]string{"alice": models.StatusOffline}

	status, err := f.service.Status(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, status)
}

func TestStatusFallsBackToPresenceStore(t *testing.T) {
	f := newPresenceFixture()
	f.presenceRepo.status = map[string]string{"bob": models.StatusOnline}

	status, err := f.service.Status(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, status)

	status, err = f.service.Status(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffline, status)
}

func TestStatusSurfacesStoreFailure(t *testing.T) {
	f := newPresenceFixture()
	f.presenceRepo.err = errors.New("redis down")

	_, err := f.service.Status(context.Background(), "bob")

	assert.ErrorIs(t, err, ErrRepositoryUnavailable)
}
