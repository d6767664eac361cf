package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chat-realtime/internal/models"
)

type roomEmit struct {
	roomID        string
	excludeUserID string
	event         models.EventType
	payload       any
}

type userEmit struct {
	userID  string
	event   models.EventType
	payload any
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	roomEmits []roomEmit
	userEmits []userEmit
}

func (f *fakeBroadcaster) EmitToRoom(roomID, excludeUserID string, event models.EventType, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomEmits = append(f.roomEmits, roomEmit{roomID, excludeUserID, event, payload})
}

func (f *fakeBroadcaster) EmitToUser(userID string, event models.EventType, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userEmits = append(f.userEmits, userEmit{userID, event, payload})
}

func (f *fakeBroadcaster) userEventsFor(userID string) []models.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []models.EventType
	for _, e := range f.userEmits {
		if e.userID == userID {
			events = append(events, e.event)
		}
	}
	return events
}

type fakeRegistry struct {
	live map[string]bool
}

func (f *fakeRegistry) IsLive(userID string) bool {
	return f.live[userID]
}

// fakeMembership serves a fixed snapshot and optionally a different one after
// an invalidation, mimicking the forced re-fetch path.
type fakeMembership struct {
	snapshot    *models.MembershipSnapshot
	refreshed   *models.MembershipSnapshot
	err         error
	calls       int
	invalidated []string
}

func (f *fakeMembership) GetOrRefresh(ctx context.Context, userID string) (*models.MembershipSnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.invalidated) > 0 && f.refreshed != nil {
		return f.refreshed, nil
	}
	return f.snapshot, nil
}

func (f *fakeMembership) Invalidate(userID string) {
	f.invalidated = append(f.invalidated, userID)
}

type fakeUserRepo struct {
	users map[string]*models.User
	err   error

	statusMu      sync.Mutex
	statusUpdates map[string]string
	statusErr     error
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s not found", id)
}

func (f *fakeUserRepo) DirectConnectionIDs(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

func (f *fakeUserRepo) UpdateStatus(ctx context.Context, userID, status string, lastSeen time.Time) error {
	f.statusMu.Lock()
	defer f.statusMu.Unlock()
	if f.statusUpdates == nil {
		f.statusUpdates = make(map[string]string)
	}
	f.statusUpdates[userID] = status
	return f.statusErr
}

type fakeChatRepo struct {
	mu     sync.Mutex
	latest map[string]string
	err    error
}

func (f *fakeChatRepo) FindPrivateChatByID(ctx context.Context, id string) (*models.PrivateChat, error) {
	return nil, ErrNotFound
}

func (f *fakeChatRepo) FindGroupChatByID(ctx context.Context, id string) (*models.GroupChat, error) {
	return nil, ErrNotFound
}

func (f *fakeChatRepo) MembershipSnapshot(ctx context.Context, userID string) (*models.MembershipSnapshot, error) {
	return &models.MembershipSnapshot{UserID: userID, FetchedAt: time.Now()}, nil
}

func (f *fakeChatRepo) SetLatestMessage(ctx context.Context, kind models.TargetKind, targetID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.latest == nil {
		f.latest = make(map[string]string)
	}
	f.latest[targetID] = messageID
	return nil
}

func (f *fakeChatRepo) latestFor(targetID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest[targetID]
}

type fakeMessageRepo struct {
	created       []*models.Message
	createErr     error
	readByCalls   []string
	appendReadErr error
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *models.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	message.ID = fmt.Sprintf("msg-%d", len(f.created)+1)
	message.CreatedAt = time.Now()
	f.created = append(f.created, message)
	return nil
}

func (f *fakeMessageRepo) AppendReadBy(ctx context.Context, kind models.TargetKind, targetID, userID string) error {
	if f.appendReadErr != nil {
		return f.appendReadErr
	}
	f.readByCalls = append(f.readByCalls, targetID+":"+userID)
	return nil
}

type fakeNotificationRepo struct {
	enqueued   []*models.Notification
	enqueueErr error
	queued     []models.Notification
	drainErr   error
	drained    []string
}

func (f *fakeNotificationRepo) Enqueue(ctx context.Context, notification *models.Notification) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, notification)
	return nil
}

func (f *fakeNotificationRepo) Drain(ctx context.Context, recipientID string) ([]models.Notification, error) {
	if f.drainErr != nil {
		return nil, f.drainErr
	}
	f.drained = append(f.drained, recipientID)
	out := f.queued
	f.queued = nil
	return out, nil
}

type fakePresenceRepo struct {
	online map[string]bool
	status map[string]string
	err    error
}

func (f *fakePresenceRepo) SetOnline(ctx context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	if f.online == nil {
		f.online = make(map[string]bool)
	}
	f.online[userID] = true
	return nil
}

func (f *fakePresenceRepo) SetOffline(ctx context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	if f.online == nil {
		f.online = make(map[string]bool)
	}
	f.online[userID] = false
	return nil
}

func (f *fakePresenceRepo) Status(ctx context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if s, ok := f.status[userID]; ok {
		return s, nil
	}
	return models.StatusOffline, nil
}
