// Package mirror maintains device-local read models of the shared store.
//
// Each mirrored slice is fed by one subscription goroutine keyed by its
// dependency (the catalog, or the current identity). On every change tick the
// feed re-reads the full slice and republishes it wholesale; snapshots are
// replaced, never patched. Consumers observe republications through
// registrations that return a cancel func.
package mirror

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/moimlab/moim/internal/membership/domain"
	"github.com/moimlab/moim/internal/membership/storage"
)

const feedRetryDelay = time.Second

// Source is the slice of the shared store the mirror reads from.
type Source interface {
	ListMeetings(ctx context.Context) ([]domain.Meeting, error)
	GetProfile(ctx context.Context, userID string) (domain.UserProfile, error)
	ListParticipationsByUser(ctx context.Context, userID string) ([]domain.Participation, error)
	Watch(topic storage.Topic) (<-chan struct{}, func())
}

// Mirror holds the device-local snapshots of shared state.
type Mirror struct {
	ctx    context.Context
	cancel context.CancelFunc
	source Source

	// fallbackCatalog is published in place of an empty meeting list so a
	// cold store still renders a browsable catalog.
	fallbackCatalog []domain.Meeting

	mu         sync.Mutex
	wg         sync.WaitGroup
	feeds      map[string]context.CancelFunc
	identityID string

	meetings       []domain.Meeting
	profile        domain.UserProfile
	hasProfile     bool
	participations []domain.Participation

	nextObserverID         int
	meetingObservers       map[int]func([]domain.Meeting)
	profileObservers       map[int]func(domain.UserProfile, bool)
	participationObservers map[int]func([]domain.Participation)
}

// New starts a mirror over the source. The catalog feed starts immediately;
// identity-keyed feeds start once SetIdentity names a user.
func New(source Source, fallbackCatalog []domain.Meeting) *Mirror {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Mirror{
		ctx:                    ctx,
		cancel:                 cancel,
		source:                 source,
		fallbackCatalog:        fallbackCatalog,
		feeds:                  make(map[string]context.CancelFunc),
		meetingObservers:       make(map[int]func([]domain.Meeting)),
		profileObservers:       make(map[int]func(domain.UserProfile, bool)),
		participationObservers: make(map[int]func([]domain.Participation)),
	}
	m.ensureFeed("meetings", storage.TopicMeetings, m.refreshMeetings)
	return m
}

// Close tears down every feed and waits for their goroutines to exit.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
}

// SetIdentity rekeys the identity-bound feeds. The previous identity's feeds
// are released first, so snapshots from one identity never leak into the
// next. An empty id releases the feeds and clears the snapshots.
func (m *Mirror) SetIdentity(userID string) {
	if m == nil {
		return
	}
	userID = strings.TrimSpace(userID)

	m.mu.Lock()
	if m.identityID == userID {
		m.mu.Unlock()
		return
	}
	previous := m.identityID
	m.identityID = userID
	m.mu.Unlock()

	if previous != "" {
		m.releaseFeed("profile/" + previous)
		m.releaseFeed("participations/" + previous)
	}

	m.mu.Lock()
	m.profile = domain.UserProfile{}
	m.hasProfile = false
	m.participations = nil
	m.mu.Unlock()
	m.publishProfile()
	m.publishParticipations()

	if userID == "" {
		return
	}
	m.ensureFeed("profile/"+userID, storage.TopicProfile(userID), func(ctx context.Context) error {
		return m.refreshProfile(ctx, userID)
	})
	m.ensureFeed("participations/"+userID, storage.TopicParticipations(userID), func(ctx context.Context) error {
		return m.refreshParticipations(ctx, userID)
	})
}

// Meetings returns the current catalog snapshot.
func (m *Mirror) Meetings() []domain.Meeting {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Meeting(nil), m.meetings...)
}

// VisibleMeetings returns the catalog snapshot with meetings hosted by
// blocked users removed. Without a profile snapshot nothing is filtered.
func (m *Mirror) VisibleMeetings() []domain.Meeting {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasProfile || len(m.profile.BlockedUserIDs) == 0 {
		return append([]domain.Meeting(nil), m.meetings...)
	}
	visible := make([]domain.Meeting, 0, len(m.meetings))
	for _, meeting := range m.meetings {
		if m.profile.HasBlocked(meeting.HostID) {
			continue
		}
		visible = append(visible, meeting)
	}
	return visible
}

// Profile returns the current identity's profile snapshot, if one exists.
func (m *Mirror) Profile() (domain.UserProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile, m.hasProfile
}

// Participations returns the current identity's participation snapshot.
func (m *Mirror) Participations() []domain.Participation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Participation(nil), m.participations...)
}

// ObserveMeetings registers fn to run on every catalog republish. It runs
// once immediately with the current snapshot.
func (m *Mirror) ObserveMeetings(fn func([]domain.Meeting)) func() {
	m.mu.Lock()
	m.nextObserverID++
	observerID := m.nextObserverID
	m.meetingObservers[observerID] = fn
	snapshot := append([]domain.Meeting(nil), m.meetings...)
	m.mu.Unlock()

	fn(snapshot)
	return func() {
		m.mu.Lock()
		delete(m.meetingObservers, observerID)
		m.mu.Unlock()
	}
}

// ObserveProfile registers fn to run on every profile republish. It runs
// once immediately with the current snapshot.
func (m *Mirror) ObserveProfile(fn func(domain.UserProfile, bool)) func() {
	m.mu.Lock()
	m.nextObserverID++
	observerID := m.nextObserverID
	m.profileObservers[observerID] = fn
	profile, ok := m.profile, m.hasProfile
	m.mu.Unlock()

	fn(profile, ok)
	return func() {
		m.mu.Lock()
		delete(m.profileObservers, observerID)
		m.mu.Unlock()
	}
}

// ObserveParticipations registers fn to run on every participation
// republish. It runs once immediately with the current snapshot.
func (m *Mirror) ObserveParticipations(fn func([]domain.Participation)) func() {
	m.mu.Lock()
	m.nextObserverID++
	observerID := m.nextObserverID
	m.participationObservers[observerID] = fn
	snapshot := append([]domain.Participation(nil), m.participations...)
	m.mu.Unlock()

	fn(snapshot)
	return func() {
		m.mu.Lock()
		delete(m.participationObservers, observerID)
		m.mu.Unlock()
	}
}

func (m *Mirror) ensureFeed(key string, topic storage.Topic, refresh func(context.Context) error) {
	m.mu.Lock()
	if _, exists := m.feeds[key]; exists {
		m.mu.Unlock()
		return
	}
	feedCtx, feedCancel := context.WithCancel(m.ctx)
	m.feeds[key] = feedCancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.runFeed(feedCtx, key, topic, refresh)
	}()
}

func (m *Mirror) releaseFeed(key string) {
	m.mu.Lock()
	cancel, exists := m.feeds[key]
	if exists {
		delete(m.feeds, key)
	}
	m.mu.Unlock()
	if exists {
		cancel()
	}
}

// runFeed reads the full slice once, then again after every change tick.
// A failed read keeps the previous snapshot and retries after a delay.
func (m *Mirror) runFeed(ctx context.Context, key string, topic storage.Topic, refresh func(context.Context) error) {
	ticks, cancelWatch := m.source.Watch(topic)
	defer cancelWatch()

	for {
		if err := refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("mirror: refresh %s: %v", key, err)
			if !waitFeedRetry(ctx, feedRetryDelay) {
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}
	}
}

func (m *Mirror) refreshMeetings(ctx context.Context) error {
	meetings, err := m.source.ListMeetings(ctx)
	if err != nil {
		return err
	}
	if len(meetings) == 0 {
		meetings = append([]domain.Meeting(nil), m.fallbackCatalog...)
	}
	m.mu.Lock()
	m.meetings = meetings
	m.mu.Unlock()
	m.publishMeetings()
	return nil
}

func (m *Mirror) refreshProfile(ctx context.Context, userID string) error {
	profile, err := m.source.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	found := err == nil

	m.mu.Lock()
	if m.identityID != userID {
		m.mu.Unlock()
		return nil
	}
	m.profile = profile
	m.hasProfile = found
	m.mu.Unlock()
	m.publishProfile()
	return nil
}

func (m *Mirror) refreshParticipations(ctx context.Context, userID string) error {
	participations, err := m.source.ListParticipationsByUser(ctx, userID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.identityID != userID {
		m.mu.Unlock()
		return nil
	}
	m.participations = participations
	m.mu.Unlock()
	m.publishParticipations()
	return nil
}

func (m *Mirror) publishMeetings() {
	m.mu.Lock()
	snapshot := append([]domain.Meeting(nil), m.meetings...)
	observers := make([]func([]domain.Meeting), 0, len(m.meetingObservers))
	for _, fn := range m.meetingObservers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

func (m *Mirror) publishProfile() {
	m.mu.Lock()
	profile, ok := m.profile, m.hasProfile
	observers := make([]func(domain.UserProfile, bool), 0, len(m.profileObservers))
	for _, fn := range m.profileObservers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()
	for _, fn := range observers {
		fn(profile, ok)
	}
}

func (m *Mirror) publishParticipations() {
	m.mu.Lock()
	snapshot := append([]domain.Participation(nil), m.participations...)
	observers := make([]func([]domain.Participation), 0, len(m.participationObservers))
	for _, fn := range m.participationObservers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

func waitFeedRetry(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		delay = time.Second
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
