// Package unread derives the set of meetings with unseen chat activity.
//
// The tracker holds one message-stream subscription per currently-joined
// meeting. The latest message under a stream decides unread status: it marks
// the meeting unread when its sender is someone else and that meeting's chat
// is not the open one. Opening a chat clears its meeting. Only membership in
// the set is exposed; message content never leaves this package.
package unread

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

const streamRetryDelay = time.Second

// Source is the slice of the shared store the tracker reads from.
type Source interface {
	LatestMessage(ctx context.Context, meetingID string) (domain.Message, error)
	Watch(topic storage.Topic) (<-chan struct{}, func())
}

// Tracker watches joined meetings' message streams for unseen activity.
type Tracker struct {
	ctx    context.Context
	cancel context.CancelFunc
	source Source

	mu         sync.Mutex
	wg         sync.WaitGroup
	identityID string
	activeChat string
	streams    map[string]context.CancelFunc
	unread     map[string]bool
}

// New creates a tracker with no identity and no streams.
func New(source Source) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		ctx:     ctx,
		cancel:  cancel,
		source:  source,
		streams: make(map[string]context.CancelFunc),
		unread:  make(map[string]bool),
	}
}

// Close tears down every stream and waits for their goroutines to exit.
func (t *Tracker) Close() {
	if t == nil {
		return
	}
	t.cancel()
	t.wg.Wait()
}

// SetIdentity names the identity whose own messages never mark a meeting
// unread. Changing identity drops every stream and clears the set.
func (t *Tracker) SetIdentity(userID string) {
	if t == nil {
		return
	}
	userID = strings.TrimSpace(userID)

	t.mu.Lock()
	if t.identityID == userID {
		t.mu.Unlock()
		return
	}
	t.identityID = userID
	released := make([]context.CancelFunc, 0, len(t.streams))
	for _, cancel := range t.streams {
		released = append(released, cancel)
	}
	t.streams = make(map[string]context.CancelFunc)
	t.unread = make(map[string]bool)
	t.activeChat = ""
	t.mu.Unlock()

	for _, cancel := range released {
		cancel()
	}
}

// SetParticipations syncs the stream set to the current participation slice:
// new joins open a stream, removals close one and drop any unread mark.
func (t *Tracker) SetParticipations(participations []domain.Participation) {
	if t == nil {
		return
	}

	current := make(map[string]bool, len(participations))
	for _, participation := range participations {
		meetingID := strings.TrimSpace(participation.MeetingID)
		if meetingID != "" {
			current[meetingID] = true
		}
	}

	t.mu.Lock()
	released := make([]context.CancelFunc, 0)
	for meetingID, cancel := range t.streams {
		if !current[meetingID] {
			delete(t.streams, meetingID)
			delete(t.unread, meetingID)
			released = append(released, cancel)
		}
	}
	added := make([]string, 0)
	for meetingID := range current {
		if _, exists := t.streams[meetingID]; !exists {
			added = append(added, meetingID)
		}
	}
	t.mu.Unlock()

	for _, cancel := range released {
		cancel()
	}
	for _, meetingID := range added {
		t.ensureStream(meetingID)
	}
}

// OpenChat makes a meeting's chat the active one and removes it from the
// unread set, including when a message landed immediately before the open.
func (t *Tracker) OpenChat(meetingID string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.activeChat = strings.TrimSpace(meetingID)
	if t.activeChat != "" {
		delete(t.unread, t.activeChat)
	}
	t.mu.Unlock()
}

// CloseChat clears the active chat context.
func (t *Tracker) CloseChat() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.activeChat = ""
	t.mu.Unlock()
}

// ActiveChat returns the meeting id of the open chat, if any.
func (t *Tracker) ActiveChat() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeChat
}

// HasUnread reports whether a meeting has unseen activity.
func (t *Tracker) HasUnread(meetingID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unread[strings.TrimSpace(meetingID)]
}

func (t *Tracker) ensureStream(meetingID string) {
	t.mu.Lock()
	if _, exists := t.streams[meetingID]; exists {
		t.mu.Unlock()
		return
	}
	streamCtx, streamCancel := context.WithCancel(t.ctx)
	t.streams[meetingID] = streamCancel
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		t.runStream(streamCtx, meetingID)
	}()
}

// runStream evaluates the stream tail once, then again after every change
// tick. A failed read keeps the previous state and retries after a delay.
func (t *Tracker) runStream(ctx context.Context, meetingID string) {
	ticks, cancelWatch := t.source.Watch(storage.TopicMessages(meetingID))
	defer cancelWatch()

	for {
		if err := t.evaluate(ctx, meetingID); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("unread: evaluate %s: %v", meetingID, err)
			if !waitStreamRetry(ctx, streamRetryDelay) {
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

func (t *Tracker) evaluate(ctx context.Context, meetingID string) error {
	latest, err := t.source.LatestMessage(ctx, meetingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, tracked := t.streams[meetingID]; !tracked {
		return nil
	}
	switch {
	case t.activeChat == meetingID:
		// Messages arriving while the chat is open are already seen.
		delete(t.unread, meetingID)
	case latest.SenderID == t.identityID:
		// The identity's own messages never mark the meeting.
	default:
		t.unread[meetingID] = true
	}
	return nil
}

func waitStreamRetry(ctx context.Context, delay time.Duration) bool {
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
