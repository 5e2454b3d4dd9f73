package storage

import "sync"

// Topic identifies one watchable slice of shared state.
type Topic string

// TopicMeetings covers the whole meeting catalog, counters included.
const TopicMeetings Topic = "meetings"

// TopicProfile covers one user's profile record.
func TopicProfile(userID string) Topic {
	return Topic("users/" + userID)
}

// TopicParticipations covers one user's participation rows.
func TopicParticipations(userID string) Topic {
	return Topic("participations/" + userID)
}

// TopicMessages covers one meeting's message stream.
func TopicMessages(meetingID string) Topic {
	return Topic("messages/" + meetingID)
}

// Watcher delivers change notifications for watchable topics. The channel
// carries coalesced ticks, not payloads; watchers re-read the full slice.
type Watcher interface {
	// Watch registers interest in a topic. The returned cancel func releases
	// the registration and must be called on every exit path.
	Watch(topic Topic) (<-chan struct{}, func())
}

// Hub is an in-process change-notification fan-out keyed by topic.
// Notifications coalesce: a subscriber that has not drained its channel
// receives one tick for any number of intervening changes.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[Topic]map[int]chan struct{}
}

// NewHub creates an empty notification hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[Topic]map[int]chan struct{})}
}

// Watch registers a subscriber channel for the topic.
func (h *Hub) Watch(topic Topic) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.nextID++
	subID := h.nextID
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan struct{})
	}
	h.subs[topic][subID] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subs[topic]; ok {
			delete(subs, subID)
			if len(subs) == 0 {
				delete(h.subs, topic)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Notify wakes every subscriber of the topic without blocking.
func (h *Hub) Notify(topic Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
