// Package session holds the application context: the signed-in identity, the
// navigation automaton, and the single-slot deferred intent. Session state is
// mutated only through named methods; there are no ambient globals.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/moimlab/moim/internal/membership/domain"
	"github.com/moimlab/moim/internal/membership/service"
	"github.com/moimlab/moim/internal/membership/storage"
	"github.com/moimlab/moim/internal/mirror"
	"github.com/moimlab/moim/internal/unread"
)

// Identity is the signed-in member reference persisted across restarts.
type Identity struct {
	UserID string
	Phone  string
}

// IdentityStore persists the last known identity on the device. Lookup of a
// missing record reports storage.ErrNotFound.
type IdentityStore interface {
	PutIdentity(ctx context.Context, identity Identity) error
	GetIdentity(ctx context.Context) (Identity, error)
	DeleteIdentity(ctx context.Context) error
}

// Session is one logical client session.
type Session struct {
	engine     *service.Engine
	mirror     *mirror.Mirror
	tracker    *unread.Tracker
	identities IdentityStore

	mu             sync.Mutex
	view           View
	currentMeeting string
	identity       Identity
	signedIn       bool
	pending        *PendingAction
}

// NewSession creates a session at the home view with no identity.
// The identity store may be nil; persistence across restarts is then off.
func NewSession(engine *service.Engine, mirror *mirror.Mirror, tracker *unread.Tracker, identities IdentityStore) *Session {
	return &Session{
		engine:     engine,
		mirror:     mirror,
		tracker:    tracker,
		identities: identities,
		view:       ViewHome,
	}
}

// Restore resolves the device's last known identity reference. A stale or
// cooldown-restricted reference is deleted and the session stays signed out.
func (s *Session) Restore(ctx context.Context) error {
	if s.identities == nil {
		return nil
	}
	identity, err := s.identities.GetIdentity(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	profile, found, err := s.engine.CompleteAuthentication(ctx, identity.UserID, identity.Phone)
	if err != nil || !found {
		if deleteErr := s.identities.DeleteIdentity(ctx); deleteErr != nil {
			log.Printf("session: delete stale identity: %v", deleteErr)
		}
		return err
	}

	s.adoptIdentity(Identity{UserID: profile.ID, Phone: profile.Phone})
	s.setView(ViewHome, "")
	return nil
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// CurrentMeetingID returns the meeting the current view is scoped to, if any.
func (s *Session) CurrentMeetingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentMeeting
}

// Identity returns the signed-in identity, if any.
func (s *Session) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.signedIn
}

// PendingAction returns the deferred intent, if one is held.
func (s *Session) PendingAction() (PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingAction{}, false
	}
	return *s.pending, true
}

// CancelPendingAction drops the deferred intent without executing it.
func (s *Session) CancelPendingAction() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// OpenMeeting navigates to a meeting's detail view. The open chat context is
// deliberately kept; back-navigation uses it.
func (s *Session) OpenMeeting(meetingID string) {
	s.setView(ViewMeetingDetail, strings.TrimSpace(meetingID))
}

// OpenChatList navigates to the chat list and closes any open chat.
func (s *Session) OpenChatList() {
	s.tracker.CloseChat()
	s.setView(ViewChatList, "")
}

// OpenChat makes a meeting's chat the active one and navigates into it.
func (s *Session) OpenChat(meetingID string) {
	meetingID = strings.TrimSpace(meetingID)
	s.tracker.OpenChat(meetingID)
	s.setView(ViewChatRoom, meetingID)
}

// OpenMyPage navigates to the member's own page.
func (s *Session) OpenMyPage() {
	s.setView(ViewMyPage, "")
}

// Back performs contextual back-navigation. Meeting detail returns to the
// chat room when that meeting's chat is the open one, else home. A chat room
// returns to the chat list.
func (s *Session) Back() {
	s.mu.Lock()
	view := s.view
	meetingID := s.currentMeeting
	s.mu.Unlock()

	switch view {
	case ViewMeetingDetail:
		if meetingID != "" && s.tracker.ActiveChat() == meetingID {
			s.setView(ViewChatRoom, meetingID)
			return
		}
		s.setView(ViewHome, "")
	case ViewChatRoom:
		s.tracker.CloseChat()
		s.setView(ViewChatList, "")
	case ViewDeclaration:
		s.CancelPendingAction()
		s.setView(ViewHome, "")
	default:
		s.setView(ViewHome, "")
	}
}

// OpenCreateMeeting navigates into the meeting composition form, gated the
// same way as the create intent itself.
func (s *Session) OpenCreateMeeting() {
	if !s.isSignedIn() {
		s.setView(ViewAuth, "")
		return
	}
	if !s.isCertified() {
		s.deferIntent(PendingAction{Kind: ActionOpenCreateMeeting})
		return
	}
	s.setView(ViewCreateMeeting, "")
}

// RequestJoin runs the certification-gated join intent. Without an identity
// it routes to auth; uncertified it defers the join and routes to the
// declaration; otherwise it joins and opens the meeting's chat context.
func (s *Session) RequestJoin(ctx context.Context, meetingID string) error {
	meetingID = strings.TrimSpace(meetingID)
	if !s.isSignedIn() {
		s.setView(ViewAuth, "")
		return nil
	}
	if !s.isCertified() {
		s.deferIntent(PendingAction{Kind: ActionJoinMeeting, MeetingID: meetingID})
		return nil
	}
	return s.executeJoin(ctx, meetingID)
}

// RequestCreate runs the certification-gated create intent with a composed
// draft. Uncertified identities have the draft deferred and resumed whole
// after the declaration.
func (s *Session) RequestCreate(ctx context.Context, draft domain.CreateMeetingInput) error {
	if !s.isSignedIn() {
		s.setView(ViewAuth, "")
		return nil
	}
	if !s.isCertified() {
		s.deferIntent(PendingAction{Kind: ActionCreateMeeting, Draft: draft})
		return nil
	}
	return s.executeCreate(ctx, draft)
}

// CompleteDeclaration certifies the identity, then runs the deferred intent
// exactly once if one is held, else returns home. The slot is cleared before
// the intent runs; a failing intent is not retried.
func (s *Session) CompleteDeclaration(ctx context.Context) error {
	identity, ok := s.Identity()
	if !ok {
		s.setView(ViewAuth, "")
		return nil
	}
	if _, err := s.engine.Certify(ctx, identity.UserID); err != nil {
		return err
	}

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if pending == nil {
		s.setView(ViewHome, "")
		return nil
	}
	switch pending.Kind {
	case ActionJoinMeeting:
		return s.executeJoin(ctx, pending.MeetingID)
	case ActionCreateMeeting:
		return s.executeCreate(ctx, pending.Draft)
	case ActionOpenCreateMeeting:
		s.setView(ViewCreateMeeting, "")
		return nil
	default:
		s.setView(ViewHome, "")
		return nil
	}
}

// CompleteAuthentication consumes the identity provider's completion event.
// A cooldown-restricted identity is refused and the session stays signed
// out. A known identity signs in at home; an unknown one proceeds to
// profile setup.
func (s *Session) CompleteAuthentication(ctx context.Context, userID, phone string) error {
	profile, found, err := s.engine.CompleteAuthentication(ctx, userID, phone)
	if err != nil {
		s.clearIdentity(ctx)
		s.setView(ViewHome, "")
		return err
	}
	if found {
		s.adoptIdentity(Identity{UserID: profile.ID, Phone: profile.Phone})
		s.persistIdentity(ctx)
		s.setView(ViewHome, "")
		return nil
	}

	s.mu.Lock()
	s.identity = Identity{UserID: strings.TrimSpace(userID), Phone: strings.TrimSpace(phone)}
	s.signedIn = false
	s.mu.Unlock()
	s.setView(ViewProfileSetup, "")
	return nil
}

// CompleteProfileSetup persists the first-run profile and signs the new
// identity in at the welcome view.
func (s *Session) CompleteProfileSetup(ctx context.Context, input domain.CreateProfileInput) error {
	s.mu.Lock()
	if input.Phone == "" {
		input.Phone = s.identity.Phone
	}
	s.mu.Unlock()

	profile, err := s.engine.CreateProfile(ctx, input)
	if err != nil {
		return err
	}
	s.adoptIdentity(Identity{UserID: profile.ID, Phone: profile.Phone})
	s.persistIdentity(ctx)
	s.setView(ViewWelcome, "")
	return nil
}

// FinishWelcome leaves the one-time welcome view.
func (s *Session) FinishWelcome() {
	s.setView(ViewHome, "")
}

// Block adds a user to the identity's blocked set. Catalog and chat views
// re-derive once the mirror republishes the profile.
func (s *Session) Block(ctx context.Context, targetID string) error {
	identity, ok := s.Identity()
	if !ok {
		s.setView(ViewAuth, "")
		return nil
	}
	return s.engine.Block(ctx, identity.UserID, targetID)
}

// Unblock removes a user from the identity's blocked set.
func (s *Session) Unblock(ctx context.Context, targetID string) error {
	identity, ok := s.Identity()
	if !ok {
		s.setView(ViewAuth, "")
		return nil
	}
	return s.engine.Unblock(ctx, identity.UserID, targetID)
}

// Withdraw runs the account-removal cascade, then clears the session.
func (s *Session) Withdraw(ctx context.Context) error {
	identity, ok := s.Identity()
	if !ok {
		s.setView(ViewAuth, "")
		return nil
	}
	if err := s.engine.Withdraw(ctx, identity.UserID); err != nil {
		return err
	}
	s.clearIdentity(ctx)
	s.setView(ViewHome, "")
	return nil
}

// SignOut clears the session state and returns home.
func (s *Session) SignOut(ctx context.Context) {
	s.clearIdentity(ctx)
	s.setView(ViewHome, "")
}

func (s *Session) executeJoin(ctx context.Context, meetingID string) error {
	identity, ok := s.Identity()
	if !ok {
		s.setView(ViewAuth, "")
		return nil
	}
	if _, err := s.engine.Join(ctx, identity.UserID, meetingID); err != nil {
		return err
	}
	s.OpenChat(meetingID)
	return nil
}

func (s *Session) executeCreate(ctx context.Context, draft domain.CreateMeetingInput) error {
	identity, ok := s.Identity()
	if !ok {
		s.setView(ViewAuth, "")
		return nil
	}
	if _, err := s.engine.Create(ctx, identity.UserID, draft); err != nil {
		return err
	}
	s.setView(ViewHome, "")
	return nil
}

// deferIntent stores a deferred intent, overwriting any prior one, and routes to
// the declaration.
func (s *Session) deferIntent(action PendingAction) {
	s.mu.Lock()
	s.pending = &action
	s.mu.Unlock()
	s.setView(ViewDeclaration, "")
}

func (s *Session) adoptIdentity(identity Identity) {
	s.mu.Lock()
	s.identity = identity
	s.signedIn = true
	s.mu.Unlock()
	s.mirror.SetIdentity(identity.UserID)
	s.tracker.SetIdentity(identity.UserID)
}

func (s *Session) clearIdentity(ctx context.Context) {
	s.mu.Lock()
	s.identity = Identity{}
	s.signedIn = false
	s.pending = nil
	s.mu.Unlock()
	s.mirror.SetIdentity("")
	s.tracker.SetIdentity("")
	if s.identities != nil {
		if err := s.identities.DeleteIdentity(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("session: delete identity: %v", err)
		}
	}
}

func (s *Session) persistIdentity(ctx context.Context) {
	if s.identities == nil {
		return
	}
	identity, ok := s.Identity()
	if !ok {
		return
	}
	if err := s.identities.PutIdentity(ctx, identity); err != nil {
		log.Printf("session: persist identity: %v", err)
	}
}

func (s *Session) setView(view View, meetingID string) {
	s.mu.Lock()
	s.view = view
	s.currentMeeting = meetingID
	s.mu.Unlock()
}

func (s *Session) isSignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedIn
}

func (s *Session) isCertified() bool {
	profile, ok := s.mirror.Profile()
	return ok && profile.Certified
}
