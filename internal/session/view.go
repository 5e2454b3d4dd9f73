package session

import "github.com/moimlab/moim/internal/membership/domain"

// View names one screen of the navigation automaton.
type View string

const (
	// ViewHome is the initial state: the browsable meeting catalog.
	ViewHome View = "HOME"
	// ViewAuth is the identity-provider flow.
	ViewAuth View = "AUTH"
	// ViewDeclaration is the one-time eligibility declaration.
	ViewDeclaration View = "DECLARATION"
	// ViewProfileSetup is the first-run profile form.
	ViewProfileSetup View = "PROFILE_SETUP"
	// ViewWelcome is shown once after profile setup completes.
	ViewWelcome View = "WELCOME"
	// ViewMeetingDetail shows one meeting from the catalog.
	ViewMeetingDetail View = "MEETING_DETAIL"
	// ViewCreateMeeting is the meeting composition form.
	ViewCreateMeeting View = "CREATE_MEETING"
	// ViewMyPage is the signed-in member's own page.
	ViewMyPage View = "MY_PAGE"
	// ViewChatList lists joined meetings' chats.
	ViewChatList View = "CHAT_LIST"
	// ViewChatRoom is one meeting's open chat.
	ViewChatRoom View = "CHAT_ROOM"
)

// ActionKind tags a deferred intent.
type ActionKind string

const (
	// ActionJoinMeeting resumes a join against PendingAction.MeetingID.
	ActionJoinMeeting ActionKind = "JOIN_MEETING"
	// ActionCreateMeeting resumes a meeting creation from PendingAction.Draft.
	ActionCreateMeeting ActionKind = "CREATE_MEETING"
	// ActionOpenCreateMeeting resumes navigation into the composition form.
	ActionOpenCreateMeeting ActionKind = "OPEN_CREATE_MEETING"
)

// PendingAction is a single deferred intent held while a gating step runs.
// It is a tagged descriptor, not a closure, so it can be inspected and
// logged. At most one exists at a time; a newer intent overwrites it.
type PendingAction struct {
	Kind      ActionKind
	MeetingID string
	Draft     domain.CreateMeetingInput
}
