// Package service implements the membership policy engine: the mutating
// operations that enforce business rules against shared state and issue
// writes to the store.
//
// The engine does not navigate. Gating outcomes are reported as coded errors
// whose Surface() tells the session layer how to route; everything else is a
// plain result.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/moimlab/moim/internal/errors"
	"github.com/moimlab/moim/internal/membership/domain"
	"github.com/moimlab/moim/internal/membership/storage"
	"github.com/moimlab/moim/internal/platform/id"
)

var (
	// ErrAuthenticationRequired reports an operation that needs a signed-in
	// identity. Surfaced as a redirect into the auth flow, not a failure.
	ErrAuthenticationRequired = apperrors.New(apperrors.CodeAuthenticationRequired, "authentication is required")
	// ErrCertificationRequired reports an operation gated on certification.
	// Surfaced as a redirect into the declaration flow.
	ErrCertificationRequired = apperrors.New(apperrors.CodeCertificationRequired, "certification is required")
	// ErrCapacityFull reports a join against a meeting at capacity.
	ErrCapacityFull = apperrors.New(apperrors.CodeMeetingCapacityFull, "meeting is at capacity")
	// ErrMeetingNotFound reports a join against a missing meeting.
	ErrMeetingNotFound = apperrors.New(apperrors.CodeNotFound, "meeting not found")
	// ErrProfileNotFound reports an operation on a missing profile record.
	ErrProfileNotFound = apperrors.New(apperrors.CodeNotFound, "profile not found")
)

// Store is the slice of the shared store the engine writes through.
type Store interface {
	storage.ProfileStore
	storage.MeetingStore
	storage.ParticipationStore
	storage.RestrictionStore
}

// Engine enforces membership policy and issues writes to the shared store.
type Engine struct {
	store       Store
	clock       func() time.Time
	idGenerator func() (string, error)
	tracer      trace.Tracer
}

// NewEngine creates an Engine with default clock and id generation.
func NewEngine(store Store) *Engine {
	return &Engine{
		store:       store,
		clock:       time.Now,
		idGenerator: id.NewID,
		tracer:      otel.Tracer("moim/membership"),
	}
}

// JoinResult reports the outcome of a join.
type JoinResult struct {
	Participation domain.Participation
	// AlreadyJoined is set when the identity held a participation before the
	// call; no write happened and the caller proceeds straight to chat.
	AlreadyJoined bool
}

// Join enrolls the identity in a meeting.
//
// The capacity check reads the counter first and writes afterwards; two
// sessions racing near full capacity can both pass the check and jointly
// overshoot. The participation insert and the counter increment are two
// separate writes with no transaction between them, so a failure after the
// insert under-counts participants relative to rows.
func (e *Engine) Join(ctx context.Context, userID, meetingID string) (JoinResult, error) {
	ctx, span := e.tracer.Start(ctx, "membership.Join",
		trace.WithAttributes(attribute.String("meeting.id", meetingID)))
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return JoinResult{}, ErrAuthenticationRequired
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return JoinResult{}, ErrMeetingNotFound
	}

	meeting, err := e.store.GetMeeting(ctx, meetingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return JoinResult{}, ErrMeetingNotFound
		}
		return JoinResult{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "load meeting", err)
	}
	if meeting.Full() {
		return JoinResult{}, ErrCapacityFull
	}

	profile, err := e.loadProfile(ctx, userID)
	if err != nil {
		return JoinResult{}, err
	}
	if !profile.Certified {
		return JoinResult{}, ErrCertificationRequired
	}

	existing, err := e.store.ListParticipationsByUser(ctx, userID)
	if err != nil {
		return JoinResult{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "list participations", err)
	}
	for _, participation := range existing {
		if participation.MeetingID == meetingID {
			return JoinResult{Participation: participation, AlreadyJoined: true}, nil
		}
	}

	participation, err := domain.CreateParticipation(userID, meetingID, e.clock, e.idGenerator)
	if err != nil {
		return JoinResult{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "create participation", err)
	}
	if err := e.store.PutParticipation(ctx, participation); err != nil {
		return JoinResult{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "persist participation", err)
	}
	if err := e.store.AddParticipants(ctx, meetingID, 1); err != nil {
		return JoinResult{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "increment participants", err)
	}
	return JoinResult{Participation: participation}, nil
}

// Create persists a new meeting hosted by the identity, with the creator
// already enrolled: the counter starts at one and a participation row is
// written for the host, mirroring join's bootstrap state.
func (e *Engine) Create(ctx context.Context, userID string, input domain.CreateMeetingInput) (domain.Meeting, error) {
	ctx, span := e.tracer.Start(ctx, "membership.Create")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Meeting{}, ErrAuthenticationRequired
	}

	profile, err := e.loadProfile(ctx, userID)
	if err != nil {
		return domain.Meeting{}, err
	}
	if !profile.Certified {
		return domain.Meeting{}, ErrCertificationRequired
	}

	input.HostID = userID
	input.HostNickname = profile.Nickname
	meeting, err := domain.CreateMeeting(input, e.clock, e.idGenerator)
	if err != nil {
		return domain.Meeting{}, err
	}

	if err := e.store.PutMeeting(ctx, meeting); err != nil {
		return domain.Meeting{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "persist meeting", err)
	}
	participation, err := domain.CreateParticipation(userID, meeting.ID, e.clock, e.idGenerator)
	if err != nil {
		return domain.Meeting{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "create host participation", err)
	}
	if err := e.store.PutParticipation(ctx, participation); err != nil {
		return domain.Meeting{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "persist host participation", err)
	}
	return meeting, nil
}

// Kick removes the named users from a meeting. The counter is decremented by
// the number of ids requested, not the number of rows that actually existed;
// naming an id with no row drifts the counter low. Documented discrepancy.
func (e *Engine) Kick(ctx context.Context, meetingID string, userIDs []string) error {
	ctx, span := e.tracer.Start(ctx, "membership.Kick",
		trace.WithAttributes(
			attribute.String("meeting.id", meetingID),
			attribute.Int("kick.count", len(userIDs)),
		))
	defer span.End()

	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return ErrMeetingNotFound
	}
	if len(userIDs) == 0 {
		return nil
	}

	if _, err := e.store.DeleteParticipations(ctx, meetingID, userIDs); err != nil {
		return apperrors.Wrap(apperrors.CodePersistenceFailure, "delete participations", err)
	}
	if err := e.store.AddParticipants(ctx, meetingID, -len(userIDs)); err != nil {
		return apperrors.Wrap(apperrors.CodePersistenceFailure, "decrement participants", err)
	}
	return nil
}

// Block adds targetID to the identity's blocked set. Blocking self is
// rejected; blocking an already-blocked id writes nothing. Downstream views
// re-derive from the republished profile; no explicit re-filter happens here.
func (e *Engine) Block(ctx context.Context, userID, targetID string) error {
	ctx, span := e.tracer.Start(ctx, "membership.Block")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrAuthenticationRequired
	}

	profile, err := e.loadProfile(ctx, userID)
	if err != nil {
		return err
	}
	changed, err := profile.Block(targetID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	profile.UpdatedAt = e.clock().UTC()
	if err := e.store.PutProfile(ctx, profile); err != nil {
		return apperrors.Wrap(apperrors.CodePersistenceFailure, "persist profile", err)
	}
	return nil
}

// Unblock removes targetID from the identity's blocked set. Removing an id
// that is not present writes nothing.
func (e *Engine) Unblock(ctx context.Context, userID, targetID string) error {
	ctx, span := e.tracer.Start(ctx, "membership.Unblock")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrAuthenticationRequired
	}

	profile, err := e.loadProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !profile.Unblock(strings.TrimSpace(targetID)) {
		return nil
	}
	profile.UpdatedAt = e.clock().UTC()
	if err := e.store.PutProfile(ctx, profile); err != nil {
		return apperrors.Wrap(apperrors.CodePersistenceFailure, "persist profile", err)
	}
	return nil
}

// Withdraw runs the account-removal cascade: for every participation the
// identity holds, decrement that meeting's counter and delete the row; then
// record the cooldown under the identity's phone; then delete the profile.
// Steps run sequentially with no compensating rollback, so a failure partway
// leaves partial cascade state.
func (e *Engine) Withdraw(ctx context.Context, userID string) error {
	ctx, span := e.tracer.Start(ctx, "membership.Withdraw")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrAuthenticationRequired
	}

	profile, err := e.loadProfile(ctx, userID)
	if err != nil {
		return err
	}

	participations, err := e.store.ListParticipationsByUser(ctx, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodePersistenceFailure, "list participations", err)
	}
	for _, participation := range participations {
		if err := e.store.AddParticipants(ctx, participation.MeetingID, -1); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return apperrors.Wrap(apperrors.CodePersistenceFailure, "decrement participants", err)
		}
		if _, err := e.store.DeleteParticipations(ctx, participation.MeetingID, []string{userID}); err != nil {
			return apperrors.Wrap(apperrors.CodePersistenceFailure, "delete participation", err)
		}
	}

	if profile.Phone != "" {
		restriction := domain.Restriction{
			Phone:       profile.Phone,
			UserID:      userID,
			WithdrawnAt: e.clock().UTC(),
		}
		if err := e.store.PutRestriction(ctx, restriction); err != nil {
			return apperrors.Wrap(apperrors.CodePersistenceFailure, "persist restriction", err)
		}
	}

	if err := e.store.DeleteProfile(ctx, userID); err != nil {
		return apperrors.Wrap(apperrors.CodePersistenceFailure, "delete profile", err)
	}
	return nil
}

// Certify grants the certification flag. Certifying an already-certified
// identity writes nothing. Pending-action resumption is the session's job.
func (e *Engine) Certify(ctx context.Context, userID string) (domain.UserProfile, error) {
	ctx, span := e.tracer.Start(ctx, "membership.Certify")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, ErrAuthenticationRequired
	}

	profile, err := e.loadProfile(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if profile.Certified {
		return profile, nil
	}
	profile.Certified = true
	profile.UpdatedAt = e.clock().UTC()
	if err := e.store.PutProfile(ctx, profile); err != nil {
		return domain.UserProfile{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "persist profile", err)
	}
	return profile, nil
}

// CreateProfile persists the profile written at the end of first-run setup.
func (e *Engine) CreateProfile(ctx context.Context, input domain.CreateProfileInput) (domain.UserProfile, error) {
	ctx, span := e.tracer.Start(ctx, "membership.CreateProfile")
	defer span.End()

	profile, err := domain.CreateProfile(input, e.clock, e.idGenerator)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if err := e.store.PutProfile(ctx, profile); err != nil {
		return domain.UserProfile{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "persist profile", err)
	}
	return profile, nil
}

// CompleteAuthentication runs the rejoin gate after the identity provider
// reports a signed-in (userID, phone) pair. A cooldown younger than thirty
// days refuses the identity with the remaining whole days, rounded up.
// Otherwise it reports whether a profile already exists for the identity.
// A brand-new phone identity arrives with no user id yet; the gate still
// runs and the lookup reports no profile.
func (e *Engine) CompleteAuthentication(ctx context.Context, userID, phone string) (domain.UserProfile, bool, error) {
	ctx, span := e.tracer.Start(ctx, "membership.CompleteAuthentication")
	defer span.End()

	userID = strings.TrimSpace(userID)
	phone = strings.TrimSpace(phone)
	if phone != "" {
		restriction, err := e.store.GetRestriction(ctx, phone)
		switch {
		case err == nil:
			now := e.clock().UTC()
			if restriction.Active(now) {
				return domain.UserProfile{}, false, apperrors.WithMetadata(
					apperrors.CodeRejoinRestricted,
					"withdrawn identity is in its cooldown window",
					map[string]string{"remaining_days": strconv.Itoa(restriction.RemainingDays(now))},
				)
			}
		case errors.Is(err, storage.ErrNotFound):
		default:
			return domain.UserProfile{}, false, apperrors.Wrap(apperrors.CodePersistenceFailure, "load restriction", err)
		}
	}

	if userID == "" {
		return domain.UserProfile{}, false, nil
	}
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.UserProfile{}, false, nil
		}
		return domain.UserProfile{}, false, apperrors.Wrap(apperrors.CodePersistenceFailure, "load profile", err)
	}
	return profile, true, nil
}

func (e *Engine) loadProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.UserProfile{}, ErrProfileNotFound
		}
		return domain.UserProfile{}, apperrors.Wrap(apperrors.CodePersistenceFailure, "load profile", err)
	}
	return profile, nil
}
