package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/moimlab/moim/internal/errors"
	"github.com/moimlab/moim/internal/platform/id"
)

var (
	// ErrEmptyNickname indicates a missing profile nickname.
	ErrEmptyNickname = apperrors.New(apperrors.CodeProfileNicknameEmpty, "profile nickname is required")
	// ErrInvalidAge indicates a non-positive profile age.
	ErrInvalidAge = apperrors.New(apperrors.CodeProfileInvalidAge, "profile age must be greater than zero")
	// ErrBlockSelf indicates an attempt to block the profile owner's own id.
	ErrBlockSelf = apperrors.New(apperrors.CodeBlockSelf, "cannot block own profile")
)

// UserProfile represents one member identity and its eligibility state.
// The record is owned exclusively by its subject.
type UserProfile struct {
	ID       string
	Phone    string
	Nickname string
	Age      int
	// Certified reports whether the member completed the eligibility declaration.
	Certified      bool
	Interests      []string
	Bio            string
	Location       string
	FollowerCount  int
	FollowingCount int
	// BlockedUserIDs never contains the owner's own id.
	BlockedUserIDs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasBlocked reports whether the profile owner has blocked the given user.
func (p UserProfile) HasBlocked(userID string) bool {
	for _, blocked := range p.BlockedUserIDs {
		if blocked == userID {
			return true
		}
	}
	return false
}

// Block adds targetID to the blocked set. Blocking the owner's own id is
// rejected; blocking an already-blocked id is a no-op. The returned flag
// reports whether the set changed.
func (p *UserProfile) Block(targetID string) (bool, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return false, nil
	}
	if targetID == p.ID {
		return false, ErrBlockSelf
	}
	if p.HasBlocked(targetID) {
		return false, nil
	}
	p.BlockedUserIDs = append(p.BlockedUserIDs, targetID)
	return true, nil
}

// Unblock removes targetID from the blocked set. Removing an id that is not
// present is a no-op. The returned flag reports whether the set changed.
func (p *UserProfile) Unblock(targetID string) bool {
	for i, blocked := range p.BlockedUserIDs {
		if blocked == targetID {
			p.BlockedUserIDs = append(p.BlockedUserIDs[:i], p.BlockedUserIDs[i+1:]...)
			return true
		}
	}
	return false
}

// CreateProfileInput describes the metadata needed to create a profile.
type CreateProfileInput struct {
	Phone     string
	Nickname  string
	Age       int
	Interests []string
	Bio       string
	Location  string
}

// CreateProfile creates a new profile with a generated ID and timestamps.
// Certification always starts false; it is granted only by the declaration flow.
func CreateProfile(input CreateProfileInput, now func() time.Time, idGenerator func() (string, error)) (UserProfile, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateProfileInput(input)
	if err != nil {
		return UserProfile{}, err
	}

	userID, err := idGenerator()
	if err != nil {
		return UserProfile{}, fmt.Errorf("generate profile id: %w", err)
	}

	createdAt := now().UTC()
	return UserProfile{
		ID:        userID,
		Phone:     normalized.Phone,
		Nickname:  normalized.Nickname,
		Age:       normalized.Age,
		Certified: false,
		Interests: normalized.Interests,
		Bio:       normalized.Bio,
		Location:  normalized.Location,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// NormalizeCreateProfileInput trims and validates profile input metadata.
func NormalizeCreateProfileInput(input CreateProfileInput) (CreateProfileInput, error) {
	input.Nickname = strings.TrimSpace(input.Nickname)
	if input.Nickname == "" {
		return CreateProfileInput{}, ErrEmptyNickname
	}
	if input.Age <= 0 {
		return CreateProfileInput{}, ErrInvalidAge
	}
	input.Phone = strings.TrimSpace(input.Phone)
	input.Bio = strings.TrimSpace(input.Bio)
	input.Location = strings.TrimSpace(input.Location)
	normalizedInterests := make([]string, 0, len(input.Interests))
	for _, interest := range input.Interests {
		interest = strings.TrimSpace(interest)
		if interest != "" {
			normalizedInterests = append(normalizedInterests, interest)
		}
	}
	input.Interests = normalizedInterests
	return input, nil
}
