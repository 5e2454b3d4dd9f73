// Package errors provides structured error handling for membership flows.
package errors

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Meeting errors
	CodeMeetingTitleEmpty      Code = "MEETING_TITLE_EMPTY"
	CodeMeetingCategoryEmpty   Code = "MEETING_CATEGORY_EMPTY"
	CodeMeetingLocationEmpty   Code = "MEETING_LOCATION_EMPTY"
	CodeMeetingScheduleEmpty   Code = "MEETING_SCHEDULE_EMPTY"
	CodeMeetingInvalidCapacity Code = "MEETING_INVALID_CAPACITY"
	CodeMeetingCapacityFull    Code = "MEETING_CAPACITY_FULL"

	// Profile errors
	CodeProfileNicknameEmpty Code = "PROFILE_NICKNAME_EMPTY"
	CodeProfileInvalidAge    Code = "PROFILE_INVALID_AGE"
	CodeBlockSelf            Code = "BLOCK_SELF"

	// Gate errors
	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	CodeCertificationRequired  Code = "CERTIFICATION_REQUIRED"
	CodeRejoinRestricted       Code = "REJOIN_RESTRICTED"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
)

// Surface describes how an error is presented to the user.
type Surface int

const (
	// SurfaceBlocking presents a blocking notification; the operation is aborted.
	SurfaceBlocking Surface = iota
	// SurfaceInline presents the message inline on the originating form.
	SurfaceInline
	// SurfaceRedirect routes the user into a gating flow instead of reporting failure.
	SurfaceRedirect
	// SurfaceTerminate presents a blocking notification and ends the session.
	SurfaceTerminate
)

// Surface maps domain codes to their presentation behavior.
func (c Code) Surface() Surface {
	switch c {
	// Inline - validation failures on form input, operation not attempted
	case CodeMeetingTitleEmpty,
		CodeMeetingCategoryEmpty,
		CodeMeetingLocationEmpty,
		CodeMeetingScheduleEmpty,
		CodeMeetingInvalidCapacity,
		CodeProfileNicknameEmpty,
		CodeProfileInvalidAge,
		CodeBlockSelf:
		return SurfaceInline

	// Redirect - gating flows, not treated as failures
	case CodeAuthenticationRequired,
		CodeCertificationRequired:
		return SurfaceRedirect

	// Terminate - session cannot continue
	case CodeRejoinRestricted:
		return SurfaceTerminate

	default:
		return SurfaceBlocking
	}
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata extracts metadata from an error if present.
// Returns nil if the error is not a domain error or has no metadata.
func GetMetadata(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}
