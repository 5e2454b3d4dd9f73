package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMatchingByCode(t *testing.T) {
	base := New(CodeMeetingCapacityFull, "meeting is full")
	wrapped := fmt.Errorf("join meeting: %w", base)

	if !stderrors.Is(wrapped, New(CodeMeetingCapacityFull, "other text")) {
		t.Fatal("expected code-based match through wrapping")
	}
	if stderrors.Is(wrapped, New(CodeNotFound, "meeting is full")) {
		t.Fatal("expected mismatch for different code")
	}
	if GetCode(wrapped) != CodeMeetingCapacityFull {
		t.Fatalf("code = %q, want %q", GetCode(wrapped), CodeMeetingCapacityFull)
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Fatalf("plain error code = %q, want %q", GetCode(stderrors.New("plain")), CodeUnknown)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodePersistenceFailure, "persist participation", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to remain matchable")
	}
	if err.Error() != "persist participation" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestMetadataExtraction(t *testing.T) {
	err := WithMetadata(CodeRejoinRestricted, "rejoin restricted", map[string]string{"remaining_days": "12"})

	meta := GetMetadata(fmt.Errorf("sign in: %w", err))
	if meta["remaining_days"] != "12" {
		t.Fatalf("remaining_days = %q, want 12", meta["remaining_days"])
	}
	if GetMetadata(stderrors.New("plain")) != nil {
		t.Fatal("expected nil metadata for plain error")
	}
}

func TestSurfaceClassification(t *testing.T) {
	tests := []struct {
		code Code
		want Surface
	}{
		{CodeMeetingTitleEmpty, SurfaceInline},
		{CodeMeetingInvalidCapacity, SurfaceInline},
		{CodeBlockSelf, SurfaceInline},
		{CodeAuthenticationRequired, SurfaceRedirect},
		{CodeCertificationRequired, SurfaceRedirect},
		{CodeRejoinRestricted, SurfaceTerminate},
		{CodeMeetingCapacityFull, SurfaceBlocking},
		{CodePersistenceFailure, SurfaceBlocking},
		{CodeNotFound, SurfaceBlocking},
		{CodeUnknown, SurfaceBlocking},
	}

	for _, tt := range tests {
		if got := tt.code.Surface(); got != tt.want {
			t.Fatalf("surface(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
