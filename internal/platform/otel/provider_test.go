package otel_test

import (
	"context"
	"testing"

	"github.com/moimlab/moim/internal/platform/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("MOIM_OTEL_ENDPOINT", "")
	t.Setenv("MOIM_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "moim-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupNoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("MOIM_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("MOIM_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "moim-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no actual export happens.
	t.Setenv("MOIM_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("MOIM_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "moim-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
