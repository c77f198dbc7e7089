package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"argus/internal/services"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "analysis", "analyze", "model unavailable", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("wrapped error lost its sentinel")
	}
	if !strings.Contains(err.Error(), "analysis") || !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("wrapped message incomplete: %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: %w", context.DeadlineExceeded)
	err := services.Wrap(services.ErrExternalTool, "acquisition", "acquire", "fetch failed", cause)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("lost sentinel")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("lost nested cause")
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "analysis", "analyze", "unknown failure", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("nil marker should default to transient")
	}
}

func TestDetailsClassifiesKind(t *testing.T) {
	cases := map[error]services.Kind{
		services.Wrap(services.ErrResourceExhausted, "s", "op", "m", nil): services.KindResourceExhausted,
		services.Wrap(services.ErrTimeout, "s", "op", "m", nil):           services.KindTimeout,
		services.Wrap(services.ErrValidation, "s", "op", "m", nil):        services.KindValidation,
		services.Wrap(services.ErrConfiguration, "s", "op", "m", nil):     services.KindConfiguration,
		services.Wrap(services.ErrNotFound, "s", "op", "m", nil):          services.KindNotFound,
		fmt.Errorf("deadline: %w", context.DeadlineExceeded):              services.KindTimeout,
	}
	for err, want := range cases {
		if got := services.Details(err).Kind; got != want {
			t.Errorf("Details(%v).Kind = %s, want %s", err, got, want)
		}
	}
}

func TestRunContextRoundTrips(t *testing.T) {
	ctx := services.WithRunID(context.Background(), 7)
	ctx = services.WithStage(ctx, "analysis")
	ctx = services.WithDepth(ctx, "deep")
	ctx = services.WithRequestID(ctx, "corr-1")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("run id = %d, %v", id, ok)
	}
	if name, ok := services.StageFromContext(ctx); !ok || name != "analysis" {
		t.Fatalf("stage = %q, %v", name, ok)
	}
	if depth, ok := services.DepthFromContext(ctx); !ok || depth != "deep" {
		t.Fatalf("depth = %q, %v", depth, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "corr-1" {
		t.Fatalf("request id = %q, %v", rid, ok)
	}

	if _, ok := services.RunIDFromContext(context.Background()); ok {
		t.Fatal("empty context should carry no run id")
	}
}
