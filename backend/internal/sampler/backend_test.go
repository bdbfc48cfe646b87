package sampler

import (
	"context"
	"fmt"
	"testing"
)

func TestNewAdapter_NilBackend(t *testing.T) {
	a := NewAdapter(context.Background(), nil)
	if a.Available() {
		t.Error("Expected nil backend to be unavailable")
	}
	if len(a.SupportedSamplers()) == 0 {
		t.Error("Expected builtin sampler set with no backend")
	}
}

func TestNewAdapter_UnreachableBackend(t *testing.T) {
	backend := &mockBackend{pingErr: fmt.Errorf("connection refused")}
	a := NewAdapter(context.Background(), backend)
	if a.Available() {
		t.Error("Expected unreachable backend to be unavailable")
	}
}

func TestNewAdapter_CachesInventory(t *testing.T) {
	backend := &mockBackend{samplers: []string{"euler", "heun"}}
	a := NewAdapter(context.Background(), backend)
	if !a.Available() {
		t.Fatal("Expected backend available")
	}
	got := a.SupportedSamplers()
	if len(got) != 2 || got[0] != "euler" || got[1] != "heun" {
		t.Errorf("Expected introspected inventory, got %v", got)
	}
}

func TestNewAdapter_IntrospectionFailureFallsBack(t *testing.T) {
	backend := &mockBackend{samplersErr: fmt.Errorf("bad gateway")}
	a := NewAdapter(context.Background(), backend)
	if !a.Available() {
		t.Fatal("Expected backend available despite introspection failure")
	}
	if len(a.SupportedSamplers()) != len(builtinSamplers) {
		t.Errorf("Expected builtin set after introspection failure, got %v", a.SupportedSamplers())
	}
}

func TestAdapterGenerate_FallbackFailureReturnsInputUnchanged(t *testing.T) {
	a := NewAdapter(context.Background(), nil)

	// A latent with dimensions but no samples cannot be transformed; the
	// only valid output is the input itself, annotated
	input := Latent{Width: 4, Height: 4}
	req := GenerateRequest{
		Latent: input,
		Seed:   42,
		Params: SamplingParameters{Denoise: 1},
	}
	v := a.Generate(context.Background(), MustStrategy(StrategyQuality), req)
	if !v.UsedFallback {
		t.Error("Expected fallback flag set")
	}
	if v.Err == "" {
		t.Error("Expected error annotation when even the fallback cannot run")
	}
	if v.Latent.Width != input.Width || v.Latent.Height != input.Height || len(v.Latent.Data) != 0 {
		t.Errorf("Expected the input latent back unchanged, got %dx%d with %d samples",
			v.Latent.Width, v.Latent.Height, len(v.Latent.Data))
	}
}
