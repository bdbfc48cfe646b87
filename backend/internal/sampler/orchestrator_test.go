package sampler

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// Mock implementations for testing

type mockBackend struct {
	pingErr     error
	samplers    []string
	samplersErr error
	generateErr error
	generated   int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockBackend) AvailableSamplers(ctx context.Context) ([]string, error) {
	if m.samplersErr != nil {
		return nil, m.samplersErr
	}
	return m.samplers, nil
}

func (m *mockBackend) Generate(ctx context.Context, req GenerateRequest) (Latent, error) {
	m.generated++
	if m.generateErr != nil {
		return Latent{}, m.generateErr
	}
	out := req.Latent.Clone()
	for i := range out.Data {
		out.Data[i] += 1.0
	}
	return out, nil
}

type mockRecorder struct {
	runs       int
	lastReq    Request
	selections []StrategyID
	runErr     error
}

func (m *mockRecorder) RecordRun(ctx context.Context, runID string, req Request, variants [3]Variant) error {
	m.runs++
	m.lastReq = req
	return m.runErr
}

func (m *mockRecorder) RecordSelection(ctx context.Context, strategy StrategyID, weight float64) error {
	m.selections = append(m.selections, strategy)
	return nil
}

func testRequest() Request {
	return Request{
		Model:      "test-model.safetensors",
		Positive:   "a lighthouse at dusk",
		Latent:     testLatent(),
		Seed:       123,
		Base:       testBase,
		Priorities: [3]float64{0.4, 0.3, 0.3},
	}
}

func newTestOrchestrator(backend Backend) *Orchestrator {
	adapter := NewAdapter(context.Background(), backend)
	prefs := NewPreferenceStore(DefaultPreferenceTuning())
	return NewOrchestrator(adapter, prefs, 150, 20.0)
}

func TestGenerateVariants_FallbackPath(t *testing.T) {
	orch := newTestOrchestrator(nil)
	result := orch.GenerateVariants(context.Background(), testRequest())

	if result.Error != "" {
		t.Fatalf("Unexpected error result: %s", result.Error)
	}
	if result.Seed != 123 {
		t.Errorf("Expected seed 123 echoed back, got %d", result.Seed)
	}
	for i, id := range StrategyOrder {
		v := result.Variants[i]
		if v.Strategy != id {
			t.Errorf("Variant %d: expected strategy %s, got %s", i, id, v.Strategy)
		}
		if !v.UsedFallback {
			t.Errorf("Variant %s: expected fallback with no backend", id)
		}
		if v.ID == "" {
			t.Errorf("Variant %s: missing id", id)
		}
		if v.Latent.Empty() {
			t.Errorf("Variant %s: empty latent", id)
		}
	}
	if result.Variants[0].Params.Steps <= result.Variants[1].Params.Steps {
		t.Errorf("Expected quality steps (%d) > speed steps (%d)",
			result.Variants[0].Params.Steps, result.Variants[1].Params.Steps)
	}
	if !strings.Contains(result.OptimizationState, "Learning disabled") {
		t.Errorf("Expected learning-disabled diagnostic, got %q", result.OptimizationState)
	}
	if !strings.Contains(result.SelectionGuide, "quality") {
		t.Errorf("Selection guide missing strategy descriptions: %q", result.SelectionGuide)
	}
}

func TestGenerateVariants_Deterministic(t *testing.T) {
	orch := newTestOrchestrator(nil)
	req := testRequest()

	a := orch.GenerateVariants(context.Background(), req)
	b := orch.GenerateVariants(context.Background(), req)

	for i := range a.Variants {
		la, lb := a.Variants[i].Latent, b.Variants[i].Latent
		if len(la.Data) != len(lb.Data) {
			t.Fatalf("Variant %d: latent size mismatch", i)
		}
		for j := range la.Data {
			if la.Data[j] != lb.Data[j] {
				t.Fatalf("Variant %d: latents differ at index %d", i, j)
			}
		}
		if a.Variants[i].Params != b.Variants[i].Params {
			t.Errorf("Variant %d: params differ across identical runs", i)
		}
	}
}

func TestGenerateVariants_RealBackend(t *testing.T) {
	backend := &mockBackend{samplers: []string{"euler", "dpmpp_2m"}}
	orch := newTestOrchestrator(backend)
	result := orch.GenerateVariants(context.Background(), testRequest())

	if backend.generated != 3 {
		t.Errorf("Expected 3 backend calls, got %d", backend.generated)
	}
	for _, v := range result.Variants {
		if v.UsedFallback {
			t.Errorf("Variant %s: unexpected fallback with healthy backend", v.Strategy)
		}
	}
	// Derivation must respect the backend's reported inventory
	for _, v := range result.Variants {
		if v.Params.Sampler != "euler" && v.Params.Sampler != "dpmpp_2m" {
			t.Errorf("Variant %s: sampler %q outside backend inventory", v.Strategy, v.Params.Sampler)
		}
	}
}

func TestGenerateVariants_BackendFailureFallsBack(t *testing.T) {
	backend := &mockBackend{
		samplers:    []string{"euler"},
		generateErr: fmt.Errorf("queue full"),
	}
	orch := newTestOrchestrator(backend)
	result := orch.GenerateVariants(context.Background(), testRequest())

	if result.Error != "" {
		t.Fatalf("Backend failure must degrade, not error: %s", result.Error)
	}
	for _, v := range result.Variants {
		if !v.UsedFallback {
			t.Errorf("Variant %s: expected fallback after backend failure", v.Strategy)
		}
		if v.Err != "" {
			t.Errorf("Variant %s: fallback success must not carry an error, got %q", v.Strategy, v.Err)
		}
	}

	// Same input latent and seed, yet three numerically distinct outputs
	q, s := result.Variants[0].Latent, result.Variants[1].Latent
	identical := true
	for i := range q.Data {
		if q.Data[i] != s.Data[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Error("Fallback variants are numerically identical")
	}
}

func TestGenerateVariants_ValidationErrors(t *testing.T) {
	orch := newTestOrchestrator(nil)

	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"bad priorities", func(r *Request) { r.Priorities = [3]float64{0.5, 0.5, 0.5} }},
		{"negative priority", func(r *Request) { r.Priorities = [3]float64{1.2, -0.1, -0.1} }},
		{"zero steps", func(r *Request) { r.Base.Steps = 0 }},
		{"negative cfg", func(r *Request) { r.Base.CFG = -1 }},
		{"denoise too high", func(r *Request) { r.Base.Denoise = 1.5 }},
		{"unknown scheduler", func(r *Request) { r.Base.Scheduler = "cosine" }},
		{"empty latent", func(r *Request) { r.Latent = Latent{} }},
		{"unknown previous selection", func(r *Request) { r.PreviousSelection = "balanced" }},
	}

	for _, tc := range cases {
		req := testRequest()
		tc.mutate(&req)
		result := orch.GenerateVariants(context.Background(), req)

		if result.Error == "" {
			t.Errorf("%s: expected structured error result", tc.name)
			continue
		}
		if !strings.HasPrefix(result.Summary, "ERROR") {
			t.Errorf("%s: summary missing ERROR marker: %q", tc.name, result.Summary)
		}
		for _, v := range result.Variants {
			if v.Err == "" {
				t.Errorf("%s: placeholder variant missing error annotation", tc.name)
			}
		}
	}
}

func TestGenerateVariants_LearningFeedback(t *testing.T) {
	orch := newTestOrchestrator(nil)
	recorder := &mockRecorder{}
	orch.SetRecorder(recorder)

	req := testRequest()
	req.LearningEnabled = true
	req.PreviousSelection = StrategyQuality

	result := orch.GenerateVariants(context.Background(), req)
	if result.Error != "" {
		t.Fatalf("Unexpected error: %s", result.Error)
	}

	if total := orch.Preferences().TotalSelections(); total != 1 {
		t.Errorf("Expected 1 recorded selection, got %d", total)
	}
	if len(recorder.selections) != 1 || recorder.selections[0] != StrategyQuality {
		t.Errorf("Expected selection forwarded to recorder, got %v", recorder.selections)
	}
	if recorder.runs != 1 {
		t.Errorf("Expected run recorded once, got %d", recorder.runs)
	}
	if !strings.Contains(result.OptimizationState, "Learning enabled: 1 selections") {
		t.Errorf("Expected learning diagnostic, got %q", result.OptimizationState)
	}
}

func TestGenerateVariants_LearningDisabledSkipsFeedback(t *testing.T) {
	orch := newTestOrchestrator(nil)

	req := testRequest()
	req.LearningEnabled = false
	req.PreviousSelection = StrategyQuality

	orch.GenerateVariants(context.Background(), req)
	if total := orch.Preferences().TotalSelections(); total != 0 {
		t.Errorf("Expected no feedback recorded with learning disabled, got %d", total)
	}
}

func TestGenerateVariants_BiasShiftsParameters(t *testing.T) {
	orch := newTestOrchestrator(nil)

	req := testRequest()
	req.LearningEnabled = true
	baseline := orch.GenerateVariants(context.Background(), req)

	// Accumulate enough quality feedback to clear the confidence floor
	for i := 0; i < 5; i++ {
		fed := testRequest()
		fed.LearningEnabled = true
		fed.PreviousSelection = StrategyQuality
		orch.GenerateVariants(context.Background(), fed)
	}

	biased := orch.GenerateVariants(context.Background(), req)
	if biased.Variants[0].Params.Steps <= baseline.Variants[0].Params.Steps {
		t.Errorf("Expected quality steps to grow with positive bias: %d vs %d",
			biased.Variants[0].Params.Steps, baseline.Variants[0].Params.Steps)
	}
	// Unfed strategies stay put
	if biased.Variants[1].Params != baseline.Variants[1].Params {
		t.Errorf("Speed parameters drifted without feedback: %+v vs %+v",
			biased.Variants[1].Params, baseline.Variants[1].Params)
	}
}

func TestGenerateVariants_NoneSelection(t *testing.T) {
	orch := newTestOrchestrator(nil)

	// "none" is the combo default; it must behave exactly like an absent
	// previous selection, not fail validation as an unknown strategy
	req := testRequest()
	req.LearningEnabled = true
	req.PreviousSelection = "none"

	result := orch.GenerateVariants(context.Background(), req)
	if result.Error != "" {
		t.Fatalf("Expected a normal run for previous_selection=none, got error %q", result.Error)
	}
	if total := orch.Preferences().TotalSelections(); total != 0 {
		t.Errorf("Expected no feedback recorded for previous_selection=none, got %d", total)
	}
}

func TestGenerateVariants_RecorderSeesResolvedSeed(t *testing.T) {
	orch := newTestOrchestrator(nil)
	recorder := &mockRecorder{}
	orch.SetRecorder(recorder)

	req := testRequest()
	req.Seed = 0
	req.RandomizeSeed = true

	result := orch.GenerateVariants(context.Background(), req)
	if result.Error != "" {
		t.Fatalf("Unexpected error: %s", result.Error)
	}
	if recorder.lastReq.Seed != result.Seed {
		t.Errorf("Recorder saw seed %d but the run used %d", recorder.lastReq.Seed, result.Seed)
	}
	if result.Variants[0].Seed != result.Seed {
		t.Errorf("Variant carries seed %d but the run reports %d", result.Variants[0].Seed, result.Seed)
	}
}

func TestGenerateVariants_RandomizeSeed(t *testing.T) {
	orch := newTestOrchestrator(nil)

	req := testRequest()
	req.RandomizeSeed = true
	a := orch.GenerateVariants(context.Background(), req)
	b := orch.GenerateVariants(context.Background(), req)

	if a.Seed == b.Seed {
		t.Errorf("Expected fresh seeds on randomized runs, got %d twice", a.Seed)
	}
}

func TestGenerateVariants_RecorderFailureIsNonFatal(t *testing.T) {
	orch := newTestOrchestrator(nil)
	orch.SetRecorder(&mockRecorder{runErr: fmt.Errorf("neo4j down")})

	result := orch.GenerateVariants(context.Background(), testRequest())
	if result.Error != "" {
		t.Errorf("History failure must not fail the run: %s", result.Error)
	}
}
