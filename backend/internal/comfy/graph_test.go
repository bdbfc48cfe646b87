package comfy

import (
	"math"
	"testing"

	"triptych/backend/internal/sampler"
)

func samplerNode(t *testing.T, graph map[string]interface{}) map[string]interface{} {
	t.Helper()
	node, ok := graph["5"].(map[string]interface{})
	if !ok {
		t.Fatal("Graph missing KSampler node")
	}
	if node["class_type"] != "KSampler" {
		t.Fatalf("Node 5 is %v, expected KSampler", node["class_type"])
	}
	inputs, ok := node["inputs"].(map[string]interface{})
	if !ok {
		t.Fatal("KSampler node missing inputs")
	}
	return inputs
}

func TestBuildSamplerGraph_WiresParameters(t *testing.T) {
	req := sampler.GenerateRequest{
		Model:    "model.safetensors",
		Positive: "a lighthouse",
		Negative: "blurry",
		Latent:   sampler.NewLatent(80, 60),
		Seed:     42,
		Params: sampler.SamplingParameters{
			Steps: 30, CFG: 7.5, Denoise: 0.9, Sampler: "dpmpp_2m", Scheduler: "karras",
		},
	}
	graph := BuildSamplerGraph(req)

	inputs := samplerNode(t, graph)
	if inputs["seed"] != int64(42) {
		t.Errorf("Expected seed 42, got %v", inputs["seed"])
	}
	if inputs["steps"] != 30 {
		t.Errorf("Expected steps 30, got %v", inputs["steps"])
	}
	if inputs["cfg"] != 7.5 {
		t.Errorf("Expected cfg 7.5, got %v", inputs["cfg"])
	}
	if inputs["sampler_name"] != "dpmpp_2m" || inputs["scheduler"] != "karras" {
		t.Errorf("Expected dpmpp_2m/karras, got %v/%v", inputs["sampler_name"], inputs["scheduler"])
	}

	latentNode := graph["4"].(map[string]interface{})["inputs"].(map[string]interface{})
	if latentNode["width"] != 640 || latentNode["height"] != 480 {
		t.Errorf("Expected 640x480 canvas, got %vx%v", latentNode["width"], latentNode["height"])
	}
}

func TestBuildSamplerGraph_HookAdjustsCFG(t *testing.T) {
	req := sampler.GenerateRequest{
		Latent: sampler.NewLatent(64, 64),
		Params: sampler.SamplingParameters{Steps: 20, CFG: 7.0, Denoise: 1},
		Hook: func(cond, uncond, scale float64) float64 {
			return uncond + (cond-uncond)*scale*1.08
		},
	}
	inputs := samplerNode(t, BuildSamplerGraph(req))

	got, ok := inputs["cfg"].(float64)
	if !ok {
		t.Fatalf("cfg has unexpected type %T", inputs["cfg"])
	}
	if math.Abs(got-7.56) > 1e-9 {
		t.Errorf("Expected hook-adjusted cfg 7.56, got %.4f", got)
	}
}

func TestLatentPixelDims_MinimumCanvas(t *testing.T) {
	w, h := latentPixelDims(sampler.NewLatent(4, 4))
	if w != 512 || h != 512 {
		t.Errorf("Expected 512x512 floor for tiny latents, got %dx%d", w, h)
	}
}

func TestImageToLatent_InvalidInput(t *testing.T) {
	if _, err := imageToLatent([]byte("not an image"), 8, 8); err == nil {
		t.Error("Expected decode error for garbage bytes")
	}
	if _, err := imageToLatent(nil, 0, 8); err == nil {
		t.Error("Expected error for zero width")
	}
}
