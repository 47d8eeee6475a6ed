package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/renderer"
	"github.com/glimmer-rt/glimmer/pkg/scene"
)

func main() {
	scenePath := flag.String("scene", "", "Path to a TOML scene file (empty = built-in default scene)")
	width := flag.Int("width", 800, "Output width in pixels")
	height := flag.Int("height", 600, "Output height in pixels")
	frames := flag.Int("frames", 64, "Number of accumulation frames to render")
	samples := flag.Int("spf", 0, "Samples per frame (0 = scene/default setting)")
	mode := flag.String("mode", "", "Render mode override: preview, realistic, position, normal, depth, fresnel, roughness, raydir, noise")
	output := flag.String("output", "output", "Output directory")
	orbit := flag.Int("orbit", 0, "Render an N-frame camera orbit instead of a single view")
	overlay := flag.Bool("overlay", false, "Draw a stats overlay onto the output")
	workers := flag.Int("workers", 0, "Number of render workers (0 = CPU count)")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Glimmer - progressive path tracer")
		fmt.Println("Usage: glimmer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Output is saved to <output>/render_<timestamp>.png, or")
		fmt.Println("<output>/orbit_<nnn>.png frames when -orbit is set.")
		return
	}

	sc, settings, cameraSpec, err := loadScene(*scenePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *mode != "" {
		m, err := core.ParseRenderMode(*mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		settings.Mode = m
	}
	if *samples > 0 {
		settings.SamplesPerFrame = *samples
	}

	if err := os.MkdirAll(*output, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating output directory: %v\n", err)
		os.Exit(1)
	}

	config := renderer.DefaultConfig()
	config.NumWorkers = *workers

	ctx := context.Background()
	if *orbit > 0 {
		err = renderOrbit(ctx, sc, settings, cameraSpec, *width, *height, *frames, *orbit, *output, *overlay, config)
	} else {
		err = renderSingle(ctx, sc, settings, cameraSpec, *width, *height, *frames, *output, *overlay, config)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadScene(path string) (*scene.Scene, core.RenderSettings, scene.CameraSpec, error) {
	if path == "" {
		return scene.Default(), core.DefaultRenderSettings(), scene.DefaultCameraSpec(), nil
	}
	return scene.LoadFile(path)
}

// renderSingle accumulates the requested number of frames from a fixed
// camera and saves the converged result.
func renderSingle(ctx context.Context, sc *scene.Scene, settings core.RenderSettings, cameraSpec scene.CameraSpec, width, height, frames int, output string, overlay bool, config renderer.Config) error {
	fmt.Printf("Rendering %dx%d, %d frames, mode %s...\n", width, height, frames, settings.Mode)

	camera := renderer.NewCamera(cameraSpec, width, height)
	r := renderer.New(sc, camera, settings, width, height, config, nil)
	defer r.Close()

	var final renderer.FrameResult
	frameChan, errChan := r.RenderProgressive(ctx, frames)
	for result := range frameChan {
		final = result
	}
	if err := <-errChan; err != nil {
		return err
	}
	if final.Image == nil {
		return fmt.Errorf("no frames rendered")
	}

	if overlay {
		renderer.DrawStatsOverlay(final.Image, final.Stats)
	}

	path := filepath.Join(output, fmt.Sprintf("render_%s.png", time.Now().Format("20060102_150405")))
	if err := savePNG(path, final.Image); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", path)
	return nil
}

// renderOrbit renders frames from camera positions circling the scene
// origin. Each orbit frame runs its own accumulation sequence, so the
// frames are independent and render in parallel.
func renderOrbit(ctx context.Context, sc *scene.Scene, settings core.RenderSettings, cameraSpec scene.CameraSpec, width, height, frames, orbitFrames int, output string, overlay bool, config renderer.Config) error {
	fmt.Printf("Rendering %d-frame orbit, %dx%d, %d accumulation frames each...\n", orbitFrames, width, height, frames)

	radius := cameraSpec.Position.Len()
	if radius == 0 {
		radius = 3
	}
	elevation := cameraSpec.Position.Y()

	// One render worker per orbit frame; the parallelism lives across
	// frames instead.
	config.NumWorkers = 1

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := 0; i < orbitFrames; i++ {
		g.Go(func() error {
			angle := 2 * math.Pi * float64(i) / float64(orbitFrames)
			position := mgl64.Vec3{radius * math.Sin(angle), elevation, radius * math.Cos(angle)}
			spec := scene.CameraSpec{
				Position:    position,
				Forward:     position.Mul(-1).Normalize(),
				VerticalFOV: cameraSpec.VerticalFOV,
			}

			camera := renderer.NewCamera(spec, width, height)
			r := renderer.New(sc, camera, settings, width, height, config, silentLogger{})
			defer r.Close()

			var img *image.RGBA
			var stats renderer.FrameStats
			for f := 0; f < frames; f++ {
				var err error
				img, stats, err = r.RenderFrame(ctx)
				if err != nil {
					return err
				}
			}

			if overlay {
				renderer.DrawStatsOverlay(img, stats)
			}

			path := filepath.Join(output, fmt.Sprintf("orbit_%03d.png", i))
			if err := savePNG(path, img); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", path)
			return nil
		})
	}

	return g.Wait()
}

type silentLogger struct{}

func (silentLogger) Printf(format string, args ...interface{}) {}

func savePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
