package renderer

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/scene"
)

type testLogger struct{}

func (testLogger) Printf(format string, args ...interface{}) {}

func newTestRenderer(width, height int) *Renderer {
	sc := scene.Default()
	settings := core.DefaultRenderSettings()
	settings.MaxBounces = 2
	camera := NewCamera(scene.DefaultCameraSpec(), width, height)
	config := Config{TileSize: 16, NumWorkers: 2}
	return New(sc, camera, settings, width, height, config, testLogger{})
}

func TestRenderFrameProducesImage(t *testing.T) {
	r := newTestRenderer(32, 24)
	defer r.Close()

	img, stats, err := r.RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Errorf("Image size = %v, want 32x24", img.Bounds())
	}
	if stats.FrameIndex != 1 {
		t.Errorf("First frame index = %d, want 1", stats.FrameIndex)
	}
	if stats.TotalSamples != 32*24*stats.SamplesPerPixel {
		t.Errorf("TotalSamples = %d, want %d", stats.TotalSamples, 32*24*stats.SamplesPerPixel)
	}

	// Every pixel is opaque.
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			if img.RGBAAt(x, y).A != 255 {
				t.Fatalf("Pixel (%d,%d) not opaque", x, y)
			}
		}
	}
}

func TestRenderFrameAccumulates(t *testing.T) {
	r := newTestRenderer(16, 16)
	defer r.Close()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, stats, err := r.RenderFrame(ctx)
		if err != nil {
			t.Fatalf("Frame %d failed: %v", i, err)
		}
		if stats.FrameIndex != i {
			t.Errorf("Frame index = %d, want %d", stats.FrameIndex, i)
		}
	}
}

func TestSettingsChangeResetsAccumulation(t *testing.T) {
	r := newTestRenderer(16, 16)
	defer r.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, _, err := r.RenderFrame(ctx); err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
	}

	settings := r.Settings()
	settings.MaxBounces++
	r.SetSettings(settings)

	_, stats, err := r.RenderFrame(ctx)
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if stats.FrameIndex != 1 {
		t.Errorf("Frame index after settings change = %d, want 1", stats.FrameIndex)
	}
}

func TestSceneEditResetsAccumulation(t *testing.T) {
	r := newTestRenderer(16, 16)
	defer r.Close()

	ctx := context.Background()
	if _, _, err := r.RenderFrame(ctx); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if _, _, err := r.RenderFrame(ctx); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	ids := r.Scene().IDs()
	if err := r.Scene().SetPose(ids[0], mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}); err != nil {
		t.Fatalf("SetPose failed: %v", err)
	}

	_, stats, err := r.RenderFrame(ctx)
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if stats.FrameIndex != 1 {
		t.Errorf("Frame index after scene edit = %d, want 1", stats.FrameIndex)
	}
}

func TestCameraMoveResetsAccumulation(t *testing.T) {
	r := newTestRenderer(16, 16)
	defer r.Close()

	ctx := context.Background()
	if _, _, err := r.RenderFrame(ctx); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if _, _, err := r.RenderFrame(ctx); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	r.UpdateCamera(func(c *Camera) { c.Move(0.1, 0, 0) })

	_, stats, err := r.RenderFrame(ctx)
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if stats.FrameIndex != 1 {
		t.Errorf("Frame index after camera move = %d, want 1", stats.FrameIndex)
	}
}

func TestSetSizeResets(t *testing.T) {
	r := newTestRenderer(16, 16)
	defer r.Close()

	ctx := context.Background()
	if _, _, err := r.RenderFrame(ctx); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	r.SetSize(24, 12)
	img, stats, err := r.RenderFrame(ctx)
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if img.Bounds().Dx() != 24 || img.Bounds().Dy() != 12 {
		t.Errorf("Image size after resize = %v, want 24x12", img.Bounds())
	}
	if stats.FrameIndex != 1 {
		t.Errorf("Frame index after resize = %d, want 1", stats.FrameIndex)
	}
}

func TestSetSizeGrowsTileGrid(t *testing.T) {
	// Growing the output multiplies the tile count well past the old
	// pool's queue capacities. The frame must still complete.
	r := newTestRenderer(16, 16)
	defer r.Close()

	ctx := context.Background()
	if _, _, err := r.RenderFrame(ctx); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	r.SetSize(128, 128)

	done := make(chan error, 1)
	go func() {
		img, stats, err := r.RenderFrame(ctx)
		if err == nil {
			if img.Bounds().Dx() != 128 || img.Bounds().Dy() != 128 {
				t.Errorf("Image size after resize = %v, want 128x128", img.Bounds())
			}
			if stats.FrameIndex != 1 {
				t.Errorf("Frame index after resize = %d, want 1", stats.FrameIndex)
			}
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RenderFrame after resize failed: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("RenderFrame did not complete after growing the output")
	}
}

func TestRenderFrameAfterClose(t *testing.T) {
	r := newTestRenderer(16, 16)

	if _, _, err := r.RenderFrame(context.Background()); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	r.Close()

	if _, _, err := r.RenderFrame(context.Background()); err == nil {
		t.Error("Expected an error from a closed renderer")
	}
}

func TestAccumulationLinearity(t *testing.T) {
	// Averaging N one-sample frames matches a single frame rendered with
	// N samples, up to Monte Carlo noise.
	const frames = 32

	a := newTestRenderer(16, 16)
	defer a.Close()
	var imgA *image.RGBA
	for i := 0; i < frames; i++ {
		img, _, err := a.RenderFrame(context.Background())
		if err != nil {
			t.Fatalf("Frame %d failed: %v", i+1, err)
		}
		imgA = img
	}

	b := newTestRenderer(16, 16)
	defer b.Close()
	settings := b.Settings()
	settings.SamplesPerFrame = frames
	b.SetSettings(settings)
	imgB, _, err := b.RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	var sum float64
	for i := 0; i < len(imgA.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			diff := float64(imgA.Pix[i+c]) - float64(imgB.Pix[i+c])
			sum += math.Abs(diff) / 255
		}
	}
	mean := sum / float64(16*16*3)
	if mean > 0.03 {
		t.Errorf("Mean difference between accumulated and batched frames = %v, want < 0.03", mean)
	}
}

func TestRenderFrameCancelled(t *testing.T) {
	r := newTestRenderer(16, 16)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := r.RenderFrame(ctx); err == nil {
		t.Error("Expected an error from a cancelled context")
	}
}

func TestRenderFrameDeterministic(t *testing.T) {
	// Two renderers over identical scenes produce identical first frames.
	a := newTestRenderer(16, 16)
	defer a.Close()
	b := newTestRenderer(16, 16)
	defer b.Close()

	imgA, _, err := a.RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	imgB, _, err := b.RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	for i := range imgA.Pix {
		if imgA.Pix[i] != imgB.Pix[i] {
			t.Fatal("Identical scenes and seeds produced different frames")
		}
	}
}

func TestRenderProgressive(t *testing.T) {
	r := newTestRenderer(16, 16)
	defer r.Close()

	frameChan, errChan := r.RenderProgressive(context.Background(), 3)

	count := 0
	var last FrameResult
	for result := range frameChan {
		count++
		last = result
	}
	if err := <-errChan; err != nil {
		t.Fatalf("RenderProgressive failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Received %d frames, want 3", count)
	}
	if !last.IsLast {
		t.Error("Final frame should be marked IsLast")
	}
	if last.FrameIndex != 3 {
		t.Errorf("Final frame index = %d, want 3", last.FrameIndex)
	}
}

func TestRenderProgressiveCancellation(t *testing.T) {
	r := newTestRenderer(16, 16)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	frameChan, errChan := r.RenderProgressive(ctx, 0)

	// Read a couple of frames, then disconnect.
	for i := 0; i < 2; i++ {
		select {
		case <-frameChan:
		case <-time.After(10 * time.Second):
			t.Fatal("Timed out waiting for a frame")
		}
	}
	cancel()

	// The stream shuts down: the frame channel closes, and any reported
	// error is the cancellation.
	done := make(chan struct{})
	go func() {
		for range frameChan {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Frame channel did not close after cancellation")
	}

	if err := <-errChan; err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Unexpected error after cancellation: %v", err)
	}
}
