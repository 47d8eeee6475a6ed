package renderer

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/integrator"
	"github.com/glimmer-rt/glimmer/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config contains pipeline configuration.
type Config struct {
	TileSize   int // size of each square work tile (64 recommended)
	NumWorkers int // number of parallel workers (0 = use CPU count)
}

// DefaultConfig returns sensible default values.
func DefaultConfig() Config {
	return Config{
		TileSize:   64,
		NumWorkers: 0,
	}
}

// Renderer is the pipeline orchestrator. Per displayed frame it updates
// scene/camera/settings state, rebuilds the primary-ray cache when the
// camera or screen size changed, runs the shading pass across tile
// workers, folds the result into the accumulation buffer, and produces the
// tone-mapped display image. The accumulation buffer and primary-ray cache
// are owned exclusively here and reset atomically between frames.
type Renderer struct {
	mu sync.Mutex

	scene    *scene.Scene
	camera   *Camera
	settings core.RenderSettings
	config   Config
	logger   core.Logger

	width, height int
	tiles         []Tile
	primaryRays   []mgl64.Vec3
	accum         *AccumBuffer
	frameIndex    int

	lastCameraRev uint64
	lastSceneRev  uint64
	lastSettings  core.RenderSettings
	havePrevious  bool

	pool    *WorkerPool
	started bool
	closed  bool
}

// New creates a renderer for the given scene, camera, and output size.
func New(sc *scene.Scene, camera *Camera, settings core.RenderSettings, width, height int, config Config, logger core.Logger) *Renderer {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	tiles := NewTileGrid(width, height, config.TileSize)
	return &Renderer{
		scene:       sc,
		camera:      camera,
		settings:    settings,
		config:      config,
		logger:      logger,
		width:       width,
		height:      height,
		tiles:       tiles,
		primaryRays: make([]mgl64.Vec3, width*height),
		accum:       NewAccumBuffer(width, height),
		pool:        NewWorkerPool(config.NumWorkers, len(tiles)),
	}
}

// Scene returns the editable scene; it carries its own lock.
func (r *Renderer) Scene() *scene.Scene { return r.scene }

// Settings returns the current render settings.
func (r *Renderer) Settings() core.RenderSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// SetSettings replaces the render settings. The change is observed at the
// next frame boundary, never mid-frame.
func (r *Renderer) SetSettings(settings core.RenderSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
}

// UpdateCamera mutates the camera under the renderer's lock so in-flight
// frames never observe a partial pose change.
func (r *Renderer) UpdateCamera(fn func(*Camera)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.camera)
}

// SetSize resizes the output. The accumulation buffer and primary-ray
// cache restart from scratch. The worker pool is rebuilt because its
// queue capacities are sized to the tile count; a grown grid would
// otherwise overflow them and deadlock the submit loop.
func (r *Renderer) SetSize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width && height == r.height {
		return
	}
	r.width = width
	r.height = height
	r.camera.SetScreenSize(width, height)
	r.tiles = NewTileGrid(width, height, r.config.TileSize)
	if r.started {
		r.pool.Stop()
		r.started = false
	}
	r.pool = NewWorkerPool(r.config.NumWorkers, len(r.tiles))
	r.primaryRays = make([]mgl64.Vec3, width*height)
	r.accum.Reset(width, height)
	r.frameIndex = 0
}

// FrameIndex returns the accumulation frame count of the last frame.
func (r *Renderer) FrameIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameIndex
}

// Close shuts down the worker pool. The renderer is unusable afterwards:
// further RenderFrame calls report an error instead of touching the
// stopped pool.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		r.pool.Stop()
		r.started = false
	}
	r.closed = true
}

// RenderFrame renders one frame and returns the display image. If the
// context is cancelled mid-frame, the frame's contribution is discarded
// and the accumulation sequence restarts; each frame is atomic at the
// pixel level, so no partially-blended state ever becomes visible.
func (r *Renderer) RenderFrame(ctx context.Context) (*image.RGBA, FrameStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, FrameStats{}, fmt.Errorf("renderer is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, FrameStats{}, err
	}

	start := time.Now()
	snap := r.scene.Snapshot()

	if reset := r.refreshState(snap); reset {
		r.accum.Reset(r.width, r.height)
		r.frameIndex = 0
	}
	r.frameIndex++

	right, up := r.camera.Basis()
	fc := &frameContext{
		tracer:      integrator.New(snap, r.settings),
		settings:    r.settings,
		width:       r.width,
		frameIndex:  r.frameIndex,
		origin:      r.camera.Position(),
		primaryRays: r.primaryRays,
		camRight:    right,
		camUp:       up,
		accum:       r.accum,
	}

	if !r.started {
		r.pool.Start()
		r.started = true
	}

	for i, tile := range r.tiles {
		r.pool.Submit(tileTask{Bounds: tile.Bounds, TaskID: i, Frame: fc})
	}

	totalSamples := 0
	for range r.tiles {
		result, ok := r.pool.Result()
		if !ok {
			return nil, FrameStats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		totalSamples += result.Samples
	}

	if err := ctx.Err(); err != nil {
		// Discard the in-flight frame: the buffer may hold its partial
		// contribution, so the accumulation sequence restarts.
		r.accum.Reset(r.width, r.height)
		r.frameIndex = 0
		return nil, FrameStats{}, err
	}

	img := r.assembleImage()
	stats := FrameStats{
		FrameIndex:      r.frameIndex,
		Width:           r.width,
		Height:          r.height,
		SamplesPerPixel: totalSamples / (r.width * r.height),
		TotalSamples:    totalSamples,
		Elapsed:         time.Since(start),
	}
	return img, stats, nil
}

// refreshState compares camera/scene/settings against the previous frame
// and reports whether accumulation must restart. The primary-ray cache is
// rebuilt only when the camera (or screen size, which bumps the camera
// revision) changed.
func (r *Renderer) refreshState(snap *scene.Snapshot) bool {
	reset := !r.havePrevious
	r.havePrevious = true

	if rev := r.camera.Revision(); rev != r.lastCameraRev {
		r.lastCameraRev = rev
		r.rebuildPrimaryRays()
		reset = true
	}
	if snap.Revision != r.lastSceneRev {
		r.lastSceneRev = snap.Revision
		reset = true
	}
	if r.settings != r.lastSettings {
		r.lastSettings = r.settings
		reset = true
	}
	return reset
}

// rebuildPrimaryRays recomputes the cached world-space ray direction for
// every pixel. The shading pass reuses the cache every accumulation frame
// until the camera moves.
func (r *Renderer) rebuildPrimaryRays() {
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			r.primaryRays[y*r.width+x] = r.camera.RayDirection(x, y)
		}
	}
}

// assembleImage runs the display pass over the accumulation buffer.
func (r *Renderer) assembleImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			c := Display(r.accum.At(x, y), r.frameIndex, r.settings.Accumulate, r.settings.ToneCurve)
			img.SetRGBA(x, y, toRGBA(c))
		}
	}
	return img
}

// FrameResult contains the result of a single progressive frame.
type FrameResult struct {
	FrameIndex int
	Image      *image.RGBA
	Stats      FrameStats
	IsLast     bool
}

// RenderProgressive renders frames continuously with channel-based
// communication. maxFrames <= 0 renders until the context is cancelled.
// The caller should read from the returned channels in separate
// goroutines.
func (r *Renderer) RenderProgressive(ctx context.Context, maxFrames int) (<-chan FrameResult, <-chan error) {
	frameChan := make(chan FrameResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(frameChan)
		defer close(errChan)

		for i := 0; maxFrames <= 0 || i < maxFrames; i++ {
			img, stats, err := r.RenderFrame(ctx)
			if err != nil {
				errChan <- err
				return
			}

			r.logger.Printf("Frame %d completed in %v (%d samples/pixel)\n",
				stats.FrameIndex, stats.Elapsed, stats.SamplesPerPixel)

			result := FrameResult{
				FrameIndex: stats.FrameIndex,
				Image:      img,
				Stats:      stats,
				IsLast:     maxFrames > 0 && i == maxFrames-1,
			}

			select {
			case frameChan <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return frameChan, errChan
}
