package renderer

import (
	"image"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/integrator"
)

// Tile is a rectangular region of the image rendered as one unit of work.
type Tile struct {
	ID     int
	Bounds image.Rectangle
}

// NewTileGrid creates a grid of tiles covering the entire image.
func NewTileGrid(width, height, tileSize int) []Tile {
	var tiles []Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, Tile{ID: tileID, Bounds: image.Rect(x0, y0, x1, y1)})
			tileID++
		}
	}

	return tiles
}

// frameContext is the read-only state shared by all tile tasks of one
// frame: the snapshot-bound tracer, the primary-ray cache, the camera
// basis for jitter, and the accumulation target. Tiles have disjoint
// bounds, so workers write to the accumulation buffer without locking.
type frameContext struct {
	tracer      *integrator.PathTracer
	settings    core.RenderSettings
	width       int
	frameIndex  int
	origin      mgl64.Vec3
	primaryRays []mgl64.Vec3
	camRight    mgl64.Vec3
	camUp       mgl64.Vec3
	accum       *AccumBuffer
}

// tileTask is one tile of one frame submitted to the worker pool.
type tileTask struct {
	Bounds image.Rectangle
	TaskID int
	Frame  *frameContext
}

// tileResult reports a completed tile.
type tileResult struct {
	TaskID  int
	Samples int
}

// WorkerPool manages parallel tile rendering.
type WorkerPool struct {
	taskQueue   chan tileTask
	resultQueue chan tileResult
	numWorkers  int
	wg          sync.WaitGroup
}

// NewWorkerPool creates a pool with the given number of workers
// (0 = use the CPU count).
func NewWorkerPool(numWorkers, maxTiles int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		taskQueue:   make(chan tileTask, maxTiles),
		resultQueue: make(chan tileResult, maxTiles),
		numWorkers:  numWorkers,
	}
}

// Start begins all workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

// Stop gracefully shuts down all workers.
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// Submit queues a tile task.
func (wp *WorkerPool) Submit(task tileTask) {
	wp.taskQueue <- task
}

// Result retrieves a completed tile result.
func (wp *WorkerPool) Result() (tileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// NumWorkers returns the number of workers in the pool.
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) run() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		samples := renderTile(task.Frame, task.Bounds)
		wp.resultQueue <- tileResult{TaskID: task.TaskID, Samples: samples}
	}
}

// jitterMagnitude is the sub-pixel anti-aliasing offset applied to primary
// ray directions in the camera's right/up basis.
const jitterMagnitude = 1e-3

// renderTile shades every pixel in the bounds and folds the results into
// the accumulation buffer. Monte-Carlo modes average samplesPerFrame
// independent jittered samples; the flat modes take a single exact sample
// from the primary-ray cache.
func renderTile(fc *frameContext, bounds image.Rectangle) int {
	samplesPerPixel := 1
	if fc.settings.Mode.MonteCarlo() {
		samplesPerPixel = fc.settings.SamplesPerFrame
	}

	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			seed := core.NewPixelSeed(x, y, fc.width, fc.frameIndex)
			base := fc.primaryRays[y*fc.width+x]

			sum := mgl64.Vec3{}
			for s := 0; s < samplesPerPixel; s++ {
				direction := base
				if fc.settings.Mode.MonteCarlo() {
					direction, seed = jitterDirection(base, fc.camRight, fc.camUp, seed)
				}

				var sample mgl64.Vec3
				sample, seed = fc.tracer.SamplePixel(core.NewRay(fc.origin, direction), seed)
				sum = sum.Add(sample)
			}

			frameSample := sum.Mul(1 / float64(samplesPerPixel))
			fc.accum.Add(x, y, frameSample, fc.frameIndex, fc.settings.Accumulate)
			total += samplesPerPixel
		}
	}
	return total
}

// jitterDirection perturbs a primary ray direction by a small random offset
// in the camera's right/up basis.
func jitterDirection(base, right, up mgl64.Vec3, seed core.Seed) (mgl64.Vec3, core.Seed) {
	j, seed := core.Next2D(seed)
	offset := right.Mul((j[0]*2 - 1) * jitterMagnitude).
		Add(up.Mul((j[1]*2 - 1) * jitterMagnitude))
	return base.Add(offset).Normalize(), seed
}
