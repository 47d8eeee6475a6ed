package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"sync"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/renderer"
	"github.com/glimmer-rt/glimmer/pkg/scene"
)

// Server owns one interactive render session: a scene, a camera, and a
// renderer that accumulates frames until an edit arrives. Edits land
// through the API endpoints between frames; the renderer notices the
// revision change and restarts accumulation on its own.
type Server struct {
	port     int
	renderer *renderer.Renderer
	scene    *scene.Scene

	// Only one SSE stream may drive the renderer at a time.
	streamMu sync.Mutex
}

// NewServer creates a web server with a fresh render session.
func NewServer(port int, sc *scene.Scene, settings core.RenderSettings, cameraSpec scene.CameraSpec, width, height int) *Server {
	settings.HighlightIndex = sc.SelectedIndex()
	camera := renderer.NewCamera(cameraSpec, width, height)
	r := renderer.New(sc, camera, settings, width, height, renderer.DefaultConfig(), nil)
	return &Server{
		port:     port,
		renderer: r,
		scene:    sc,
	}
}

// FrameUpdate is a single progressive frame sent via SSE.
type FrameUpdate struct {
	FrameIndex      int    `json:"frameIndex"`
	ImageData       string `json:"imageData"` // Base64 encoded PNG
	SamplesPerPixel int    `json:"samplesPerPixel"`
	TotalSamples    int    `json:"totalSamples"`
	ElapsedMs       int64  `json:"elapsedMs"`
}

// Start starts the web server.
func (s *Server) Start() error {
	// Serve static files
	http.Handle("/", http.FileServer(http.Dir("static/")))

	// API endpoints
	http.HandleFunc("/api/health", s.handleHealth)
	http.HandleFunc("/api/stream", s.handleStream)
	http.HandleFunc("/api/settings", s.handleSettings)
	http.HandleFunc("/api/camera", s.handleCamera)
	http.HandleFunc("/api/scene", s.handleScene)
	http.HandleFunc("/api/scene/add", s.handleSceneAdd)
	http.HandleFunc("/api/scene/remove", s.handleSceneRemove)
	http.HandleFunc("/api/scene/update", s.handleSceneUpdate)
	http.HandleFunc("/api/scene/select", s.handleSceneSelect)

	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, nil)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStream streams progressive frames via SSE until the client
// disconnects. Edits made through the other endpoints show up in the
// stream as a restarted accumulation sequence.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.streamMu.TryLock() {
		http.Error(w, "a render stream is already active", http.StatusConflict)
		return
	}
	defer s.streamMu.Unlock()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Use request context to detect client disconnection
	ctx := r.Context()

	frameChan, errChan := s.renderer.RenderProgressive(ctx, 0)
	for result := range frameChan {
		imageData, err := imageToBase64PNG(result.Image)
		if err != nil {
			s.sendSSEError(w, fmt.Sprintf("failed to encode image: %v", err))
			return
		}

		update := FrameUpdate{
			FrameIndex:      result.FrameIndex,
			ImageData:       imageData,
			SamplesPerPixel: result.Stats.SamplesPerPixel,
			TotalSamples:    result.Stats.TotalSamples,
			ElapsedMs:       result.Stats.Elapsed.Milliseconds(),
		}
		if err := s.sendSSEUpdate(w, update); err != nil {
			return
		}
	}

	if err := <-errChan; err != nil && ctx.Err() == nil {
		s.sendSSEError(w, fmt.Sprintf("Render error: %v", err))
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// sendSSEUpdate sends a frame update via SSE
func (s *Server) sendSSEUpdate(w http.ResponseWriter, update FrameUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return s.sendSSEEvent(w, "frame", string(data))
}

// sendSSEError sends an error via SSE
func (s *Server) sendSSEError(w http.ResponseWriter, message string) error {
	return s.sendSSEEvent(w, "error", message)
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	if flusher, ok := w.(http.Flusher); ok {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
