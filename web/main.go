package main

import (
	"flag"
	"log"
	"os"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/scene"
	"github.com/glimmer-rt/glimmer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenePath := flag.String("scene", "", "Path to a TOML scene file (empty = default scene)")
	width := flag.Int("width", 800, "Render width in pixels")
	height := flag.Int("height", 600, "Render height in pixels")
	flag.Parse()

	sc := scene.Default()
	settings := core.DefaultRenderSettings()
	cameraSpec := scene.DefaultCameraSpec()
	if *scenePath != "" {
		var err error
		sc, settings, cameraSpec, err = scene.LoadFile(*scenePath)
		if err != nil {
			log.Printf("Error loading scene: %v", err)
			os.Exit(1)
		}
	}

	// Create and start web server
	webServer := server.NewServer(*port, sc, settings, cameraSpec, *width, *height)

	log.Printf("Glimmer Interactive Viewer")
	log.Printf("Visit http://localhost:%d to start rendering", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
