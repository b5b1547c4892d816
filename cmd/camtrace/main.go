package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ivlev/camtrace/internal/config"
	"github.com/ivlev/camtrace/internal/engine"
	"github.com/ivlev/camtrace/internal/logging"
	"github.com/ivlev/camtrace/internal/scene"
)

func main() {
	sceneNamePtr := flag.String("scene_name", "", "Name of the scene (required)")
	inputPtr := flag.String("input_camera_path", "", "Path to input camera json file, or a folder to take the newest .json from (required)")
	outputPtr := flag.String("output_folder", "", "Folder the trace is written to, created if missing (required)")
	modePtr := flag.String("mode", "limit", `Mode of operation: "full" for 40 cameras, "limit" for 2 cameras`)
	maxKeyframesPtr := flag.Int("max_keyframes", 0, "Override the keyframe cap of the mode (0 - mode default)")
	framesPtr := flag.Int("frames_per_segment", 0, "Override the frames per segment of the mode (0 - mode default)")
	scenesPtr := flag.String("scenes", "", "YAML scene catalog merged over the built-in scene table")
	dumpScenesPtr := flag.String("dump-scenes", "", "Write the effective scene catalog to this YAML file and exit")
	logLevelPtr := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	progressPtr := flag.Bool("progress", false, "Show a progress bar while segments are interpolated")

	flag.Parse()

	mode, err := config.ParseMode(*modePtr)
	if err != nil {
		usageError(err)
	}

	cfg := &config.Config{
		SceneName:        *sceneNamePtr,
		InputCameraPath:  *inputPtr,
		OutputFolder:     *outputPtr,
		Mode:             mode,
		MaxKeyframes:     *maxKeyframesPtr,
		FramesPerSegment: *framesPtr,
		ScenesPath:       *scenesPtr,
		LogLevel:         *logLevelPtr,
		ShowProgress:     *progressPtr,
	}

	logger := logging.CreateLogger(logging.LogLevel(cfg.LogLevel), os.Stderr)

	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		log.Fatalf("[-] Failed to load scene catalog: %v", err)
	}

	if *dumpScenesPtr != "" {
		if err := scene.WriteCatalog(catalog, *dumpScenesPtr); err != nil {
			log.Fatalf("[-] Failed to write scene catalog: %v", err)
		}
		fmt.Printf("[+++] Scene catalog (%d scenes) saved to %s\n", catalog.Len(), *dumpScenesPtr)
		return
	}

	if err := cfg.Validate(); err != nil {
		usageError(err)
	}

	project := engine.NewTraceProject(cfg, catalog, logger)
	if cfg.ShowProgress {
		project.Progress = &barProgress{}
	}

	if _, err := project.Run(); err != nil {
		log.Fatalf("[-] Trace generation failed: %v", err)
	}
}

// loadCatalog merges the catalog at cfg.ScenesPath, if any, over the built-in scenes.
func loadCatalog(cfg *config.Config, logger logging.Logger) (*scene.Catalog, error) {
	catalog := scene.Default()
	if cfg.ScenesPath == "" {
		return catalog, nil
	}
	overlay, err := scene.ReadCatalog(cfg.ScenesPath)
	if err != nil {
		return nil, err
	}
	catalog = catalog.Merge(overlay)
	logger.Debug("scene catalog merged", "path", cfg.ScenesPath, "scenes", catalog.Len())
	return catalog, nil
}

func usageError(err error) {
	fmt.Fprintf(os.Stderr, "%s: error: %v\n", os.Args[0], err)
	flag.Usage()
	os.Exit(2)
}
