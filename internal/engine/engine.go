package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/camtrace/internal/camera"
	"github.com/ivlev/camtrace/internal/config"
	"github.com/ivlev/camtrace/internal/director"
	"github.com/ivlev/camtrace/internal/logging"
	"github.com/ivlev/camtrace/internal/scene"
	"github.com/ivlev/camtrace/internal/system"
)

// Progress receives per-segment updates while the trace is built.
type Progress interface {
	Start(total int)
	Increment()
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int)  {}
func (nopProgress) Increment() {}
func (nopProgress) Finish()    {}

type TraceProject struct {
	Config   *config.Config
	Scenes   *scene.Catalog
	Logger   logging.Logger
	Progress Progress
	Out      io.Writer
}

// Result describes a written trace.
type Result struct {
	Input            string // camera file that was read
	Path             string
	Count            int
	Keyframes        int
	Segments         int
	FramesPerSegment int
}

func NewTraceProject(cfg *config.Config, scenes *scene.Catalog, logger logging.Logger) *TraceProject {
	if scenes == nil {
		scenes = scene.Default()
	}
	if logger == nil {
		logger = logging.NopLogger
	}
	return &TraceProject{
		Config:   cfg,
		Scenes:   scenes,
		Logger:   logger,
		Progress: nopProgress{},
		Out:      os.Stdout,
	}
}

// resolveInput maps a folder input to the newest camera file inside it.
// Earlier traces in that folder are never picked, so the output folder may
// double as the input folder.
func (p *TraceProject) resolveInput() (string, error) {
	path := p.Config.InputCameraPath
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		// a missing file is reported by the reader
		return path, nil
	}

	latest, err := system.FindLatestJSON(path, config.TraceSuffix)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(p.Out, "[*] Selected camera file: %s\n", latest)
	return latest, nil
}

// Run loads the keyframes, interpolates every segment and writes the trace file.
// Nothing is written if any step fails.
func (p *TraceProject) Run() (*Result, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	sampling, err := p.Config.Sampling()
	if err != nil {
		return nil, err
	}

	params, known := p.Scenes.Lookup(p.Config.SceneName)
	if !known {
		p.Logger.Warn("unknown scene, using fallback parameters",
			"scene", p.Config.SceneName, "width", params.Width, "height", params.Height,
			"known", strings.Join(p.Scenes.Names(), ","))
	}

	inputPath, err := p.resolveInput()
	if err != nil {
		return nil, err
	}

	cameras, err := camera.ReadRecords(inputPath)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug("cameras loaded", "path", inputPath, "count", len(cameras))

	keyframes, err := director.SelectKeyframes(cameras, sampling.MaxKeyframes)
	if err != nil {
		return nil, err
	}

	segments := 0
	if len(keyframes) > 1 {
		segments = len(keyframes) - 1
	}

	fmt.Fprintf(p.Out, "[*] Scene: %s | downscale %d | %dx%d\n", p.Config.SceneName, params.Downscale, params.Width, params.Height)
	fmt.Fprintf(p.Out, "[*] Mode: %s | Keyframes: %d/%d | Segments: %d x %d frames\n",
		p.Config.Mode, len(keyframes), len(cameras), segments, sampling.FramesPerSegment)

	p.Progress.Start(segments)
	records, err := BuildTrace(keyframes, params, sampling.FramesPerSegment, p.Progress.Increment)
	p.Progress.Finish()
	if err != nil {
		return nil, err
	}

	if err := system.EnsureDir(p.Config.OutputFolder); err != nil {
		return nil, err
	}

	outputPath := filepath.Join(p.Config.OutputFolder, sampling.OutputFileName())
	if err := camera.WriteRecords(outputPath, records); err != nil {
		return nil, err
	}

	fmt.Fprintf(p.Out, "Generated %d camera positions\n", len(records))
	fmt.Fprintf(p.Out, "Smooth camera trace saved to %s\n", outputPath)

	return &Result{
		Input:            inputPath,
		Path:             outputPath,
		Count:            len(records),
		Keyframes:        len(keyframes),
		Segments:         segments,
		FramesPerSegment: sampling.FramesPerSegment,
	}, nil
}
