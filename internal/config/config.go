package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidMode = errors.New("invalid mode")

// Mode selects how many keyframes are used and how densely each segment is sampled.
type Mode string

const (
	ModeFull  Mode = "full"
	ModeLimit Mode = "limit"
)

// ModeParams are the sampling parameters bound to a Mode.
type ModeParams struct {
	MaxKeyframes     int
	FramesPerSegment int
	SaveName         string // prefix of <SaveName>_camera_trace.json
}

var modes = map[Mode]ModeParams{
	ModeFull:  {MaxKeyframes: 40, FramesPerSegment: 120, SaveName: "smooth"},
	ModeLimit: {MaxKeyframes: 2, FramesPerSegment: 1200, SaveName: "limit"},
}

// ParseMode accepts exactly "full" or "limit".
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := modes[m]; !ok {
		return "", fmt.Errorf("%w: %q (expected full or limit)", ErrInvalidMode, s)
	}
	return m, nil
}

// Params returns the stock parameters of the mode.
func (m Mode) Params() (ModeParams, error) {
	p, ok := modes[m]
	if !ok {
		return ModeParams{}, fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
	}
	return p, nil
}

type Config struct {
	SceneName        string
	InputCameraPath  string
	OutputFolder     string
	Mode             Mode
	MaxKeyframes     int // overrides the mode cap when > 0
	FramesPerSegment int // overrides the mode density when > 0
	ScenesPath       string
	LogLevel         string
	ShowProgress     bool
}

// Validate checks the fields every run needs.
func (c *Config) Validate() error {
	var missing []string
	if c.SceneName == "" {
		missing = append(missing, "scene_name")
	}
	if c.InputCameraPath == "" {
		missing = append(missing, "input_camera_path")
	}
	if c.OutputFolder == "" {
		missing = append(missing, "output_folder")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required arguments missing: %s", strings.Join(missing, ", "))
	}
	if _, err := c.Mode.Params(); err != nil {
		return err
	}
	if c.MaxKeyframes < 0 {
		return fmt.Errorf("max_keyframes must not be negative: %d", c.MaxKeyframes)
	}
	if c.FramesPerSegment < 0 {
		return fmt.Errorf("frames_per_segment must not be negative: %d", c.FramesPerSegment)
	}
	return nil
}

// Sampling resolves the mode parameters with any overrides applied.
func (c *Config) Sampling() (ModeParams, error) {
	p, err := c.Mode.Params()
	if err != nil {
		return ModeParams{}, err
	}
	if c.MaxKeyframes > 0 {
		p.MaxKeyframes = c.MaxKeyframes
	}
	if c.FramesPerSegment > 0 {
		p.FramesPerSegment = c.FramesPerSegment
	}
	return p, nil
}

// TraceSuffix ends every trace file name.
const TraceSuffix = "_camera_trace.json"

// OutputFileName is the trace file name written inside OutputFolder.
func (p ModeParams) OutputFileName() string {
	return p.SaveName + TraceSuffix
}
