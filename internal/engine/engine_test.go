package engine

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/camtrace/internal/camera"
	"github.com/ivlev/camtrace/internal/config"
	"github.com/ivlev/camtrace/internal/logging"
	"github.com/ivlev/camtrace/internal/scene"
)

type inputCamera struct {
	ID       int         `json:"id"`
	ImgName  string      `json:"img_name"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Position []float64   `json:"position"`
	Rotation [][]float64 `json:"rotation"`
	FX       float64     `json:"fx"`
	FY       float64     `json:"fy"`
}

func identity() [][]float64 {
	return [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func writeCameras(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cameras.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// threeKeyframes is deliberately unsorted on disk.
func threeKeyframes() []inputCamera {
	return []inputCamera{
		{ID: 2, ImgName: "cam_0003", Width: 10, Height: 10, Position: []float64{1, 1, 0}, Rotation: identity(), FX: 1200, FY: 1100},
		{ID: 0, ImgName: "cam_0001", Width: 10, Height: 10, Position: []float64{0, 0, 0}, Rotation: identity(), FX: 1000, FY: 900},
		{ID: 1, ImgName: "cam_0002", Width: 10, Height: 10, Position: []float64{1, 0, 0}, Rotation: [][]float64{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}, FX: 1100, FY: 1000},
	}
}

func newProject(cfg *config.Config) (*TraceProject, *bytes.Buffer) {
	var out bytes.Buffer
	p := NewTraceProject(cfg, scene.Default(), nil)
	p.Out = &out
	return p, &out
}

func readTrace(t *testing.T, path string) []camera.TraceRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []camera.TraceRecord
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestRunEndToEnd(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "nested", "out")
	cfg := &config.Config{
		SceneName:        "garden",
		InputCameraPath:  writeCameras(t, threeKeyframes()),
		OutputFolder:     outDir,
		Mode:             config.ModeLimit,
		MaxKeyframes:     40,
		FramesPerSegment: 1200,
	}

	p, out := newProject(cfg)
	res, err := p.Run()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "limit_camera_trace.json"), res.Path)
	assert.Equal(t, 2400, res.Count)
	assert.Equal(t, 3, res.Keyframes)
	assert.Equal(t, 2, res.Segments)
	assert.Contains(t, out.String(), "Generated 2400 camera positions")
	assert.Contains(t, out.String(), "Smooth camera trace saved to "+res.Path)

	records := readTrace(t, res.Path)
	require.Len(t, records, 2400)

	assert.True(t, records[0].IsKeyFrame)
	assert.Equal(t, []float64{0, 0, 0}, records[0].Position.Values)
	assert.Equal(t, "cam_0001", records[0].ImgName)

	assert.False(t, records[1199].IsKeyFrame)
	assert.InDeltaSlice(t, []float64{1, 0, 0}, records[1199].Position.Values, 1e-12)
	assert.Equal(t, "cam_0001", records[1199].ImgName)
	assert.Equal(t, 0, records[1199].ID)

	assert.True(t, records[1200].IsKeyFrame)
	assert.Equal(t, []float64{1, 0, 0}, records[1200].Position.Values)
	assert.Equal(t, "cam_0002", records[1200].ImgName)
	assert.Equal(t, 1, records[1200].ID)

	for _, r := range records {
		assert.Equal(t, 1297, r.Width)
		assert.Equal(t, 840, r.Height)
	}
	assert.Equal(t, 250.0, records[0].FX)
	assert.Equal(t, 225.0, records[0].FY)
	assert.Equal(t, 275.0, records[1200].FX)
	assert.Equal(t, 250.0, records[1200].FY)
}

func TestRunStockModes(t *testing.T) {
	var cams []inputCamera
	for i := 0; i < 45; i++ {
		cams = append(cams, inputCamera{
			ID: i, ImgName: "img_" + padded(44-i), Position: []float64{float64(i), 0, 0}, Rotation: identity(), FX: 800, FY: 800,
		})
	}
	input := writeCameras(t, cams)

	tests := []struct {
		mode     config.Mode
		file     string
		count    int
		segments int
	}{
		{config.ModeFull, "smooth_camera_trace.json", 39 * 120, 39},
		{config.ModeLimit, "limit_camera_trace.json", 1200, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := &config.Config{SceneName: "room", InputCameraPath: input, OutputFolder: t.TempDir(), Mode: tt.mode}
			p, _ := newProject(cfg)
			res, err := p.Run()
			require.NoError(t, err)
			assert.Equal(t, tt.file, filepath.Base(res.Path))
			assert.Equal(t, tt.count, res.Count)
			assert.Equal(t, tt.segments, res.Segments)

			records := readTrace(t, res.Path)
			require.Len(t, records, tt.count)
			// the highest index sorts first because names count down
			assert.Equal(t, "img_0000", records[0].ImgName)
			assert.Equal(t, 44, records[0].ID)
			assert.Equal(t, 400.0, records[0].FX)
		})
	}
}

func padded(i int) string {
	s := []byte("0000")
	for pos := 3; pos >= 0 && i > 0; pos-- {
		s[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(s)
}

func TestRunFewerThanTwoKeyframes(t *testing.T) {
	cams := threeKeyframes()[:1]
	cfg := &config.Config{SceneName: "garden", InputCameraPath: writeCameras(t, cams), OutputFolder: t.TempDir(), Mode: config.ModeFull}

	p, out := newProject(cfg)
	res, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Contains(t, out.String(), "Generated 0 camera positions")

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRunUnknownSceneFallback(t *testing.T) {
	cfg := &config.Config{
		SceneName: "backyard", InputCameraPath: writeCameras(t, threeKeyframes()),
		OutputFolder: t.TempDir(), Mode: config.ModeLimit, FramesPerSegment: 10,
	}
	var logs bytes.Buffer
	p, _ := newProject(cfg)
	p.Logger = logging.CreateLogger(logging.LogLevelInfo, &logs)
	res, err := p.Run()
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "unknown scene")
	assert.Contains(t, logs.String(), "bicycle,bonsai,")

	for _, r := range readTrace(t, res.Path) {
		assert.Equal(t, 1920, r.Width)
		assert.Equal(t, 1080, r.Height)
		assert.Equal(t, 1000.0, r.FX)
	}
}

func TestRunCatalogOverride(t *testing.T) {
	overlayPath := filepath.Join(t.TempDir(), "scenes.yaml")
	require.NoError(t, os.WriteFile(overlayPath, []byte("scenes:\n  backyard: {downscale: 8, width: 640, height: 360}\n"), 0644))
	overlay, err := scene.ReadCatalog(overlayPath)
	require.NoError(t, err)

	cfg := &config.Config{
		SceneName: "backyard", InputCameraPath: writeCameras(t, threeKeyframes()),
		OutputFolder: t.TempDir(), Mode: config.ModeLimit, FramesPerSegment: 4,
	}
	p := NewTraceProject(cfg, scene.Default().Merge(overlay), nil)
	p.Out = &bytes.Buffer{}
	res, err := p.Run()
	require.NoError(t, err)

	records := readTrace(t, res.Path)
	require.Len(t, records, 4)
	assert.Equal(t, 640, records[0].Width)
	assert.Equal(t, 125.0, records[0].FX)
}

func TestRunErrorsWriteNothing(t *testing.T) {
	missingFX := threeKeyframes()
	raw := []map[string]interface{}{}
	for _, c := range missingFX {
		raw = append(raw, map[string]interface{}{
			"id": c.ID, "img_name": c.ImgName, "position": c.Position, "rotation": c.Rotation, "fx": c.FX, "fy": c.FY,
		})
	}
	delete(raw[2], "fx") // cam_0002 starts the second segment

	textFX := make([]map[string]interface{}, len(raw))
	for i, r := range raw {
		textFX[i] = map[string]interface{}{}
		for k, v := range r {
			textFX[i][k] = v
		}
	}
	textFX[1]["fx"] = "n/a" // cam_0001 starts the first segment
	textFX[2]["fx"] = 1100.0

	shapeMismatch := threeKeyframes()
	shapeMismatch[0].Rotation = [][]float64{{1, 0}, {0, 1}}

	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("[{"), 0644))

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, err error)
	}{
		{"missing field", writeCameras(t, raw), func(t *testing.T, err error) {
			assert.ErrorIs(t, err, camera.ErrMissingField)
			assert.Contains(t, err.Error(), `"fx"`)
		}},
		{"malformed field on keyframe", writeCameras(t, textFX), func(t *testing.T, err error) {
			assert.Error(t, err)
			assert.NotErrorIs(t, err, camera.ErrMissingField)
			assert.Contains(t, err.Error(), `"fx"`)
		}},
		{"shape mismatch", writeCameras(t, shapeMismatch), func(t *testing.T, err error) {
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "rotation")
		}},
		{"not found", filepath.Join(dir, "nope.json"), func(t *testing.T, err error) {
			assert.ErrorIs(t, err, os.ErrNotExist)
		}},
		{"bad json", broken, func(t *testing.T, err error) {
			assert.Error(t, err)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := filepath.Join(t.TempDir(), "out")
			cfg := &config.Config{
				SceneName: "garden", InputCameraPath: tt.input, OutputFolder: outDir,
				Mode: config.ModeFull, FramesPerSegment: 5,
			}
			p, _ := newProject(cfg)
			res, err := p.Run()
			assert.Nil(t, res)
			tt.check(t, err)

			_, statErr := os.Stat(outDir)
			assert.True(t, os.IsNotExist(statErr), "output folder should not be created on failure")
		})
	}
}

func TestRunIgnoresFieldsOfUnusedCameras(t *testing.T) {
	raw := []map[string]interface{}{
		{"id": 0, "img_name": "a_0001", "position": []float64{0, 0, 0}, "rotation": []float64{1, 0, 0, 0}, "fx": 10, "fy": 10},
		{"id": 1, "img_name": "a_0002", "position": []float64{1, 1, 1}, "rotation": []float64{0, 1, 0, 0}},
		{"img_name": "a_0003", "rotation": [][]float64{{1, 0}, {1}}, "fx": "n/a"},
		{"img_name": "a_0004", "id": "four", "position": "here"},
	}
	cfg := &config.Config{
		SceneName: "drjohnson", InputCameraPath: writeCameras(t, raw),
		OutputFolder: t.TempDir(), Mode: config.ModeLimit,
	}
	p, _ := newProject(cfg)
	res, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 1200, res.Count)

	records := readTrace(t, res.Path)
	require.Len(t, records, 1200)
	assert.Equal(t, "a_0001", records[1199].ImgName)
	assert.Equal(t, 10.0, records[1199].FX)
}

func TestRunInputFolder(t *testing.T) {
	dir := t.TempDir()
	data, err := json.Marshal(threeKeyframes())
	require.NoError(t, err)
	stale := filepath.Join(dir, "old.json")
	require.NoError(t, os.WriteFile(stale, []byte("[{"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	input := filepath.Join(dir, "cameras.json")
	require.NoError(t, os.WriteFile(input, data, 0644))

	cfg := &config.Config{
		SceneName: "garden", InputCameraPath: dir, OutputFolder: dir,
		Mode: config.ModeLimit, FramesPerSegment: 4,
	}

	// the second run must not pick up the trace written by the first
	for i := 0; i < 2; i++ {
		p, out := newProject(cfg)
		res, err := p.Run()
		require.NoError(t, err, "run %d", i)
		assert.Equal(t, input, res.Input)
		assert.Equal(t, 4, res.Count)
		assert.Contains(t, out.String(), "[*] Selected camera file: "+input)
		assert.Equal(t, dir, cfg.InputCameraPath)
	}

	p, _ := newProject(&config.Config{
		SceneName: "garden", InputCameraPath: t.TempDir(), OutputFolder: t.TempDir(), Mode: config.ModeLimit,
	})
	_, err = p.Run()
	assert.Error(t, err)
}

func TestRunMissingImgNameAnywhereFails(t *testing.T) {
	raw := []map[string]interface{}{
		{"id": 0, "img_name": "a_0001", "position": []float64{0, 0, 0}, "rotation": []float64{1}, "fx": 10, "fy": 10},
		{"id": 1, "img_name": "a_0002", "position": []float64{1, 1, 1}, "rotation": []float64{0}, "fx": 10, "fy": 10},
		{"id": 2},
	}
	cfg := &config.Config{SceneName: "garden", InputCameraPath: writeCameras(t, raw), OutputFolder: t.TempDir(), Mode: config.ModeLimit}
	p, _ := newProject(cfg)
	_, err := p.Run()
	assert.ErrorIs(t, err, camera.ErrMissingField)
}

func TestRunInvalidConfig(t *testing.T) {
	p, _ := newProject(&config.Config{SceneName: "garden", Mode: config.ModeLimit})
	_, err := p.Run()
	assert.Error(t, err)

	p, _ = newProject(&config.Config{SceneName: "garden", InputCameraPath: "x.json", OutputFolder: "out", Mode: "fast"})
	_, err = p.Run()
	assert.ErrorIs(t, err, config.ErrInvalidMode)
}

type countingProgress struct {
	total, done, finished int
}

func (c *countingProgress) Start(total int) { c.total = total }
func (c *countingProgress) Increment()      { c.done++ }
func (c *countingProgress) Finish()         { c.finished++ }

func TestRunReportsProgress(t *testing.T) {
	cfg := &config.Config{
		SceneName: "garden", InputCameraPath: writeCameras(t, threeKeyframes()),
		OutputFolder: t.TempDir(), Mode: config.ModeFull, FramesPerSegment: 2,
	}
	p, _ := newProject(cfg)
	progress := &countingProgress{}
	p.Progress = progress

	_, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, progress.total)
	assert.Equal(t, 2, progress.done)
	assert.Equal(t, 1, progress.finished)
}
