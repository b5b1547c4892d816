package engine

import (
	"fmt"

	"github.com/ivlev/camtrace/internal/camera"
	"github.com/ivlev/camtrace/internal/interp"
	"github.com/ivlev/camtrace/internal/scene"
)

// BuildTrace expands sorted keyframes into framesPerSegment poses per
// consecutive pair. onSegment, if set, is called after each segment.
//
// Every segment samples t over [0, 1] inclusive, so its last pose (t=1) sits
// on the next keyframe, which the following segment emits again at t=0.
func BuildTrace(keyframes []camera.Record, params scene.Params, framesPerSegment int, onSegment func()) ([]camera.TraceRecord, error) {
	if params.Downscale < 1 {
		return nil, fmt.Errorf("%w: downscale %d", scene.ErrInvalidScene, params.Downscale)
	}

	segments := len(keyframes) - 1
	if segments < 0 {
		segments = 0
	}
	ts := interp.Samples(framesPerSegment)
	records := make([]camera.TraceRecord, 0, segments*len(ts))

	for i := 0; i < segments; i++ {
		seg, err := buildSegment(&keyframes[i], &keyframes[i+1], params, ts)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		records = append(records, seg...)
		if onSegment != nil {
			onSegment()
		}
	}

	return records, nil
}

// startFields are decoded from the segment's start keyframe only.
type startFields struct {
	id      int
	imgName string
	fx, fy  float64
}

func readPose(r *camera.Record) (interp.Pose, error) {
	position, err := r.Position()
	if err != nil {
		return interp.Pose{}, err
	}
	rotation, err := r.Rotation()
	if err != nil {
		return interp.Pose{}, err
	}
	return interp.Pose{Position: position, Rotation: rotation}, nil
}

func readStart(r *camera.Record) (startFields, error) {
	var f startFields
	var err error
	if f.id, err = r.ID(); err != nil {
		return f, err
	}
	if f.imgName, err = r.ImgName(); err != nil {
		return f, err
	}
	if f.fx, err = r.FX(); err != nil {
		return f, err
	}
	if f.fy, err = r.FY(); err != nil {
		return f, err
	}
	return f, nil
}

func buildSegment(start, end *camera.Record, params scene.Params, ts []float64) ([]camera.TraceRecord, error) {
	startPose, err := readPose(start)
	if err != nil {
		return nil, err
	}
	endPose, err := readPose(end)
	if err != nil {
		return nil, err
	}
	fields, err := readStart(start)
	if err != nil {
		return nil, err
	}

	seg, err := interp.NewSegment(startPose, endPose)
	if err != nil {
		return nil, err
	}

	downscale := float64(params.Downscale)
	base := camera.TraceRecord{
		ID:      fields.id,
		ImgName: fields.imgName,
		Width:   params.Width,
		Height:  params.Height,
		FY:      fields.fy / downscale,
		FX:      fields.fx / downscale,
	}

	out := make([]camera.TraceRecord, 0, len(ts))
	for _, t := range ts {
		rec := base
		if t == 0 {
			rec.Position = startPose.Position
			rec.Rotation = startPose.Rotation
			rec.IsKeyFrame = true
		} else {
			pose := seg.At(t)
			rec.Position = pose.Position
			rec.Rotation = pose.Rotation
		}
		out = append(out, rec)
	}
	return out, nil
}
