package camera

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ivlev/camtrace/internal/system"
)

var ErrMissingField = errors.New("missing required field")

// Field names of the input schema.
const (
	FieldID       = "id"
	FieldImgName  = "img_name"
	FieldPosition = "position"
	FieldRotation = "rotation"
	FieldFX       = "fx"
	FieldFY       = "fy"
)

// Record is one input camera. Fields stay undecoded until first use, so
// cameras that are never selected are never checked.
type Record struct {
	RawID       json.RawMessage `json:"id"`
	RawImgName  json.RawMessage `json:"img_name"`
	RawPosition json.RawMessage `json:"position"`
	RawRotation json.RawMessage `json:"rotation"`
	RawFX       json.RawMessage `json:"fx"`
	RawFY       json.RawMessage `json:"fy"`

	Index int `json:"-"` // position in the input array
}

func (r *Record) ID() (int, error) {
	var id int
	err := r.decode(FieldID, r.RawID, &id)
	return id, err
}

func (r *Record) ImgName() (string, error) {
	var name string
	err := r.decode(FieldImgName, r.RawImgName, &name)
	return name, err
}

func (r *Record) Position() (Tensor, error) {
	var t Tensor
	err := r.decode(FieldPosition, r.RawPosition, &t)
	return t, err
}

func (r *Record) Rotation() (Tensor, error) {
	var t Tensor
	err := r.decode(FieldRotation, r.RawRotation, &t)
	return t, err
}

func (r *Record) FX() (float64, error) {
	var f float64
	err := r.decode(FieldFX, r.RawFX, &f)
	return f, err
}

func (r *Record) FY() (float64, error) {
	var f float64
	err := r.decode(FieldFY, r.RawFY, &f)
	return f, err
}

// decode parses one field; absent and null values are ErrMissingField.
func (r *Record) decode(field string, raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w %q in camera #%d", ErrMissingField, field, r.Index)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("camera #%d field %q: %w", r.Index, field, err)
	}
	return nil
}

// TraceRecord is one output pose.
type TraceRecord struct {
	ID         int     `json:"id"`
	ImgName    string  `json:"img_name"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Position   Tensor  `json:"position"`
	Rotation   Tensor  `json:"rotation"`
	FY         float64 `json:"fy"`
	FX         float64 `json:"fx"`
	IsKeyFrame bool    `json:"is_key_frame"`
}

// ReadRecords loads the camera array from a JSON file.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cameras: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode cameras %s: %w", path, err)
	}

	for i := range records {
		records[i].Index = i
	}
	return records, nil
}

// WriteRecords writes the trace as 4-space indented JSON. The file at path is
// replaced only once the whole document has been written.
func WriteRecords(path string, records []TraceRecord) error {
	if records == nil {
		records = []TraceRecord{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	return system.WriteFileAtomic(path, data, 0644)
}
