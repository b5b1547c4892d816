package director

import (
	"fmt"
	"sort"

	"github.com/ivlev/camtrace/internal/camera"
)

// sortKeyLen is how many trailing characters of img_name order the keyframes.
const sortKeyLen = 4

// SortKey returns the last four characters of an image name (the whole name
// when it is shorter). Names are expected to end in a zero-padded frame index.
func SortKey(imgName string) string {
	runes := []rune(imgName)
	if len(runes) <= sortKeyLen {
		return imgName
	}
	return string(runes[len(runes)-sortKeyLen:])
}

// SortKeyframes returns a copy of cameras in ascending SortKey order.
// Cameras with equal keys keep their input order.
func SortKeyframes(cameras []camera.Record) ([]camera.Record, error) {
	keys := make([]string, len(cameras))
	for i := range cameras {
		name, err := cameras[i].ImgName()
		if err != nil {
			return nil, err
		}
		keys[i] = SortKey(name)
	}

	order := make([]int, len(cameras))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]] < keys[order[j]]
	})

	sorted := make([]camera.Record, len(cameras))
	for i, idx := range order {
		sorted[i] = cameras[idx]
	}
	return sorted, nil
}

// SelectKeyframes sorts the cameras and keeps at most maxKeyframes of them.
func SelectKeyframes(cameras []camera.Record, maxKeyframes int) ([]camera.Record, error) {
	if maxKeyframes < 0 {
		return nil, fmt.Errorf("negative keyframe cap %d", maxKeyframes)
	}
	sorted, err := SortKeyframes(cameras)
	if err != nil {
		return nil, err
	}
	if len(sorted) > maxKeyframes {
		sorted = sorted[:maxKeyframes]
	}
	return sorted, nil
}
