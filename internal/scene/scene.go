package scene

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidScene = errors.New("invalid scene parameters")

// Params describes the render target of a scene.
type Params struct {
	Downscale int `yaml:"downscale"` // divisor applied to fx/fy
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
}

// Fallback is used for scene names that are not in the catalog.
var Fallback = Params{Downscale: 1, Width: 1920, Height: 1080}

var builtin = map[string]Params{
	"bicycle":   {Downscale: 4, Width: 1237, Height: 822},
	"flowers":   {Downscale: 4, Width: 1256, Height: 828},
	"stump":     {Downscale: 4, Width: 1245, Height: 825},
	"treehill":  {Downscale: 4, Width: 1267, Height: 832},
	"garden":    {Downscale: 4, Width: 1297, Height: 840},
	"bonsai":    {Downscale: 2, Width: 1559, Height: 1039},
	"kitchen":   {Downscale: 2, Width: 1558, Height: 1039},
	"room":      {Downscale: 2, Width: 1557, Height: 1038},
	"train":     {Downscale: 2, Width: 980, Height: 545},
	"truck":     {Downscale: 2, Width: 979, Height: 546},
	"drjohnson": {Downscale: 1, Width: 1332, Height: 876},
	"playroom":  {Downscale: 1, Width: 1264, Height: 832},
}

// Catalog is a read-only scene name -> Params mapping.
type Catalog struct {
	scenes map[string]Params
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return newCatalog(builtin)
}

func newCatalog(src map[string]Params) *Catalog {
	scenes := make(map[string]Params, len(src))
	for name, p := range src {
		scenes[name] = p
	}
	return &Catalog{scenes: scenes}
}

// Lookup returns the parameters for name. Unknown names yield Fallback and
// false.
func (c *Catalog) Lookup(name string) (Params, bool) {
	if p, ok := c.scenes[name]; ok {
		return p, true
	}
	return Fallback, false
}

// Names lists the known scenes in alphabetical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.scenes))
	for name := range c.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Len() int {
	return len(c.scenes)
}

// Merge returns a new catalog where entries of other replace or extend c.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := newCatalog(c.scenes)
	if other == nil {
		return merged
	}
	for name, p := range other.scenes {
		merged.scenes[name] = p
	}
	return merged
}

func (p Params) Validate() error {
	if p.Downscale < 1 {
		return fmt.Errorf("%w: downscale %d < 1", ErrInvalidScene, p.Downscale)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidScene, p.Width, p.Height)
	}
	return nil
}
