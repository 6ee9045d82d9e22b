package capture

// Preset bundles the tuning knobs for a recording quality level.
type Preset struct {
	Name        string
	FrameRate   int
	Bitrate     int
	MaxLongEdge int
}

var presets = map[string]Preset{
	"balanced":  {Name: "balanced", FrameRate: 30, Bitrate: 4_000_000, MaxLongEdge: 1920},
	"sharp":     {Name: "sharp", FrameRate: 60, Bitrate: 12_000_000, MaxLongEdge: 2560},
	"bandwidth": {Name: "bandwidth", FrameRate: 15, Bitrate: 1_000_000, MaxLongEdge: 1280},
}

// PresetByName looks up a quality preset. Unknown names fall back to
// balanced.
func PresetByName(name string) Preset {
	if p, ok := presets[name]; ok {
		return p
	}
	return presets["balanced"]
}

// PresetNames lists the available preset names.
func PresetNames() []string {
	return []string{"balanced", "sharp", "bandwidth"}
}
