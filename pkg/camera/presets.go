package camera

import "fmt"

// Preset names for common capture settings
const (
	PresetAuto   = "auto"
	PresetNight  = "night"
	PresetBright = "bright"
	PresetZoom2x = "zoom2x"
)

// Presets returns all available settings presets.
func Presets() map[string]Settings {
	return map[string]Settings{
		PresetAuto:   DefaultSettings(),
		PresetNight:  NightSettings(),
		PresetBright: BrightSettings(),
		PresetZoom2x: Zoom2xSettings(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetAuto, PresetNight, PresetBright, PresetZoom2x}
}

// GetPreset returns a preset by name.
func GetPreset(name string) (Settings, error) {
	s, ok := Presets()[name]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return s, nil
}

// NightSettings favours a brighter exposure for low light.
func NightSettings() Settings {
	s := DefaultSettings()
	s.ISO = 1600
	s.ExposureCompensation = 1.0
	return s
}

// BrightSettings darkens slightly to keep highlights.
func BrightSettings() Settings {
	s := DefaultSettings()
	s.ExposureCompensation = -0.5
	return s
}

// Zoom2xSettings returns 2x zoom with automatic exposure.
func Zoom2xSettings() Settings {
	s := DefaultSettings()
	s.Zoom = 2.0
	return s
}
