package config

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	"github.com/banshee-data/cameraman/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// maxConfigFileSize bounds tuning and boundary files.
const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig is the on-disk tuning document. Every section and every key
// is required; pointers distinguish "absent" from a zero value so Validate
// can report exactly what is missing.
type TuningConfig struct {
	Kalman   *KalmanSection   `json:"kalman,omitempty"`
	Camera   *CameraSection   `json:"camera,omitempty"`
	Safety   *SafetySection   `json:"safety,omitempty"`
	Transfer *TransferSection `json:"transfer,omitempty"`
	Boundary *BoundarySection `json:"court_boundary,omitempty"`
}

// KalmanSection holds the two filter tunings.
type KalmanSection struct {
	Base   *FilterSection `json:"base,omitempty"`
	Slider *FilterSection `json:"slider,omitempty"`
}

// FilterSection tunes one scalar filter.
type FilterSection struct {
	VariancePosition    *float64 `json:"variance_position,omitempty"`
	VarianceMeasurement *float64 `json:"variance_measurement,omitempty"`
	ProcessNoise        *float64 `json:"process_noise,omitempty"`
}

// CameraSection holds camera behaviour constants.
type CameraSection struct {
	MemoryLength       *float64 `json:"memory_length,omitempty"` // seconds
	FPS                *float64 `json:"fps,omitempty"`
	SpeedMax           *float64 `json:"speed_max,omitempty"` // px/s
	BufferPixels       *float64 `json:"buffer_pixels,omitempty"`
	PositionMergeRatio *float64 `json:"position_merge_ratio,omitempty"`
	SpeedSliderGain    *float64 `json:"speed_slider_gain,omitempty"`
}

// SafetySection holds detection safety thresholds.
type SafetySection struct {
	NoiseThreshold *float64 `json:"noise_threshold,omitempty"`
	MinPlayers     *int     `json:"min_players,omitempty"`
	BoundaryMargin *float64 `json:"boundary_margin,omitempty"`
}

// TransferSection holds the framing curve endpoints.
type TransferSection struct {
	XMin   *float64 `json:"x_min,omitempty"`
	XMax   *float64 `json:"x_max,omitempty"`
	YMin   *float64 `json:"y_min,omitempty"`
	YMax   *float64 `json:"y_max,omitempty"`
	FOVMin *float64 `json:"fov_min,omitempty"`
	FOVMax *float64 `json:"fov_max,omitempty"`
}

// BoundarySection names the court boundary files. Relative paths are
// resolved against the directory of the tuning file.
type BoundarySection struct {
	Default *string `json:"default,omitempty"`
	User    *string `json:"user,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// LoadTuningConfig loads and validates a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	return LoadTuningConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadTuningConfigFS is LoadTuningConfig over an arbitrary filesystem.
func LoadTuningConfigFS(fsys fsutil.FileSystem, path string) (*TuningConfig, error) {
	data, err := readBounded(fsys, path)
	if err != nil {
		return nil, err
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.resolveBoundaryPaths(filepath.Dir(filepath.Clean(path)))
	return cfg, nil
}

// readBounded validates the extension and size of a JSON file and reads it.
func readBounded(fsys fsutil.FileSystem, path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

func (c *TuningConfig) resolveBoundaryPaths(dir string) {
	for _, p := range []*string{c.Boundary.Default, c.Boundary.User} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func missing(section, key string) error {
	return fmt.Errorf("missing key in %s config: %s", section, key)
}

func requireFloat(section, key string, v *float64) (float64, error) {
	if v == nil {
		return 0, missing(section, key)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%s.%s must be finite, got %v", section, key, *v)
	}
	return *v, nil
}

func validateFilter(name string, f *FilterSection) error {
	if f == nil {
		return fmt.Errorf("missing '%s' in kalman config", name)
	}
	section := "kalman." + name
	pos, err := requireFloat(section, "variance_position", f.VariancePosition)
	if err != nil {
		return err
	}
	meas, err := requireFloat(section, "variance_measurement", f.VarianceMeasurement)
	if err != nil {
		return err
	}
	q, err := requireFloat(section, "process_noise", f.ProcessNoise)
	if err != nil {
		return err
	}
	if pos < 0 || q < 0 {
		return fmt.Errorf("%s variances must be non-negative, got variance_position=%v process_noise=%v", section, pos, q)
	}
	if meas <= 0 {
		return fmt.Errorf("%s.variance_measurement must be positive, got %v", section, meas)
	}
	return nil
}

// Validate checks that every required key is present and in range.
func (c *TuningConfig) Validate() error {
	if c.Kalman == nil {
		return fmt.Errorf("missing 'kalman' section in config")
	}
	if err := validateFilter("base", c.Kalman.Base); err != nil {
		return err
	}
	if err := validateFilter("slider", c.Kalman.Slider); err != nil {
		return err
	}

	if c.Camera == nil {
		return fmt.Errorf("missing 'camera' section in config")
	}
	cam := c.Camera
	memoryLength, err := requireFloat("camera", "memory_length", cam.MemoryLength)
	if err != nil {
		return err
	}
	fps, err := requireFloat("camera", "fps", cam.FPS)
	if err != nil {
		return err
	}
	speedMax, err := requireFloat("camera", "speed_max", cam.SpeedMax)
	if err != nil {
		return err
	}
	bufferPixels, err := requireFloat("camera", "buffer_pixels", cam.BufferPixels)
	if err != nil {
		return err
	}
	mergeRatio, err := requireFloat("camera", "position_merge_ratio", cam.PositionMergeRatio)
	if err != nil {
		return err
	}
	if _, err := requireFloat("camera", "speed_slider_gain", cam.SpeedSliderGain); err != nil {
		return err
	}
	if memoryLength <= 0 {
		return fmt.Errorf("invalid memory_length: must be positive, got %v", memoryLength)
	}
	if fps <= 0 {
		return fmt.Errorf("invalid fps: must be positive, got %v", fps)
	}
	if n := historyCapacity(memoryLength, fps); n == 0 {
		return fmt.Errorf("history capacity rounds to 0 (memory_length=%v, fps=%v)", memoryLength, fps)
	}
	if speedMax <= 0 {
		return fmt.Errorf("invalid speed_max: must be positive, got %v", speedMax)
	}
	if bufferPixels < 0 {
		return fmt.Errorf("invalid buffer_pixels: must be non-negative, got %v", bufferPixels)
	}
	if mergeRatio < 0 || mergeRatio > 1 {
		return fmt.Errorf("position_merge_ratio must be between 0 and 1, got %v", mergeRatio)
	}

	if c.Safety == nil {
		return fmt.Errorf("missing 'safety' section in config")
	}
	if _, err := requireFloat("safety", "noise_threshold", c.Safety.NoiseThreshold); err != nil {
		return err
	}
	if c.Safety.MinPlayers == nil {
		return missing("safety", "min_players")
	}
	if *c.Safety.MinPlayers < 0 {
		return fmt.Errorf("min_players must be non-negative, got %d", *c.Safety.MinPlayers)
	}
	if _, err := requireFloat("safety", "boundary_margin", c.Safety.BoundaryMargin); err != nil {
		return err
	}

	if c.Transfer == nil {
		return fmt.Errorf("missing 'transfer' section in config")
	}
	tr := c.Transfer
	xMin, err := requireFloat("transfer", "x_min", tr.XMin)
	if err != nil {
		return err
	}
	xMax, err := requireFloat("transfer", "x_max", tr.XMax)
	if err != nil {
		return err
	}
	for _, k := range []struct {
		key string
		v   *float64
	}{{"y_min", tr.YMin}, {"y_max", tr.YMax}, {"fov_min", tr.FOVMin}, {"fov_max", tr.FOVMax}} {
		if _, err := requireFloat("transfer", k.key, k.v); err != nil {
			return err
		}
	}
	if xMin == xMax {
		return fmt.Errorf("transfer x_min and x_max must differ, both are %v", xMin)
	}

	if c.Boundary == nil {
		return fmt.Errorf("missing 'court_boundary' section in config")
	}
	if c.Boundary.Default == nil {
		return missing("court_boundary", "default")
	}
	if c.Boundary.User == nil {
		return missing("court_boundary", "user")
	}

	return nil
}

func historyCapacity(memoryLength, fps float64) int {
	return int(math.Round(memoryLength * fps))
}
