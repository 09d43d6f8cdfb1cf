// Command cameraman drives the prediction engine over a sequence of
// detection frames and prints the camera target and framing per frame.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/cameraman/internal/cameraman"
	"github.com/banshee-data/cameraman/internal/config"
	"github.com/banshee-data/cameraman/internal/geom"
	"github.com/banshee-data/cameraman/internal/monitoring"
	"github.com/banshee-data/cameraman/internal/report"
	"github.com/banshee-data/cameraman/internal/version"
)

var (
	configPath = flag.String("config", config.DefaultConfigPath, "Tuning configuration file (.json)")
	framesPath = flag.String("frames", "", "JSON file of detection frames (default: built-in sample)")
	refresh    = flag.Bool("refresh", false, "Re-check the court boundary files before every frame")
	plotPath   = flag.String("plot", "", "Write a PNG time series to this path")
	chartPath  = flag.String("chart", "", "Write an HTML chart to this path")
	verbose    = flag.Bool("v", false, "Log per-frame engine state")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

// Frame is one set of detections.
type Frame struct {
	Players []geom.Point `json:"players"`
	Balls   []geom.Point `json:"balls"`
}

// sampleFrames is a short pan from left-centre towards the right.
var sampleFrames = []Frame{
	{Players: []geom.Point{{X: 500, Y: 300}, {X: 600, Y: 400}}, Balls: []geom.Point{{X: 550, Y: 350}}},
	{Players: []geom.Point{{X: 600, Y: 300}, {X: 700, Y: 400}}, Balls: []geom.Point{{X: 570, Y: 350}}},
	{Players: []geom.Point{{X: 700, Y: 300}, {X: 800, Y: 400}}, Balls: []geom.Point{{X: 580, Y: 350}}},
}

// options collects the flag values so run can be tested without flag state.
type options struct {
	configPath string
	framesPath string
	refresh    bool
	plotPath   string
	chartPath  string
}

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)
	monitoring.Logf("%s starting", version.String())

	opts := options{
		configPath: *configPath,
		framesPath: *framesPath,
		refresh:    *refresh,
		plotPath:   *plotPath,
		chartPath:  *chartPath,
	}
	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("cameraman: %v", err)
	}
}

func loadFrames(path string) ([]Frame, error) {
	if path == "" {
		return sampleFrames, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames: %w", err)
	}
	var frames []Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("failed to parse frames JSON: %w", err)
	}
	return frames, nil
}

func run(opts options, out io.Writer) error {
	cfg, err := config.LoadTuningConfig(opts.configPath)
	if err != nil {
		return err
	}
	provider, err := config.NewProvider(cfg)
	if err != nil {
		return err
	}
	frames, err := loadFrames(opts.framesPath)
	if err != nil {
		return err
	}

	engine, err := cameraman.NewEngine(provider, provider.Params().CourtPoints)
	if err != nil {
		return err
	}

	rec := &report.Recorder{}
	for i, f := range frames {
		if opts.refresh {
			if _, err := provider.RefreshBoundary(); err != nil && !errors.Is(err, config.ErrNoBoundaryFile) {
				monitoring.Logf("boundary refresh failed: %v", err)
			}
		}

		target, err := engine.Predict(f.Players, f.Balls)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		framing, err := engine.Transfer(target)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		info, _ := engine.DebugInfo()
		rec.Add(target, framing, info)

		fmt.Fprintf(out, "frame %d: target_x=%.2f y=%.2f fov=%.2f mean=%.2f speed=%.2f slider=%.4f\n",
			i, target, framing.Y, framing.FOV, info.MeanPlayerPos, info.CalculatedSpeed, info.FocusSlider)
	}

	if opts.plotPath != "" {
		if err := report.WritePlot(opts.plotPath, rec.Frames()); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", opts.plotPath)
	}
	if opts.chartPath != "" {
		if err := report.WriteChart(opts.chartPath, rec.Frames()); err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", opts.chartPath)
	}
	return nil
}
