package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sightline/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sightline/internal/adapters/driven/embedding/gateway"
	"github.com/custodia-labs/sightline/internal/adapters/driven/guidance"
	"github.com/custodia-labs/sightline/internal/adapters/driven/sensors/dircam"
	"github.com/custodia-labs/sightline/internal/adapters/driven/sensors/udpcompass"
	"github.com/custodia-labs/sightline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sightline/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/core/services"
	"github.com/custodia-labs/sightline/internal/logger"
)

// headingWindow is the number of compass readings averaged by the feed.
const headingWindow = 5

// Options are the root flags shared by every command.
type Options struct {
	Verbose   bool
	DataDir   string
	ConfigDir string
	Ephemeral bool
}

// frameSource is a camera that also holds the frames it captured.
type frameSource interface {
	driven.Camera
	driven.FrameStore
}

// embeddingGateway is the embedding service with person detection.
type embeddingGateway interface {
	driven.ImageEmbedder
	driven.PersonDetector
}

// Runtime wires adapters into services for one command invocation.
// Stores and settings are opened eagerly; sensors and the gateway are
// opened on first use so commands like "path list" need neither.
type Runtime struct {
	Settings  *services.SettingsService
	App       domain.AppSettings
	Paths     driven.PathStore
	Locations driven.LocationStore

	out io.Writer

	camera   frameSource
	compass  driven.Compass
	steps    driven.StepCounter
	gateway  embeddingGateway
	guidance driven.GuidanceSink
	speech   driven.GuidanceSink

	closers []func() error
}

// openRuntime builds the runtime for a command. Tests replace it.
var openRuntime = newRuntime

func newRuntime(opts Options, out io.Writer) (*Runtime, error) {
	rt := &Runtime{out: out}

	var config driven.ConfigStore
	if opts.Ephemeral {
		config = memory.NewConfigStore()
	} else {
		store, err := file.NewConfigStore(opts.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		config = store
	}
	rt.Settings = services.NewSettingsService(config)

	app, err := rt.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	rt.App = *app

	if opts.Ephemeral {
		rt.Paths = memory.NewPathStore()
		rt.Locations = memory.NewLocationStore()
		return rt, nil
	}

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("runtime: database at %s", store.Path())
	rt.Paths = store.PathStore()
	rt.Locations = store.LocationStore()
	rt.closers = append(rt.closers, store.Close)
	return rt, nil
}

// withRuntime opens a runtime, runs fn and closes it.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *Runtime) error) error {
	rt, err := openRuntime(rootOpts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runErr := fn(ctx, rt)
	if err := rt.Close(); err != nil {
		logger.Warn("runtime: close: %v", err)
	}
	return runErr
}

// Camera returns the frame source, opening the frames directory on first use.
func (rt *Runtime) Camera() (frameSource, error) {
	if rt.camera != nil {
		return rt.camera, nil
	}
	dir := rt.App.Sensors.FramesDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".sightline", "frames")
	}
	cam, err := dircam.New(dircam.Config{FramesDir: dir})
	if err != nil {
		return nil, fmt.Errorf("open camera at %s: %w", dir, err)
	}
	rt.camera = cam
	rt.closers = append(rt.closers, cam.Close)
	return cam, nil
}

// Compass returns the compass, which also counts steps when the feed
// carries them.
func (rt *Runtime) Compass() driven.Compass {
	if rt.compass == nil {
		c := udpcompass.New(rt.App.Sensors.CompassAddr)
		rt.compass = c
		if rt.steps == nil {
			rt.steps = c
		}
	}
	return rt.compass
}

// Gateway returns the embedding gateway client.
func (rt *Runtime) Gateway() embeddingGateway {
	if rt.gateway == nil {
		c := gateway.NewClient(gateway.Config{
			BaseURL:   rt.App.Gateway.BaseURL,
			Timeout:   rt.App.Gateway.Timeout,
			RateLimit: rt.App.Gateway.RateLimit,
		})
		rt.gateway = c
		rt.closers = append(rt.closers, c.Close)
	}
	return rt.gateway
}

// Guidance returns the console sink announcing to the command output.
func (rt *Runtime) Guidance() driven.GuidanceSink {
	if rt.guidance == nil {
		c := guidance.NewConsole(rt.out, guidance.WithTimestamps())
		rt.guidance = c
		rt.closers = append(rt.closers, c.Close)
	}
	return rt.guidance
}

// Speech returns a sink writing to the configured speech output, or nil
// when none is set. Unlike Guidance it never writes to the terminal, so
// it can run beside the dashboard.
func (rt *Runtime) Speech() (driven.GuidanceSink, error) {
	if rt.speech != nil {
		return rt.speech, nil
	}
	path := rt.App.Sensors.SpeechOutput
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open speech output %s: %w", path, err)
	}
	c := guidance.NewConsole(f)
	rt.speech = c
	rt.closers = append(rt.closers, f.Close, c.Close)
	return c, nil
}

// Headings starts a heading feed on the compass that runs until ctx is done.
func (rt *Runtime) Headings(ctx context.Context) *services.HeadingFeed {
	feed := services.NewHeadingFeed(headingWindow)
	compass := rt.Compass()
	go func() {
		if err := feed.Run(ctx, compass); err != nil && ctx.Err() == nil {
			logger.Warn("compass: %v", err)
		}
	}()
	return feed
}

// Recorder builds a path recorder.
func (rt *Runtime) Recorder() (*services.Recorder, error) {
	cam, err := rt.Camera()
	if err != nil {
		return nil, err
	}
	gw := rt.Gateway()
	rt.Compass()
	deps := services.RecorderDeps{
		Camera:   cam,
		Frames:   cam,
		Embedder: gw,
		Steps:    rt.steps,
		Paths:    rt.Paths,
		Guidance: rt.Guidance(),
	}
	if rt.App.Recording.RemovePeople {
		deps.Detector = gw
	}
	return services.NewRecorder(deps, rt.App.Recording), nil
}

// Localizer builds a scan localizer.
func (rt *Runtime) Localizer() (*services.Localizer, error) {
	cam, err := rt.Camera()
	if err != nil {
		return nil, err
	}
	return services.NewLocalizer(services.LocalizerDeps{
		Camera:    cam,
		Frames:    cam,
		Embedder:  rt.Gateway(),
		Locations: rt.Locations,
		Guidance:  rt.Guidance(),
	}, rt.App.Scan), nil
}

// Navigator builds a navigator announcing to sink.
func (rt *Runtime) Navigator(sink driven.GuidanceSink) (*services.Navigator, error) {
	cam, err := rt.Camera()
	if err != nil {
		return nil, err
	}
	return services.NewNavigator(services.NavigatorDeps{
		Camera:   cam,
		Frames:   cam,
		Embedder: rt.Gateway(),
		Guidance: sink,
	}, rt.App.Navigation), nil
}

// PathService builds the path catalogue service.
func (rt *Runtime) PathService() *services.PathService {
	return services.NewPathService(rt.Paths)
}

// Close releases everything the runtime opened, newest first.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
