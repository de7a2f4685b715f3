// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/postfx/assets"
	"github.com/devblok/postfx/core"
	"github.com/devblok/postfx/gfx/glr"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

// Overrides for values read from the environment
var (
	envFile     = flag.String("env", ".env", "Configuration file to load when present")
	width       = flag.Uint("width", 0, "Window width")
	height      = flag.Uint("height", 0, "Window height")
	fps         = flag.Int("fps", 0, "Frames per second cap, 0 is uncapped")
	vsync       = flag.Bool("vsync", true, "Wait for the display refresh on swap")
	hostName    = flag.String("host", "", "Window host, sdl or glfw")
	assetDir    = flag.String("assets", "", "Directory searched for assets")
	archive     = flag.String("archive", "", "kar archive searched for assets before the directory")
	modelFile   = flag.String("model", "", "Model file, .obj or .dae")
	textureFile = flag.String("texture", "", "Texture image")
	logLevel    = flag.String("log", "", "Log level")
	counter     = flag.Bool("count", false, "Print frames per second")
)

// host is a window that owns the OpenGL context current on this thread.
type host interface {
	core.Window
	Destroy()
}

func newHost(cfg core.RendererConfiguration) (host, error) {
	switch cfg.Host {
	case core.HostGLFW:
		return newGLFWHost(cfg)
	default:
		return newSDLHost(cfg)
	}
}

func applyFlags(cfg *core.Configuration) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Renderer.ScreenWidth = uint32(*width)
		case "height":
			cfg.Renderer.ScreenHeight = uint32(*height)
		case "fps":
			cfg.Time.FramesPerSecond = *fps
		case "vsync":
			cfg.Renderer.VSync = *vsync
		case "host":
			cfg.Renderer.Host = strings.ToLower(*hostName)
		case "assets":
			cfg.Assets.Directory = *assetDir
		case "archive":
			cfg.Assets.Archive = *archive
		case "model":
			cfg.Assets.Model = *modelFile
		case "texture":
			cfg.Assets.Texture = *textureFile
		case "log":
			cfg.Log.Level = *logLevel
		}
	})
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	cfg, err := core.LoadConfiguration(*envFile)
	if err != nil {
		log.WithError(err).Error("Configuration failed")
		return 1
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("Configuration failed")
		return 1
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithError(err).Error("Configuration failed")
		return 1
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	src, closeSource, err := assets.Sources(cfg.Assets)
	if err != nil {
		log.WithError(err).Error("Assets unavailable")
		return 1
	}
	defer closeSource()

	loaded, err := assets.Load(src, cfg.Assets, log.StandardLogger())
	if err != nil {
		log.WithError(err).Error("Assets unavailable")
		return 1
	}

	window, err := newHost(cfg.Renderer)
	if err != nil {
		log.WithError(err).Error("Window creation failed")
		return 1
	}
	defer window.Destroy()

	dev, err := glr.New()
	if err != nil {
		log.WithError(err).Error("OpenGL unavailable")
		return 1
	}
	log.WithFields(log.Fields{
		"version":  dev.Version(),
		"renderer": dev.Renderer(),
	}).Info("OpenGL device")

	driver, err := core.NewFrameDriver(window, dev, loaded, cfg, log.StandardLogger())
	if err != nil {
		log.WithError(err).Error("Renderer initialisation failed")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	counterCtx, cancelCounter := context.WithCancel(ctx)
	programSync := sync.WaitGroup{}
	if *counter {
		programSync.Add(1)
		go countFrames(counterCtx, &programSync, driver)
	}

	err = driver.Run(ctx)
	cancelCounter()
	programSync.Wait()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
	}

	if err != nil && errors.Cause(err) != context.Canceled {
		log.WithError(err).Error("Event loop failed")
		return 1
	}
	log.Info("Event loop exited")
	return 0
}

func countFrames(ctx context.Context, wg *sync.WaitGroup, driver *core.FrameDriver) {
	defer wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last int64
CounterLoop:
	for {
		select {
		case <-ctx.Done():
			break CounterLoop
		case <-ticker.C:
			current := driver.Frames()
			fmt.Printf("\r\033[2KFrames per second: %d\tCGO calls: %d", current-last, runtime.NumCgoCall())
			last = current
		}
	}
	fmt.Println()
}
