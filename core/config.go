// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment keys read by LoadConfiguration
const (
	EnvWidth    = "POSTFX_WIDTH"
	EnvHeight   = "POSTFX_HEIGHT"
	EnvFps      = "POSTFX_FPS"
	EnvVSync    = "POSTFX_VSYNC"
	EnvHost     = "POSTFX_HOST"
	EnvAssets   = "POSTFX_ASSETS"
	EnvArchive  = "POSTFX_ARCHIVE"
	EnvModel    = "POSTFX_MODEL"
	EnvTexture  = "POSTFX_TEXTURE"
	EnvLogLevel = "POSTFX_LOG_LEVEL"
)

// Window hosts
const (
	HostSDL  = "sdl"
	HostGLFW = "glfw"
)

// Configuration defines a global renderer configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Assets   AssetsConfiguration
	Log      LogConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32

	// VSync makes Swap wait for the display refresh.
	VSync bool

	// Host selects the window system, HostSDL or HostGLFW.
	Host string
}

// AssetsConfiguration names the files the renderer loads on start.
// Directory and Archive are searched first, the built-in shaders last.
type AssetsConfiguration struct {
	Directory string
	Archive   string

	Model   string
	Texture string

	SceneVertexShader       string
	SceneFragmentShader     string
	CompositeVertexShader   string
	CompositeFragmentShader string
}

// LogConfiguration configures logging output
type LogConfiguration struct {
	Level string
}

// DefaultConfiguration is used for every value not set in the environment.
var DefaultConfiguration = Configuration{
	Time: TimeConfiguration{
		FramesPerSecond: 0,
	},
	Renderer: RendererConfiguration{
		ScreenWidth:  800,
		ScreenHeight: 600,
		VSync:        true,
		Host:         HostSDL,
	},
	Assets: AssetsConfiguration{
		Directory:               ".",
		Model:                   "cube.obj",
		Texture:                 "crate.png",
		SceneVertexShader:       "vertex.glsl",
		SceneFragmentShader:     "fragment.glsl",
		CompositeVertexShader:   "postVertexShader.glsl",
		CompositeFragmentShader: "postFragmentShader.glsl",
	},
	Log: LogConfiguration{
		Level: "info",
	},
}

// LoadConfiguration loads the given .env files, skipping the ones that
// do not exist, and reads POSTFX_* variables over DefaultConfiguration.
// Variables already present in the environment win over .env files.
func LoadConfiguration(files ...string) (Configuration, error) {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Configuration{}, errors.Wrap(err, "godotenv.Load(): "+file)
		}
	}
	envy.Reload()

	cfg := DefaultConfiguration
	var err error

	if cfg.Renderer.ScreenWidth, err = envUint32(EnvWidth, cfg.Renderer.ScreenWidth); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.ScreenHeight, err = envUint32(EnvHeight, cfg.Renderer.ScreenHeight); err != nil {
		return Configuration{}, err
	}
	if cfg.Time.FramesPerSecond, err = envInt(EnvFps, cfg.Time.FramesPerSecond); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.VSync, err = envBool(EnvVSync, cfg.Renderer.VSync); err != nil {
		return Configuration{}, err
	}

	cfg.Renderer.Host = strings.ToLower(envy.Get(EnvHost, cfg.Renderer.Host))
	cfg.Assets.Directory = envy.Get(EnvAssets, cfg.Assets.Directory)
	cfg.Assets.Archive = envy.Get(EnvArchive, cfg.Assets.Archive)
	cfg.Assets.Model = envy.Get(EnvModel, cfg.Assets.Model)
	cfg.Assets.Texture = envy.Get(EnvTexture, cfg.Assets.Texture)
	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)

	return cfg, cfg.Validate()
}

// Validate checks values that cannot be rendered with.
func (c Configuration) Validate() error {
	if c.Renderer.ScreenWidth == 0 || c.Renderer.ScreenHeight == 0 {
		return errors.Wrapf(ErrFatalConfiguration, "screen size %dx%d", c.Renderer.ScreenWidth, c.Renderer.ScreenHeight)
	}
	if c.Time.FramesPerSecond < 0 {
		return errors.Wrapf(ErrFatalConfiguration, "frames per second %d", c.Time.FramesPerSecond)
	}
	switch c.Renderer.Host {
	case HostSDL, HostGLFW:
	default:
		return errors.Wrapf(ErrFatalConfiguration, "unknown window host %q", c.Renderer.Host)
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(ErrFatalConfiguration, key+": "+err.Error())
	}
	return v, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.Wrap(ErrFatalConfiguration, key+": "+err.Error())
	}
	return uint32(v), nil
}

func envBool(key string, def bool) (bool, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrap(ErrFatalConfiguration, key+": "+err.Error())
	}
	return v, nil
}
