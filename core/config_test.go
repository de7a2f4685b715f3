// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/postfx/core"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	c := qt.New(t)

	cfg, err := core.LoadConfiguration(filepath.Join(c.TempDir(), "missing.env"))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, core.DefaultConfiguration)
}

func TestLoadConfigurationEnvironment(t *testing.T) {
	c := qt.New(t)
	c.Setenv(core.EnvWidth, "1024")
	c.Setenv(core.EnvHeight, "768")
	c.Setenv(core.EnvFps, "60")
	c.Setenv(core.EnvVSync, "false")
	c.Setenv(core.EnvHost, "GLFW")
	c.Setenv(core.EnvModel, "suzanne.dae")

	cfg, err := core.LoadConfiguration()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Renderer, qt.Equals, core.RendererConfiguration{
		ScreenWidth:  1024,
		ScreenHeight: 768,
		VSync:        false,
		Host:         core.HostGLFW,
	})
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
	c.Assert(cfg.Assets.Model, qt.Equals, "suzanne.dae")
	c.Assert(cfg.Assets.Texture, qt.Equals, "crate.png")
}

func TestLoadConfigurationDotEnv(t *testing.T) {
	c := qt.New(t)

	file := filepath.Join(c.TempDir(), ".env")
	err := os.WriteFile(file, []byte("POSTFX_TEXTURE=bricks.png\nPOSTFX_LOG_LEVEL=debug\nPOSTFX_FPS=30\n"), 0644)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() {
		os.Unsetenv(core.EnvTexture)
		os.Unsetenv(core.EnvLogLevel)
	})
	// the environment wins over the file
	c.Setenv(core.EnvFps, "75")

	cfg, err := core.LoadConfiguration(file)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Assets.Texture, qt.Equals, "bricks.png")
	c.Assert(cfg.Log.Level, qt.Equals, "debug")
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 75)
}

func TestLoadConfigurationInvalid(t *testing.T) {
	c := qt.New(t)

	for key, value := range map[string]string{
		core.EnvWidth: "wide",
		core.EnvFps:   "-1",
		core.EnvHost:  "wayland",
		core.EnvVSync: "sometimes",
	} {
		c.Run(key, func(c *qt.C) {
			c.Setenv(key, value)
			_, err := core.LoadConfiguration()
			c.Assert(errors.Is(err, core.ErrFatalConfiguration), qt.IsTrue)
		})
	}
}

func TestTimeUncapped(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{})
	defer tm.Stop()
	c.Assert(tm.FpsTicker(), qt.IsNil)
	c.Assert(tm.Fps(), qt.Equals, 0)

	capped := core.NewTime(core.TimeConfiguration{FramesPerSecond: 50})
	defer capped.Stop()
	c.Assert(capped.FpsTicker(), qt.Not(qt.IsNil))
	c.Assert(capped.Fps(), qt.Equals, 50)
}
