// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"bytes"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/postfx/core"
	"github.com/devblok/postfx/model"
)

// LoadShader returns the source text of a shader. A missing file gives
// empty text, which then fails to compile and is reported as a
// diagnostic of the program.
func LoadShader(src Source, name string, logger logrus.FieldLogger) (string, error) {
	data, err := src.ReadFile(name)
	if IsNotExist(err) {
		logger.WithField("file", name).Warn("shader source not found")
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "assets.LoadShader(): "+name)
	}
	return string(data), nil
}

// LoadGeometry imports a model, the format is chosen by extension:
// .obj for Wavefront and .dae for Collada.
func LoadGeometry(src Source, name string) (model.GeometryBuffer, error) {
	data, err := src.ReadFile(name)
	if err != nil {
		return model.GeometryBuffer{}, errors.Wrap(err, "assets.LoadGeometry(): "+name)
	}

	var geometry model.GeometryBuffer
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".obj":
		geometry, err = model.ImportOBJ(bytes.NewReader(data))
	case ".dae":
		geometry, err = model.ImportCollada(data)
	default:
		return model.GeometryBuffer{}, errors.Errorf("assets.LoadGeometry(): %s: unsupported model format %q", name, ext)
	}
	if err != nil {
		return model.GeometryBuffer{}, errors.Wrap(err, "assets.LoadGeometry(): "+name)
	}
	return geometry, nil
}

// LoadTexture decodes an image into an RGB texture.
func LoadTexture(src Source, name string) (model.Texture2D, error) {
	data, err := src.ReadFile(name)
	if err != nil {
		return model.Texture2D{}, errors.Wrap(err, "assets.LoadTexture(): "+name)
	}
	texture, _, err := model.DecodeTexture(bytes.NewReader(data))
	if err != nil {
		return model.Texture2D{}, errors.Wrap(err, "assets.LoadTexture(): "+name)
	}
	return texture, nil
}

// Load reads everything the frame driver needs. Model and texture
// errors are fatal, missing shaders are not.
func Load(src Source, cfg core.AssetsConfiguration, logger logrus.FieldLogger) (core.Assets, error) {
	var (
		assets core.Assets
		err    error
	)

	if assets.Geometry, err = LoadGeometry(src, cfg.Model); err != nil {
		return core.Assets{}, errors.Wrap(core.ErrFatalConfiguration, err.Error())
	}
	if assets.Texture, err = LoadTexture(src, cfg.Texture); err != nil {
		return core.Assets{}, errors.Wrap(core.ErrFatalConfiguration, err.Error())
	}

	for _, shader := range []struct {
		name string
		dst  *string
	}{
		{cfg.SceneVertexShader, &assets.SceneVertex},
		{cfg.SceneFragmentShader, &assets.SceneFragment},
		{cfg.CompositeVertexShader, &assets.CompositeVertex},
		{cfg.CompositeFragmentShader, &assets.CompositeFragment},
	} {
		if *shader.dst, err = LoadShader(src, shader.name, logger); err != nil {
			return core.Assets{}, err
		}
	}

	logger.WithFields(logrus.Fields{
		"model":    cfg.Model,
		"texture":  cfg.Texture,
		"vertices": assets.Geometry.VertexCount,
	}).Info("assets loaded")
	return assets, nil
}

// Sources builds the search chain for a configuration: the archive,
// then the directory, then the built-in resources. The returned
// function releases the archive.
func Sources(cfg core.AssetsConfiguration) (Source, func() error, error) {
	var chain Chain
	closer := func() error { return nil }

	if cfg.Archive != "" {
		ar, err := OpenArchive(cfg.Archive)
		if err != nil {
			return nil, nil, errors.Wrap(core.ErrFatalConfiguration, err.Error())
		}
		chain = append(chain, ar)
		closer = ar.Close
	}
	if cfg.Directory != "" {
		chain = append(chain, Dir(cfg.Directory))
	}
	chain = append(chain, Builtin())
	return chain, closer, nil
}
