package source

import (
	"fmt"

	"github.com/dlscope/dlscope/internal/config"
	"github.com/dlscope/dlscope/internal/datasource"
)

// Build creates the backend declared by one source spec.
func Build(spec config.Source, profiles config.Profiles) (datasource.Backend, error) {
	switch spec.Kind {
	case "directory":
		if spec.Path == "" {
			return nil, fmt.Errorf("directory source %q needs a path", spec.ID)
		}
		return NewDirectory(spec.Path, spec.Extensions...), nil

	case "noise":
		if len(spec.Shape) == 0 {
			return nil, fmt.Errorf("noise source %q needs a shape", spec.ID)
		}
		return NewNoise(spec.Shape...), nil

	case "webcam":
		width, height, buffered := spec.Width, spec.Height, spec.Buffered
		if width <= 0 {
			width = 640
		}
		if height <= 0 {
			height = 480
		}
		if buffered <= 0 {
			buffered = 5
		}
		return NewWebcam(NewSimGrabber(width, height, buffered)), nil

	case "s3":
		if spec.Bucket == "" {
			return nil, fmt.Errorf("s3 source %q needs a bucket", spec.ID)
		}
		region, err := profiles.Region(spec)
		if err != nil {
			return nil, err
		}
		opts := []S3Option{}
		if region != "" {
			opts = append(opts, WithS3Region(region))
		}
		if spec.Profile != "" {
			opts = append(opts, WithS3Profile(spec.Profile))
		}
		return NewS3(spec.Bucket, spec.Prefix, opts...), nil

	case "sqlite":
		if spec.Path == "" {
			return nil, fmt.Errorf("sqlite source %q needs a path", spec.ID)
		}
		return NewSQLite(spec.Path), nil

	case "websocket":
		if spec.URL == "" {
			return nil, fmt.Errorf("websocket source %q needs a url", spec.ID)
		}
		return NewFeed(spec.URL), nil
	}
	return nil, fmt.Errorf("unknown source kind: %q", spec.Kind)
}

// Register builds every declared source and adds it to the registry.
func Register(cfg *config.Dlscope, profiles config.Profiles, reg *datasource.Registry) error {
	for _, spec := range cfg.Sources {
		backend, err := Build(spec, profiles)
		if err != nil {
			return err
		}
		opts := []datasource.Option{
			datasource.WithLoopInterval(cfg.Interval(spec)),
		}
		if spec.ID != "" {
			opts = append(opts, datasource.WithID(spec.ID))
		}
		if spec.Description != "" {
			opts = append(opts, datasource.WithDescription(spec.Description))
		}
		if err := reg.Add(datasource.New(backend, opts...)); err != nil {
			return err
		}
	}
	return nil
}
