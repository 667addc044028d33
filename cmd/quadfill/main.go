// Command quadfill renders scene files to PNG.
//
// Usage:
//
//	quadfill [-o out.png] [-width W] [-height H] [-gpu] [-v] scene.toml...
//
// Each scene is written next to its file with a .png extension, or to -o.
// With several scenes -o names a directory. Without arguments the
// built-in check model is rendered to check.png.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gogpu/quadfill"
	_ "github.com/gogpu/quadfill/gpu" // register the GPU accelerator
	"github.com/gogpu/quadfill/scene"
	"golang.org/x/sync/errgroup"
)

type config struct {
	output  string
	width   int
	height  int
	gpu     bool
	verbose bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.output, "o", "", "output file, or directory when rendering several scenes")
	flag.IntVar(&cfg.width, "width", 0, "override the scene width")
	flag.IntVar(&cfg.height, "height", 0, "override the scene height")
	flag.BoolVar(&cfg.gpu, "gpu", false, "rasterize on the GPU when available")
	flag.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	quadfill.SetLogger(logger)
	if !cfg.gpu {
		quadfill.UnregisterAccelerator()
	}

	if err := run(context.Background(), cfg, flag.Args(), logger); err != nil {
		logger.Error("render failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, paths []string, logger *slog.Logger) error {
	opts := []quadfill.Option{quadfill.WithAccelerator(cfg.gpu)}

	if len(paths) == 0 {
		out := cfg.output
		if out == "" {
			out = "check.png"
		}
		t, err := renderCheck(cfg, opts)
		if err != nil {
			return err
		}
		if err := t.SavePNG(out); err != nil {
			return err
		}
		logger.Info("rendered", "scene", "check", "output", out)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		out := outputPath(cfg.output, path, len(paths) > 1)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := renderScene(cfg, path, out, opts); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Info("rendered", "scene", path, "output", out)
			return nil
		})
	}
	return g.Wait()
}

// outputPath picks the PNG path for one scene.
func outputPath(output, scenePath string, many bool) string {
	png := strings.TrimSuffix(filepath.Base(scenePath), filepath.Ext(scenePath)) + ".png"
	switch {
	case output == "":
		return filepath.Join(filepath.Dir(scenePath), png)
	case many:
		return filepath.Join(output, png)
	default:
		return output
	}
}

func renderScene(cfg config, path, out string, opts []quadfill.Option) error {
	s, err := scene.Load(path)
	if err != nil {
		return err
	}
	if cfg.width > 0 {
		s.Width = cfg.width
	}
	if cfg.height > 0 {
		s.Height = cfg.height
	}
	b, err := s.Build()
	if err != nil {
		return err
	}
	t, err := b.Render(opts...)
	if err != nil {
		return err
	}
	return t.SavePNG(out)
}

// renderCheck draws the check model centered on a white background.
func renderCheck(cfg config, opts []quadfill.Option) (*quadfill.Target, error) {
	w, h := 512, 512
	if cfg.width > 0 {
		w = cfg.width
	}
	if cfg.height > 0 {
		h = cfg.height
	}
	m := quadfill.CheckModel()
	var arena quadfill.Arena
	objects := []quadfill.Object{arena.Object(m, 0, quadfill.Identity())}

	t := quadfill.NewTarget(w, h)
	t.Clear(quadfill.White)
	u, err := quadfill.NewUniforms(t.Viewport(), quadfill.OrthoCamera(t.Viewport(), 1.5))
	if err != nil {
		return nil, err
	}
	out := quadfill.NewOutput(&arena)
	quadfill.Preprocess(m, objects, u, out, opts...)

	r := quadfill.NewRasterizer(opts...)
	defer r.Close()
	r.DrawShards(t, out)
	return t, nil
}
