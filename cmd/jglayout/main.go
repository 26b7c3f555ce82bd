package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"justified-gallery/internal/canvas"
	"justified-gallery/internal/gallery"
	"justified-gallery/internal/media"
	"justified-gallery/internal/probe"
	"justified-gallery/internal/startup"

	"golang.org/x/term"
)

const (
	defaultWidth = 1200
	// pixelsPerColumn turns a terminal width into a plausible container width.
	pixelsPerColumn = 8
	defaultTimeout  = time.Minute
)

type options struct {
	width     float64
	rowHeight float64
	margins   float64
	lastRow   string
	settings  string
	baseURL   string
	workers   int
	timeout   time.Duration
	dir       string
	// set holds the names of flags given on the command line.
	set map[string]bool
}

// terminal reports whether stdout is a terminal and its width in columns.
type terminal func() (isTerminal bool, columns int)

func stdoutTerminal() (bool, int) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return false, 0
	}
	columns, _, err := term.GetSize(fd)
	if err != nil {
		return true, 0
	}
	return true, columns
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	// HEIC and AVIF sizes need libvips; other formats are read without it.
	if err := media.InitVips(0); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: libvips unavailable: %v\n", err)
	}
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, stdoutTerminal)
	media.ShutdownVips()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, tty terminal) int {
	isTerminal, columns := tty()
	opts, err := parseFlags(args, stderr, columns)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	result, err := layout(ctx, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	if isTerminal {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "Error: writing layout: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer, columns int) (options, error) {
	width := float64(defaultWidth)
	if columns > 0 {
		width = float64(columns * pixelsPerColumn)
	}

	var opts options
	fs := flag.NewFlagSet("jglayout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: jglayout [flags] <dir>")
		fs.PrintDefaults()
	}
	fs.Float64Var(&opts.width, "width", width, "container width in pixels")
	fs.Float64Var(&opts.rowHeight, "row-height", 0, "target row height")
	fs.Float64Var(&opts.margins, "margins", 0, "spacing between tiles")
	fs.StringVar(&opts.lastRow, "last-row", "", "last row mode (justify, nojustify, left, center, right, hide)")
	fs.StringVar(&opts.settings, "settings", "", "YAML gallery settings file")
	fs.StringVar(&opts.baseURL, "base-url", "", "probe images over HTTP below this URL")
	fs.IntVar(&opts.workers, "workers", 0, "concurrent probes (0 picks a default)")
	fs.DurationVar(&opts.timeout, "timeout", defaultTimeout, "upper bound for the layout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errors.New("expected exactly one directory")
	}
	if opts.width <= 0 {
		return options{}, fmt.Errorf("width must be positive, got %v", opts.width)
	}
	opts.dir = fs.Arg(0)
	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// settingsFor layers the command line flags over the settings file.
func settingsFor(opts options) (gallery.Settings, error) {
	base, err := startup.LoadGallerySettings(opts.settings)
	if err != nil {
		return gallery.Settings{}, err
	}
	// Sources are probed as given, there are no thumbnails to upgrade to.
	base.ThumbnailPath = func(src string, _, _ int) string { return src }

	overrides := map[string]any{}
	if opts.set["row-height"] {
		overrides["rowHeight"] = opts.rowHeight
	}
	if opts.set["margins"] {
		overrides["margins"] = opts.margins
	}
	if opts.set["last-row"] {
		overrides["lastRow"] = opts.lastRow
	}
	return gallery.ApplyOptions(base, overrides)
}

func layout(ctx context.Context, opts options) (canvas.Result, error) {
	settings, err := settingsFor(opts)
	if err != nil {
		return canvas.Result{}, err
	}

	lib := media.NewLibrary(opts.dir)
	listing, err := lib.Listing(ctx, "")
	if err != nil {
		return canvas.Result{}, fmt.Errorf("listing %s: %w", opts.dir, err)
	}

	var prober probe.Prober
	if opts.baseURL != "" {
		prober = probe.NewHTTPProber(strings.TrimSuffix(opts.baseURL, "/")+"/", opts.timeout)
	} else {
		files := probe.NewFileProber(opts.dir, "")
		prober = probe.Chain{files, media.VipsProber{Files: files}}
	}
	probes := probe.NewDispatcher(prober, probe.DispatcherConfig{Workers: opts.workers})
	defer probes.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return canvas.Render(ctx, canvas.New(opts.width, items(listing.Images, opts.baseURL != "")), probes, settings)
}

func items(images []media.Image, escape bool) []gallery.Item {
	out := make([]gallery.Item, 0, len(images))
	for _, img := range images {
		src := img.Path
		if escape {
			segments := strings.Split(img.Path, "/")
			for i, s := range segments {
				segments[i] = url.PathEscape(s)
			}
			src = strings.Join(segments, "/")
		}
		name := strings.TrimSuffix(img.Name, path.Ext(img.Name))
		out = append(out, gallery.Item{ID: img.Path, Src: src, Alt: name, Title: name})
	}
	return out
}
