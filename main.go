package main

import (
	"log/slog"
	"os"

	"gifblobber/inspect"
	"gifblobber/parallel"
	"gifblobber/thumb"

	"github.com/alecthomas/kong"
)

type cli struct {
	LogLevel  string `help:"Minimum level to log" enum:"debug,info,warn,error" default:"info"`
	LogFormat string `help:"Log output format" enum:"text,json" default:"text"`
	Workers   int    `help:"Number of files processed in parallel, 0 for one per CPU" default:"0"`

	Thumb   thumb.CLICmd   `cmd:"" help:"Decode GIF files and write scaled RGBA thumbnails"`
	Inspect inspect.CLICmd `cmd:"" help:"Decode GIF files and report what they contain"`
}

func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("gifblobber"),
		kong.Description("Decode GIF images and resample them to RGBA."),
		kong.UsageOnError(),
	)

	if err := setupLogging(c.LogLevel, c.LogFormat); err != nil {
		kctx.FatalIfErrorf(err)
	}

	slog.Debug("running", "command", kctx.Command(), "workers", c.Workers)

	pool := parallel.Start(c.Workers)
	err := kctx.Run(pool.Do, pool.Wait)
	pool.Cancel()
	kctx.FatalIfErrorf(err)
}
