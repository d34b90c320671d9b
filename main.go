// Command songbook manages a music catalog: songs, playlists and the
// playback queue, stored in a local SQLite file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/llehouerou/songbook/internal/config"
	"github.com/llehouerou/songbook/internal/errmsg"
	"github.com/llehouerou/songbook/internal/library"
	"github.com/llehouerou/songbook/internal/logging"
	"github.com/llehouerou/songbook/internal/playlists"
	"github.com/llehouerou/songbook/internal/search"
	"github.com/llehouerou/songbook/internal/store"
)

var version = "dev"

const usage = `usage: songbook [flags] <command> [args]

commands:
  add [-genre G] PATH...           import music files or directories
  songs [-filter Q] [-sort K] [-desc]
  search [-sort K] [-desc] QUERY   search titles, artists and albums in the catalog
  playlists                        list playlists
  playlist create NAME [-desc D] [-cover URL]
  playlist rename NAME NEWNAME
  playlist delete NAME
  playlist add NAME SONG_ID...
  playlist remove NAME SONG_ID...
  playlist show NAME
  queue show|clear
  queue set|add|remove SONG_ID...
  queue move -by N POSITION...
  verify                           check and repair the catalog schema
  version

sort keys: title, artist, album, duration, added

flags:
`

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("invalid usage")

type app struct {
	st       *store.Store
	lib      *library.Library
	pls      *playlists.Playlists
	searcher *search.Searcher
	log      *slog.Logger
	out      io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("songbook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "additional config file")
	dbPath := fs.String("db", "", "catalog file (overrides db_path)")
	verbose := fs.Bool("v", false, "debug logging")
	dumpMetrics := fs.Bool("metrics", false, "print catalog counters on exit")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	if fs.Arg(0) == "version" {
		fmt.Fprintf(stdout, "songbook %s (schema %d)\n", version, store.LatestVersion)
		return 0
	}

	var extra []string
	if *configPath != "" {
		if _, err := os.Stat(*configPath); err != nil {
			fmt.Fprintln(stderr, errmsg.FormatWith(errmsg.OpInitialize, *configPath, err))
			return 1
		}
		extra = append(extra, *configPath)
	}
	cfg, err := config.Load(extra...)
	if err != nil {
		fmt.Fprintln(stderr, errmsg.Format(errmsg.OpInitialize, err))
		return 1
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger := logging.New(cfg.Log, stderr)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	st, err := store.Open(cfg.DBPath,
		store.WithLogger(logger),
		store.WithRegisterer(reg),
		store.WithBusyTimeout(cfg.BusyTimeout()),
	)
	if err != nil {
		fmt.Fprintln(stderr, errmsg.Format(errmsg.OpCatalogOpen, err))
		return 1
	}
	defer st.Close()

	a := &app{
		st:       st,
		lib:      library.New(st),
		pls:      playlists.New(st),
		searcher: search.NewSearcher(st),
		log:      logger.With("component", "cli"),
		out:      stdout,
	}

	code := 0
	if err := a.dispatch(fs.Arg(0), fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			fs.Usage()
			code = 2
		} else {
			fmt.Fprintln(stderr, err)
			code = 1
		}
	}

	if *dumpMetrics {
		if err := writeMetrics(stderr, reg); err != nil {
			logger.Error("write metrics", "error", err)
		}
	}
	return code
}

func (a *app) dispatch(cmd string, args []string) error {
	switch cmd {
	case "add":
		return a.cmdAdd(args)
	case "songs":
		return a.cmdSongs(args)
	case "search":
		return a.cmdSearch(args)
	case "playlists":
		return a.cmdPlaylists()
	case "playlist":
		return a.cmdPlaylist(args)
	case "queue":
		return a.cmdQueue(args)
	case "verify":
		return a.cmdVerify()
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
