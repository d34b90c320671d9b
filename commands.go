package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	dbutil "github.com/llehouerou/songbook/internal/db"
	"github.com/llehouerou/songbook/internal/errmsg"
	"github.com/llehouerou/songbook/internal/library"
	"github.com/llehouerou/songbook/internal/playlists"
	"github.com/llehouerou/songbook/internal/search"
	"github.com/llehouerou/songbook/internal/tags"
)

func subcommand(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", errUsage, fs.Name(), err)
	}
	return nil
}

type importStats struct {
	added, existing, failed int
}

func (a *app) cmdAdd(args []string) error {
	flags := subcommand("add")
	genre := flags.String("genre", "", "genre to link instead of the tagged one")
	if err := parseFlags(flags, args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("%w: add needs at least one path", errUsage)
	}

	var stats importStats
	for _, root := range flags.Args() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !tags.IsMusicFile(path) {
				return nil
			}
			a.importFile(path, *genre, &stats)
			return nil
		})
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpImportFile, root, err))
		}
	}

	fmt.Fprintf(a.out, "%s added, %s already in catalog, %s failed\n",
		humanize.Comma(int64(stats.added)),
		humanize.Comma(int64(stats.existing)),
		humanize.Comma(int64(stats.failed)))
	if stats.failed > 0 {
		return fmt.Errorf("%s files could not be imported", humanize.Comma(int64(stats.failed)))
	}
	return nil
}

func (a *app) importFile(path, genre string, stats *importStats) {
	t, err := tags.Read(path)
	if err != nil {
		a.log.Warn(errmsg.FormatWith(errmsg.OpImportTags, path, err))
		stats.failed++
		return
	}
	if genre == "" {
		genre = t.Genre
	}

	f := library.SongFields{
		Title:       t.Title,
		FilePath:    t.Path,
		Duration:    t.Duration.Milliseconds(),
		TrackNumber: t.TrackNumber,
	}
	id, created, err := a.lib.ImportSong(f, t.Artists, genre)
	if err != nil {
		a.log.Warn(errmsg.FormatWith(errmsg.OpImportFile, path, err))
		stats.failed++
		return
	}

	if t.Album != "" {
		album := t.Album
		err := a.lib.UpdateSongMetadata(t.Path, library.MetadataUpdate{
			Artists: t.Artists,
			Album:   &album,
		})
		if err != nil {
			a.log.Warn(errmsg.FormatWith(errmsg.OpImportFile, path, err))
			stats.failed++
			return
		}
	}

	if created {
		a.log.Debug("imported", "id", id, "path", path)
		stats.added++
	} else {
		stats.existing++
	}
}

func sortFlags(fs *flag.FlagSet) (sortBy *string, desc *bool) {
	sortBy = fs.String("sort", "", "sort key: title, artist, album, duration, added")
	desc = fs.Bool("desc", false, "sort descending")
	return sortBy, desc
}

func applySort(songs []library.Song, sortBy string, desc bool) ([]library.Song, error) {
	if sortBy == "" {
		return songs, nil
	}
	key, err := search.ParseKey(sortBy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	return search.Sort(songs, key, !desc), nil
}

func (a *app) cmdSongs(args []string) error {
	fs := subcommand("songs")
	filter := fs.String("filter", "", "only songs whose title, artist or album contains this text")
	sortBy, desc := sortFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	songs, err := a.lib.Songs()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLibraryLoad, err))
	}
	songs = search.Filter(songs, *filter)
	if songs, err = applySort(songs, *sortBy, *desc); err != nil {
		return err
	}
	return writeSongs(a.out, songs)
}

func (a *app) cmdSearch(args []string) error {
	fs := subcommand("search")
	sortBy, desc := sortFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: search takes one query", errUsage)
	}

	songs, err := a.searcher.Search(fs.Arg(0))
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpLibrarySearch, fs.Arg(0), err))
	}
	if songs, err = applySort(songs, *sortBy, *desc); err != nil {
		return err
	}
	return writeSongs(a.out, songs)
}

func (a *app) cmdPlaylists() error {
	list, err := a.pls.List()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpPlaylistLoad, err))
	}
	return writePlaylists(a.out, list)
}

func (a *app) cmdPlaylist(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: playlist needs an action and a playlist", errUsage)
	}
	action, ref, rest := args[0], args[1], args[2:]

	if action == "create" {
		return a.createPlaylist(ref, rest)
	}

	pl, err := a.resolvePlaylist(ref)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpPlaylistLoad, ref, err))
	}

	switch action {
	case "show":
		songs, err := a.pls.Songs(pl.ID)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpPlaylistLoad, pl.Name, err))
		}
		return writePlaylistSongs(a.out, songs)
	case "delete":
		if err := a.pls.Delete(pl.ID); err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpPlaylistDelete, pl.Name, err))
		}
		fmt.Fprintf(a.out, "deleted %s\n", pl.Name)
	case "rename":
		if len(rest) != 1 {
			return fmt.Errorf("%w: rename takes a new name", errUsage)
		}
		if err := a.pls.Rename(pl.ID, rest[0]); err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpPlaylistRename, pl.Name, err))
		}
		fmt.Fprintf(a.out, "renamed %s to %s\n", pl.Name, rest[0])
	case "add":
		ids, err := parseIDs(rest)
		if err != nil {
			return err
		}
		report, err := a.pls.AddSongs(pl.ID, ids)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpPlaylistAdd, pl.Name, err))
		}
		writeAddReport(a.out, report)
	case "remove":
		ids, err := parseIDs(rest)
		if err != nil {
			return err
		}
		n, err := a.pls.RemoveSongs(pl.ID, ids)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpPlaylistRemove, pl.Name, err))
		}
		fmt.Fprintf(a.out, "removed %d songs\n", n)
	default:
		return fmt.Errorf("%w: unknown playlist action %q", errUsage, action)
	}
	return nil
}

func (a *app) createPlaylist(name string, args []string) error {
	fs := subcommand("playlist create")
	desc := fs.String("desc", "", "description")
	cover := fs.String("cover", "", "cover art URL")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id, err := a.pls.Create(name, *desc, *cover)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpPlaylistCreate, name, err))
	}
	fmt.Fprintf(a.out, "playlist %d: %s\n", id, name)
	return nil
}

// resolvePlaylist accepts a numeric id or a playlist name.
func (a *app) resolvePlaylist(ref string) (*playlists.Playlist, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		pl, err := a.pls.Get(id)
		if !errors.Is(err, dbutil.ErrNotFound) {
			return pl, err
		}
	}
	return a.pls.GetByName(ref)
}

func (a *app) cmdQueue(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: queue needs an action", errUsage)
	}
	q := a.pls.Queue()
	action, rest := args[0], args[1:]

	switch action {
	case "show":
		songs, err := q.Songs()
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpQueueLoad, err))
		}
		return writePlaylistSongs(a.out, songs)
	case "set":
		ids, err := parseIDs(rest)
		if err != nil {
			return err
		}
		if err := q.Replace(ids); err != nil {
			return errors.New(errmsg.Format(errmsg.OpQueueSave, err))
		}
		fmt.Fprintf(a.out, "queue holds %d songs\n", len(ids))
	case "add":
		ids, err := parseIDs(rest)
		if err != nil {
			return err
		}
		report, err := q.Append(ids)
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpQueueAdd, err))
		}
		writeAddReport(a.out, report)
	case "remove":
		ids, err := parseIDs(rest)
		if err != nil {
			return err
		}
		n, err := q.Remove(ids)
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpQueueRemove, err))
		}
		fmt.Fprintf(a.out, "removed %d songs\n", n)
	case "move":
		fs := subcommand("queue move")
		by := fs.Int("by", 0, "how many places to move (negative moves up)")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		positions, err := parseInts(fs.Args())
		if err != nil {
			return err
		}
		moved, err := q.Move(positions, *by)
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpQueueMove, err))
		}
		fmt.Fprintf(a.out, "now at %v\n", moved)
	case "clear":
		if err := q.Clear(); err != nil {
			return errors.New(errmsg.Format(errmsg.OpQueueClear, err))
		}
		fmt.Fprintln(a.out, "queue cleared")
	default:
		return fmt.Errorf("%w: unknown queue action %q", errUsage, action)
	}
	return nil
}

func (a *app) cmdVerify() error {
	report, err := a.st.VerifyIntegrity()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogVerify, err))
	}
	schema, err := a.st.CurrentVersion()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogVerify, err))
	}
	writeIntegrity(a.out, a.st.Path(), schema, report)
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: expected song ids", errUsage)
	}
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad song id %q", errUsage, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseInts(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: expected positions", errUsage)
	}
	out := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: bad position %q", errUsage, arg)
		}
		out = append(out, n)
	}
	return out, nil
}
