package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/songbook/internal/library"
	"github.com/llehouerou/songbook/internal/playlists"
	"github.com/llehouerou/songbook/internal/store"
)

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeSongs(w io.Writer, songs []library.Song) error {
	tw := newTable(w, "ID", "TITLE", "ARTIST", "ALBUM", "TIME", "ADDED")
	for _, s := range songs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Title, orDash(strings.Join(s.Artists, ", ")), orDash(s.Album),
			formatDuration(s.Duration), humanize.Time(time.Unix(s.CreatedAt, 0)))
	}
	return tw.Flush()
}

func writePlaylistSongs(w io.Writer, songs []playlists.PlaylistSong) error {
	tw := newTable(w, "#", "ID", "TITLE", "ARTIST", "ALBUM", "TIME")
	var total int64
	for _, s := range songs {
		total += s.Duration
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			s.Position, s.ID, s.Title, orDash(s.Artist), orDash(s.Album), formatDuration(s.Duration))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s songs, %s\n", humanize.Comma(int64(len(songs))), formatDuration(total))
	return err
}

func writePlaylists(w io.Writer, list []playlists.Playlist) error {
	tw := newTable(w, "ID", "NAME", "KIND", "SONGS", "CREATED")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			p.ID, p.Name, p.Kind(), p.SongCount, humanize.Time(time.Unix(p.CreatedAt, 0)))
	}
	return tw.Flush()
}

func writeAddReport(w io.Writer, r playlists.AddReport) {
	fmt.Fprintf(w, "added %d of %d songs\n", r.Added(), len(r.Items))
	for _, item := range r.Skipped() {
		if item.Err != nil {
			fmt.Fprintf(w, "  song %d: %s (%v)\n", item.SongID, item.Status, item.Err)
			continue
		}
		fmt.Fprintf(w, "  song %d: %s\n", item.SongID, item.Status)
	}
}

func writeIntegrity(w io.Writer, path string, schema int, r store.IntegrityReport) {
	fmt.Fprintf(w, "catalog %s (schema %d)\n", path, schema)
	switch {
	case r.OK():
		fmt.Fprintln(w, "schema intact")
	case r.Repaired:
		fmt.Fprintf(w, "repaired missing tables: %s\n", strings.Join(r.Missing, ", "))
	default:
		fmt.Fprintf(w, "recreated tables: %s\n", strings.Join(r.Recreated, ", "))
	}
}
