package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// Read reads tag metadata and, when the stream can be probed, the duration
// of a music file. A file without a title tag is titled after its name.
func Read(path string) (*Tag, error) {
	if !IsMusicFile(path) {
		return nil, fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}

	t, err := readWithTag(path)
	if err != nil {
		// dhowden/tag fails on some UTF-16 ID3 frames and some ffmpeg-written
		// containers
		if strings.EqualFold(filepath.Ext(path), ExtMP3) {
			t, err = readMP3WithID3v2(path)
		} else {
			t, err = readWithTaglib(path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read tags of %s: %w", path, err)
	}

	if t.Title == "" {
		t.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if props, err := taglib.ReadProperties(path); err == nil {
		t.Duration = props.Length
	}
	return t, nil
}

func readWithTag(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	track, _ := m.Track()
	return &Tag{
		Path:        path,
		Title:       strings.TrimSpace(m.Title()),
		Artists:     splitArtists(m.Artist()),
		Album:       strings.TrimSpace(m.Album()),
		Genre:       strings.TrimSpace(m.Genre()),
		TrackNumber: track,
	}, nil
}

func readMP3WithID3v2(path string) (*Tag, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer id3tag.Close()

	track, _ := parseTrackNumber(getID3TextFrame(id3tag, "TRCK"))
	return &Tag{
		Path:        path,
		Title:       strings.TrimSpace(id3tag.Title()),
		Artists:     splitArtists(id3tag.Artist()),
		Album:       strings.TrimSpace(id3tag.Album()),
		Genre:       strings.TrimSpace(id3tag.Genre()),
		TrackNumber: track,
	}, nil
}

func getID3TextFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}

func readWithTaglib(path string) (*Tag, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tags := taglibTags(rawTags)

	artists := splitArtists(rawTags["ARTISTS"]...)
	if len(artists) == 0 {
		artists = splitArtists(tags.get(taglib.Artist))
	}

	track, _ := parseTrackNumber(tags.get(taglib.TrackNumber))
	return &Tag{
		Path:        path,
		Title:       strings.TrimSpace(tags.get(taglib.Title)),
		Artists:     artists,
		Album:       strings.TrimSpace(tags.get(taglib.Album)),
		Genre:       strings.TrimSpace(tags.get(taglib.Genre)),
		TrackNumber: track,
	}, nil
}
