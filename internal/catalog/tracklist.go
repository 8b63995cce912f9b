package catalog

import (
	"fmt"
	"strings"
)

const discSeparator = "///"

// Track is one numbered song line.
type Track struct {
	Number string
	Title  string
}

// Disc groups the tracks of one physical disc.
type Disc struct {
	Number int
	Tracks []Track
}

// Tracklist is the parsed tracklist of an edition.
type Tracklist struct {
	Discs []Disc
}

// Empty reports whether there is nothing to show.
func (t Tracklist) Empty() bool { return len(t.Discs) == 0 }

// MultiDisc reports whether disc headings should be shown.
func (t Tracklist) MultiDisc() bool { return len(t.Discs) > 1 }

// ParseTracklist reads the "///"-separated discs of comma-separated titles.
// Every comma slot keeps its number and every disc chunk keeps its heading,
// even when blank. Track numbers restart at 01 for every disc.
func ParseTracklist(raw string) Tracklist {
	if strings.TrimSpace(raw) == "" {
		return Tracklist{}
	}
	chunks := strings.Split(raw, discSeparator)
	tl := Tracklist{Discs: make([]Disc, 0, len(chunks))}
	for i, chunk := range chunks {
		titles := strings.Split(chunk, ",")
		disc := Disc{Number: i + 1, Tracks: make([]Track, 0, len(titles))}
		for j, title := range titles {
			disc.Tracks = append(disc.Tracks, Track{Number: fmt.Sprintf("%02d", j+1), Title: strings.TrimSpace(title)})
		}
		tl.Discs = append(tl.Discs, disc)
	}
	return tl
}
