package metadata

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"

	"github.com/bogem/id3v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/go-flac"
)

// Tags is the writable tag set stamped onto processed files and shown in the
// upload form.
type Tags struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Genre  string `json:"genre"`
	Year   string `json:"year"`
}

// Read extracts tags from an uploaded stream. An untagged or unreadable file
// yields empty Tags, never an error; the form falls back to the filename.
func Read(r io.ReadSeeker) Tags {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return Tags{}
	}

	year := ""
	if m.Year() != 0 {
		year = strconv.Itoa(m.Year())
	}
	return Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Genre:  m.Genre(),
		Year:   year,
	}
}

// StampMP3 writes ID3v2 frames in place.
func StampMP3(path string, t Tags) error {
	id3, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer id3.Close()

	id3.SetTitle(t.Title)
	id3.SetArtist(t.Artist)
	id3.SetAlbum(t.Album)
	id3.SetGenre(t.Genre)
	id3.SetYear(t.Year)

	return id3.Save()
}

// StampFLAC rebuilds the Vorbis Comment block since go-flac is low-level.
func StampFLAC(path string, t Tags) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return err
	}

	// Drop existing VorbisComment blocks to avoid duplicates
	var newMeta []*flac.MetaDataBlock
	for _, m := range f.Meta {
		if m.Type != flac.VorbisComment {
			newMeta = append(newMeta, m)
		}
	}

	// Block layout: [Vendor Len][Vendor][Comment Count][Len][KEY=VALUE]...
	// all lengths little-endian uint32.
	vendor := "MyFreeMusicIngester"

	comments := map[string]string{
		"TITLE":  t.Title,
		"ARTIST": t.Artist,
		"ALBUM":  t.Album,
		"GENRE":  t.Genre,
		"DATE":   t.Year,
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)

	valid := 0
	for _, v := range comments {
		if v != "" {
			valid++
		}
	}
	binary.Write(&buf, binary.LittleEndian, uint32(valid))

	for k, v := range comments {
		if v == "" {
			continue
		}
		comment := k + "=" + v
		binary.Write(&buf, binary.LittleEndian, uint32(len(comment)))
		buf.WriteString(comment)
	}

	newMeta = append(newMeta, &flac.MetaDataBlock{
		Type: flac.VorbisComment,
		Data: buf.Bytes(),
	})
	f.Meta = newMeta

	return f.Save(path)
}
