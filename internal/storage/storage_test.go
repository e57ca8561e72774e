package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func localClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(NewLocalProvider(t.TempDir()), "media", "ingest")
}

func TestIngestRoundTrip(t *testing.T) {
	c := localClient(t)

	body := strings.NewReader("fake mp3 bytes")
	if err := c.UploadIngestFile("incoming/song.mp3", body, "audio/mpeg"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	keys, err := c.ListIngestFiles()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0] != "incoming/song.mp3" {
		t.Fatalf("list = %v, want [incoming/song.mp3]", keys)
	}

	obj, err := c.DownloadIngestFile("incoming/song.mp3")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer obj.Body.Close()

	data, _ := io.ReadAll(obj.Body)
	if string(data) != "fake mp3 bytes" {
		t.Errorf("round trip corrupted: %q", data)
	}

	if err := c.DeleteIngestFile("incoming/song.mp3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	keys, _ = c.ListIngestFiles()
	if len(keys) != 0 {
		t.Errorf("file survived delete: %v", keys)
	}
}

func TestUploadMediaDirAndDeletePrefix(t *testing.T) {
	c := localClient(t)

	// Build a fake HLS rendition on disk
	src := t.TempDir()
	files := []string{"index.m3u8", "segment_000.ts", "segment_001.ts"}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(name), 0644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	if err := c.UploadMediaDir(src, "songs/abc123"); err != nil {
		t.Fatalf("UploadMediaDir: %v", err)
	}

	obj, err := c.DownloadMedia("songs/abc123/index.m3u8")
	if err != nil {
		t.Fatalf("playlist missing after upload: %v", err)
	}
	obj.Body.Close()
	if obj.ContentType != "application/vnd.apple.mpegurl" {
		t.Errorf("playlist content type = %q", obj.ContentType)
	}

	if err := c.DeleteMediaPrefix("songs/abc123"); err != nil {
		t.Fatalf("DeleteMediaPrefix: %v", err)
	}
	if _, err := c.DownloadMedia("songs/abc123/index.m3u8"); err == nil {
		t.Error("rendition still readable after prefix delete")
	}
}

func TestScanMediaReportsSizes(t *testing.T) {
	c := localClient(t)

	fixtures := map[string]string{
		"songs/abc/index.m3u8":     "#EXTM3U",
		"songs/abc/segment_000.ts": "0123456789",
		"songs/def/index.m3u8":     "#EXTM3U",
		"covers/abc.jpg":           "jpegjpeg",
	}
	for key, body := range fixtures {
		if err := c.UploadMediaFile(key, strings.NewReader(body), ""); err != nil {
			t.Fatalf("upload %s: %v", key, err)
		}
	}

	objects, err := c.ScanMedia()
	if err != nil {
		t.Fatalf("ScanMedia: %v", err)
	}
	if len(objects) != len(fixtures) {
		t.Fatalf("scan found %d objects, want %d", len(objects), len(fixtures))
	}

	var total int64
	for _, obj := range objects {
		want, ok := fixtures[obj.Key]
		if !ok {
			t.Errorf("scan reported unknown key %q", obj.Key)
			continue
		}
		if obj.Size != int64(len(want)) {
			t.Errorf("size of %s = %d, want %d", obj.Key, obj.Size, len(want))
		}
		total += obj.Size
	}
	var wantTotal int64
	for _, body := range fixtures {
		wantTotal += int64(len(body))
	}
	if total != wantTotal {
		t.Errorf("total size = %d, want %d", total, wantTotal)
	}
}
