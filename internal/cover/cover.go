package cover

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gosimple/slug"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"musiccrs/internal/catalog"
	"musiccrs/internal/logging"
	"musiccrs/internal/metrics"
)

const (
	coverSize = 480
	gridCells = 3
	bandRatio = 5 // bottom caption band is 1/5 of the cover height
)

// Renderer draws deterministic playlist covers: a 3x3 color mosaic
// derived from the playlist's contents, with the playlist name in a
// caption band. When a covers directory is available the PNG is written
// there and a relative URL returned; otherwise the image is returned
// inline as a data URL.
type Renderer struct {
	dir     string
	toDisk  bool
	urlBase string
}

// New creates a Renderer writing into dir. Pass toDisk=false when the
// directory is unavailable; covers are then returned as data URLs only.
func New(dir string, toDisk bool) *Renderer {
	return &Renderer{dir: dir, toDisk: toDisk, urlBase: "/covers/"}
}

// RenderCover implements playlist.CoverRenderer.
func (r *Renderer) RenderCover(session, name string, tracks []catalog.Track) (string, error) {
	start := time.Now()
	url, err := r.render(session, name, tracks)
	metrics.CoverRenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CoverRendersTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.CoverRendersTotal.WithLabelValues("success").Inc()
	return url, nil
}

func (r *Renderer) render(session, name string, tracks []catalog.Track) (string, error) {
	img := mosaic(name, tracks)
	drawCaption(img, name, len(tracks))

	if r.toDisk {
		file := slug.Make(session) + "__" + slug.Make(name) + ".png"
		path := filepath.Join(r.dir, file)
		if err := imaging.Save(img, path); err != nil {
			// Fall back to an inline cover rather than losing it.
			logging.Warn("Cover save failed for %s: %v", path, err)
			return dataURL(img)
		}
		logging.Debug("Cover written: %s", path)
		return r.urlBase + file, nil
	}
	return dataURL(img)
}

// mosaic fills a 3x3 grid with colors hashed from the playlist name and
// its track identifiers, so the cover changes with every mutation but
// is stable for identical contents.
func mosaic(name string, tracks []catalog.Track) *image.NRGBA {
	h := sha256.New()
	h.Write([]byte(name))
	for _, t := range tracks {
		h.Write([]byte{0})
		h.Write([]byte(t.ID))
	}
	digest := hex.EncodeToString(h.Sum(nil))

	img := imaging.New(coverSize, coverSize, color.NRGBA{R: 24, G: 24, B: 24, A: 255})
	cell := coverSize / gridCells
	for i := 0; i < gridCells*gridCells; i++ {
		c := cellColor(digest, i)
		tile := imaging.New(cell, cell, c)
		x := (i % gridCells) * cell
		y := (i / gridCells) * cell
		img = imaging.Paste(img, tile, image.Pt(x, y))
	}
	return img
}

// cellColor picks the i-th 6-hex-digit chunk of the digest as an RGB
// color, softened toward mid-tones so captions stay readable.
func cellColor(digest string, i int) color.NRGBA {
	chunk := digest[(i*6)%len(digest):]
	if len(chunk) < 6 {
		chunk = digest[:6]
	}
	var rgb [3]uint8
	for j := 0; j < 3; j++ {
		b, err := hex.DecodeString(chunk[j*2 : j*2+2])
		if err != nil || len(b) == 0 {
			rgb[j] = 0x66
			continue
		}
		rgb[j] = b[0]/2 + 64
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

// drawCaption overlays a dark band at the bottom with the playlist name
// and track count.
func drawCaption(img *image.NRGBA, name string, trackCount int) {
	bandHeight := coverSize / bandRatio
	band := imaging.New(coverSize, bandHeight, color.NRGBA{A: 200})
	*img = *imaging.Overlay(img, band, image.Pt(0, coverSize-bandHeight), 1.0)

	label := name
	if trackCount == 1 {
		label = fmt.Sprintf("%s (1 track)", name)
	} else if trackCount > 1 {
		label = fmt.Sprintf("%s (%d tracks)", name, trackCount)
	}
	label = truncateLabel(label, coverSize-16)

	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(12, coverSize-bandHeight/2+4),
	}
	d.DrawString(label)
}

// truncateLabel shortens the label so it fits the cover width with the
// fixed 7px-advance face.
func truncateLabel(label string, maxWidth int) string {
	maxRunes := maxWidth / 7
	runes := []rune(label)
	if len(runes) <= maxRunes {
		return label
	}
	return strings.TrimSpace(string(runes[:maxRunes-3])) + "..."
}

func dataURL(img *image.NRGBA) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode cover: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
