// Package slides owns the slide set for one run: building records from image
// paths and inferring an approximate capture offset from filename patterns.
package slides

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/b08x/slide-align/internal/types"
)

var (
	hmsRE = regexp.MustCompile(`(\d+)[-_:](\d+)[-_:](\d+)`)
	msRE  = regexp.MustCompile(`(\d+)[-_:](\d+)`)
)

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
}

// Load builds pending records for the given image paths, in input order.
func Load(paths []string) []*types.SlideRecord {
	out := make([]*types.SlideRecord, 0, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		rec := &types.SlideRecord{
			ID:       uuid.NewString(),
			Path:     p,
			Filename: name,
			Status:   types.SlidePending,
		}
		if sec, ok := InferTime(name); ok {
			rec.InferredTime = &sec
		}
		out = append(out, rec)
	}
	return out
}

// InferTime reads a capture offset out of a filename: an H-M-S digit triple
// separated by "-", "_" or ":", else an M-S pair. First match wins. No match
// means absent, which stays distinct from a real zero offset.
func InferTime(filename string) (float64, bool) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	if m := hmsRE.FindStringSubmatch(base); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		return float64(h)*3600 + float64(min)*60 + float64(s), true
	}
	if m := msRE.FindStringSubmatch(base); m != nil {
		min, _ := strconv.Atoi(m[1])
		s, _ := strconv.Atoi(m[2])
		return float64(min)*60 + float64(s), true
	}
	return 0, false
}

// IsImage reports whether the filename has a supported raster extension.
func IsImage(name string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MIMEType maps a slide filename to the content type sent to the vision
// backend. Unknown extensions fall back to PNG.
func MIMEType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	default:
		return "image/png"
	}
}
