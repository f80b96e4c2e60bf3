package export

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

var (
	viewBoxAttr = regexp.MustCompile(`viewBox="([^"]+)"`)
	widthAttr   = regexp.MustCompile(`width="([^"]+)"`)
	heightAttr  = regexp.MustCompile(`height="([^"]+)"`)
	svgOpenTag  = regexp.MustCompile(`<svg[^>]*>`)
)

// AddSVGBackground inserts a filled rectangle right after the opening <svg>
// tag. It is sized from viewBox, then width and height, then 100%.
func AddSVGBackground(svg []byte, background string) []byte {
	s := string(svg)

	x, y, w, h := "0", "0", "100%", "100%"
	if m := viewBoxAttr.FindStringSubmatch(s); m != nil {
		if parts := strings.Fields(m[1]); len(parts) == 4 {
			x, y, w, h = parts[0], parts[1], parts[2], parts[3]
		}
	} else if wm, hm := widthAttr.FindStringSubmatch(s), heightAttr.FindStringSubmatch(s); wm != nil && hm != nil {
		w, h = wm[1], hm[1]
	}

	rect := fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`, x, y, w, h, background)

	loc := svgOpenTag.FindStringIndex(s)
	if loc == nil {
		return []byte(rect + s)
	}
	return []byte(s[:loc[1]] + rect + s[loc[1]:])
}

// imageMagick returns the command and leading arguments for ImageMagick 7
// (magick convert) or 6 (convert).
func imageMagick() (string, []string, bool) {
	if _, err := exec.LookPath("magick"); err == nil {
		return "magick", []string{"convert"}, true
	}
	if _, err := exec.LookPath("convert"); err == nil {
		return "convert", nil, true
	}
	return "", nil, false
}

// flattenPNG puts the PNG at path onto a solid background in place. The
// file is left untouched when ImageMagick is missing or fails.
func (e *Exporter) flattenPNG(ctx context.Context, path string) {
	name, args, ok := imageMagick()
	if !ok {
		return
	}
	args = append(args, path, "-background", e.opts.Background, "-flatten", path)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if out, err := exec.CommandContext(ctx, name, args...).CombinedOutput(); err != nil {
		e.log.WithError(err).WithField("output", string(out)).Debug("could not flatten PNG background")
	}
}
