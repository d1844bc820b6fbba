package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/Fepozopo/tmagick/pkg/codec"
	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/stdimg"
)

// Terminal preview for the kitty graphics protocol and the iTerm2 inline
// image protocol (also spoken by WezTerm, VSCode and others). PREVIEW_BACKEND
// set to "kitty" or "inline" skips detection.

const (
	cellWidth  = 8
	cellHeight = 16
	maxCols    = 80
	maxRows    = 40
	kittyChunk = 4096
)

type previewBackend int

const (
	noBackend previewBackend = iota
	kittyBackend
	inlineBackend
)

func detectBackend(getenv func(string) string) previewBackend {
	switch strings.ToLower(getenv("PREVIEW_BACKEND")) {
	case "kitty":
		return kittyBackend
	case "inline", "iterm", "wezterm":
		return inlineBackend
	}
	term := strings.ToLower(getenv("TERM"))
	if getenv("KITTY_WINDOW_ID") != "" || strings.Contains(term, "kitty") || strings.Contains(term, "ghostty") {
		return kittyBackend
	}
	switch getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "Tabby":
		return inlineBackend
	}
	if getenv("ITERM_SESSION_ID") != "" || strings.Contains(term, "wezterm") {
		return inlineBackend
	}
	return noBackend
}

// previewCells fits a w x h image into the terminal cell grid without
// enlarging it.
func previewCells(w, h int) (cols, rows int) {
	scale := math.Min(1, math.Min(float64(maxCols*cellWidth)/float64(w), float64(maxRows*cellHeight)/float64(h)))
	cols = int(math.Round(float64(w) * scale / cellWidth))
	rows = int(math.Round(float64(h) * scale / cellHeight))
	return min(max(cols, 1), maxCols), min(max(rows, 1), maxRows)
}

// Preview writes img to w as an inline terminal image. getenv defaults to
// os.Getenv.
func Preview(w io.Writer, img *stdimg.Image, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	backend := detectBackend(getenv)
	if backend == noBackend {
		return errs.New(errs.InvalidArgument, "terminal does not support inline images (set PREVIEW_BACKEND=kitty or inline)")
	}
	blob, err := codec.EncodeBytes(img, codec.PNG, codec.EncodeOptions{StripExif: true, StripICC: true})
	if err != nil {
		return err
	}
	cols, rows := previewCells(img.Width(), img.Height())
	slog.Debug("terminal preview", "backend", backend, "bytes", len(blob), "cols", cols, "rows", rows)

	enc := base64.StdEncoding.EncodeToString(blob)
	if backend == inlineBackend {
		_, err := fmt.Fprintf(w, "\x1b]1337;File=name=preview.png;inline=1;size=%d;width=%dpx;height=%dpx:%s\a\n",
			len(blob), cols*cellWidth, rows*cellHeight, enc)
		return err
	}

	for pos := 0; pos < len(enc); pos += kittyChunk {
		end := min(pos+kittyChunk, len(enc))
		more := 0
		if end < len(enc) {
			more = 1
		}
		var err error
		if pos == 0 {
			// a=T transmit and display, f=100 PNG payload, q=2 no replies
			_, err = fmt.Fprintf(w, "\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%d;%s\x1b\\", cols, rows, more, enc[pos:end])
		} else {
			_, err = fmt.Fprintf(w, "\x1b_Gm=%d;%s\x1b\\", more, enc[pos:end])
		}
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}
