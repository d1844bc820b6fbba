package plan

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Fepozopo/tmagick/pkg/metadata"
	"github.com/Fepozopo/tmagick/pkg/stdimg"
)

// Describe renders img through an identify template. An empty template
// yields "<file> <FORMAT> <w>x<h> <colortype> <depth>-bit" and a newline.
//
// Escapes:
//
//	%w %h       width, height
//	%m          format, upper case
//	%f %d %e %t file name, directory, extension, name without extension
//	%r          color type
//	%z          bit depth
//	%[exif:tag] EXIF value (make, model, orientation, datetime, ...)
//	%[icc]      ICC profile size in bytes
//	%% \n       literal percent, newline
func Describe(img *stdimg.Image, template string) string {
	if template == "" {
		return fmt.Sprintf("%s %s %dx%d %s %d-bit\n",
			img.Props.Filename, strings.ToUpper(img.Props.Format),
			img.Width(), img.Height(), img.Props.ColorType, depth(img))
	}

	var (
		b    strings.Builder
		exif *metadata.EXIF
	)
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '\\' && i+1 < len(template) && template[i+1] == 'n' {
			b.WriteByte('\n')
			i++
			continue
		}
		if c != '%' || i+1 == len(template) {
			b.WriteByte(c)
			continue
		}
		i++
		switch template[i] {
		case '%':
			b.WriteByte('%')
		case 'w':
			b.WriteString(strconv.Itoa(img.Width()))
		case 'h':
			b.WriteString(strconv.Itoa(img.Height()))
		case 'm':
			b.WriteString(strings.ToUpper(img.Props.Format))
		case 'f':
			b.WriteString(filepath.Base(img.Props.Filename))
		case 'd':
			b.WriteString(filepath.Dir(img.Props.Filename))
		case 'e':
			b.WriteString(strings.TrimPrefix(filepath.Ext(img.Props.Filename), "."))
		case 't':
			base := filepath.Base(img.Props.Filename)
			b.WriteString(strings.TrimSuffix(base, filepath.Ext(base)))
		case 'r':
			b.WriteString(img.Props.ColorType.String())
		case 'z':
			b.WriteString(strconv.Itoa(depth(img)))
		case '[':
			end := strings.IndexByte(template[i:], ']')
			if end < 0 {
				b.WriteString(template[i-1:])
				return b.String()
			}
			key := template[i+1 : i+end]
			i += end
			switch {
			case key == "icc":
				b.WriteString(strconv.Itoa(len(img.ICC)))
			case strings.HasPrefix(key, "exif:"):
				if exif == nil {
					e, _ := metadata.Parse(img.Exif)
					exif = &e
				}
				v, _ := exif.Get(strings.TrimPrefix(key, "exif:"))
				b.WriteString(v)
			}
		default:
			b.WriteByte('%')
			b.WriteByte(template[i])
		}
	}
	return b.String()
}

func depth(img *stdimg.Image) int {
	if img.Props.BitDepth > 0 {
		return img.Props.BitDepth
	}
	return 8
}
