// fonts.go - Label fonts with custom TTF support and a Go Regular fallback.
package preview

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/xob0t/TileCrop/pkg/logging"
)

// FontManager handles font loading with fallback to the embedded Go font.
type FontManager struct {
	parsed *opentype.Font
}

// NewFontManager loads customPath, or the embedded Go Regular font when
// customPath is empty or unreadable.
func NewFontManager(customPath string, logger *slog.Logger) (*FontManager, error) {
	var fontData []byte
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			logging.OrDiscard(logger).Warn("custom font unavailable, using default", "path", customPath, "error", err)
		} else {
			fontData = data
		}
	}
	if fontData == nil {
		fontData = goregular.TTF
	}

	parsed, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontManager{parsed: parsed}, nil
}

// Face returns a face at size points and 72 DPI.
func (fm *FontManager) Face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(fm.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}
