//go:build js && wasm

// TileCrop WASM: browser-local cropping and export.
// Compiled with: GOOS=js GOARCH=wasm go build -o tilecrop.wasm ./clients/wasm/
//
// The browser has no ffmpeg, so video is limited to MJPEG AVI and animated
// GIF. Convert mp4, webm and mov sources before loading them here.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/xob0t/TileCrop/pkg/config"
	"github.com/xob0t/TileCrop/pkg/export"
	"github.com/xob0t/TileCrop/pkg/generator"
	"github.com/xob0t/TileCrop/pkg/layout"
	"github.com/xob0t/TileCrop/pkg/logging"
	"github.com/xob0t/TileCrop/pkg/media"
	"github.com/xob0t/TileCrop/pkg/preview"
	"github.com/xob0t/TileCrop/pkg/render"
	"github.com/xob0t/TileCrop/pkg/session"
)

var (
	cfg    = config.Default()
	logger = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	sess   = session.New(cfg.Session(render.NewFrameScheduler(cfg.Render.FrameInterval), logger))
	fonts  *preview.FontManager
)

func main() {
	fmt.Println("TileCrop WASM loaded")

	var err error
	if fonts, err = preview.NewFontManager("", logger); err != nil {
		logger.Error("font init failed", "error", err)
	}

	// Register JS-callable functions.
	js.Global().Set("goLoadMedia", js.FuncOf(loadMedia))
	js.Global().Set("goRefresh", js.FuncOf(refresh))
	js.Global().Set("goSetLayout", js.FuncOf(setLayout))
	js.Global().Set("goSetHeights", js.FuncOf(setHeights))
	js.Global().Set("goMatchAspect", js.FuncOf(matchAspect))
	js.Global().Set("goTiles", js.FuncOf(tiles))
	js.Global().Set("goSnapshot", js.FuncOf(snapshot))
	js.Global().Set("goPreview", js.FuncOf(renderPreview))
	js.Global().Set("goExport", js.FuncOf(exportZip))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

func errorValue(format string, args ...any) js.Value {
	return js.ValueOf("error: " + fmt.Sprintf(format, args...))
}

// goLoadMedia(base64Data, name) loads a file picked in the browser.
func loadMedia(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorValue("need base64Data, name")
	}
	data, err := base64.StdEncoding.DecodeString(args[0].String())
	if err != nil {
		return errorValue("invalid base64: %v", err)
	}
	name := args[1].String()

	h, err := media.Decode(context.Background(), data, name, cfg.Media())
	if err != nil {
		h = media.FailedHandle(name, err)
	}
	if err := sess.Load(h); err != nil {
		if errors.Is(err, media.ErrNoTranscoder) {
			return errorValue("%s: only MJPEG .avi and .gif video play in the browser (%v)", name, err)
		}
		return errorValue("%v", err)
	}
	return js.ValueOf(h.Kind().String())
}

// goRefresh() rebuilds tiles and repaints, e.g. after the page resizes.
func refresh(this js.Value, args []js.Value) any {
	if err := sess.Refresh(); err != nil {
		return errorValue("%v", err)
	}
	return js.ValueOf("ok")
}

// goSetLayout(name) switches between single, split and five.
func setLayout(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorValue("need layout name")
	}
	mode, err := layout.ParseMode(args[0].String())
	if err != nil {
		return errorValue("%v", err)
	}
	if err := sess.SetLayout(mode); err != nil {
		return errorValue("%v", err)
	}
	return js.ValueOf("ok")
}

// goSetHeights(json) replaces the configured heights.
func setHeights(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorValue("need heights JSON")
	}
	var heights layout.Config
	if err := json.Unmarshal([]byte(args[0].String()), &heights); err != nil {
		return errorValue("parse heights: %v", err)
	}
	if err := sess.SetConfig(heights); err != nil {
		return errorValue("%v", err)
	}
	return js.ValueOf("ok")
}

// goMatchAspect() returns the recomputed heights as JSON.
func matchAspect(this js.Value, args []js.Value) any {
	heights, err := sess.MatchAspect()
	if err != nil {
		return errorValue("%v", err)
	}
	out, _ := json.Marshal(heights)
	return js.ValueOf(string(out))
}

type tileJSON struct {
	Index  int    `json:"index"`
	File   string `json:"file"`
	SrcX   int    `json:"src_x"`
	SrcW   int    `json:"src_w"`
	SrcH   int    `json:"src_h"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// goTiles() describes the current tiles as JSON.
func tiles(this js.Value, args []js.Value) any {
	mode := sess.Mode()
	var out []tileJSON
	for _, t := range sess.Tiles() {
		out = append(out, tileJSON{
			Index:  t.Index,
			File:   layout.FileName(cfg.Export.FilePrefix, mode, t.Index, "png"),
			SrcX:   t.Src.Min.X,
			SrcW:   t.Src.Dx(),
			SrcH:   t.Src.Dy(),
			Width:  t.Dst.X,
			Height: t.Dst.Y,
		})
	}
	data, _ := json.Marshal(out)
	return js.ValueOf(string(data))
}

// goSnapshot(i) returns tile i as base64 PNG.
func snapshot(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorValue("need tile index")
	}
	img, ok := sess.Snapshot(args[0].Int())
	if !ok {
		return errorValue("tile not rendered")
	}
	data, err := generator.StillBytes(img, generator.PNG)
	if err != nil {
		return errorValue("encode: %v", err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(data))
}

// goPreview(labels) returns the preview sheet as base64 PNG.
func renderPreview(this js.Value, args []js.Value) any {
	opts := cfg.PreviewOptions()
	if len(args) > 0 {
		opts.Labels = args[0].Truthy()
	}
	img, err := preview.NewRenderer(fonts, opts).Render(sess)
	if err != nil {
		return errorValue("%v", err)
	}
	data, err := generator.StillBytes(img, generator.PNG)
	if err != nil {
		return errorValue("encode: %v", err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(data))
}

// goExport() captures every tile, starts a browser download of the zip and
// returns a Promise resolving to the archive as base64.
func exportZip(this js.Value, args []js.Value) any {
	handler := js.FuncOf(func(this js.Value, p []js.Value) any {
		resolve, reject := p[0], p[1]
		// Capture waits on timers, which need the event loop running.
		go func() {
			archive, err := sess.Export(context.Background())
			if err == nil {
				err = export.Deliver(browserSaver{logger: logger}, archive)
			}
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(base64.StdEncoding.EncodeToString(archive.Data))
		}()
		return nil
	})
	defer handler.Release()
	return js.Global().Get("Promise").New(handler)
}

// browserSaver triggers a download through a temporary anchor element.
type browserSaver struct {
	logger *slog.Logger
}

func (s browserSaver) Save(name string, data []byte) error {
	doc := js.Global().Get("document")
	if doc.IsUndefined() {
		return fmt.Errorf("no document to download into")
	}
	buf := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(buf, data)

	blob := js.Global().Get("Blob").New([]any{buf}, map[string]any{"type": "application/zip"})
	url := js.Global().Get("URL").Call("createObjectURL", blob)

	a := doc.Call("createElement", "a")
	a.Set("href", url)
	a.Set("download", name)
	a.Call("click")
	s.logger.Info("archive downloaded", "name", name, "bytes", len(data))
	return nil
}
