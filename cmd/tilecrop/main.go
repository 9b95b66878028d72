// TileCrop: crop one image or video into showcase tiles and export them.
//
// Usage:
//
//	tilecrop export [options] <source>
//	tilecrop preview [options] <source>
//	tilecrop match <source>
//	tilecrop inspect <archive.zip>
//	tilecrop init
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: .env: %v\n", err)
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "preview":
		err = runPreview(os.Args[2:])
	case "match":
		err = runMatch(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`TileCrop - Showcase tile cropper and exporter

USAGE:
    tilecrop export [options] <source>
    tilecrop preview [options] <source>
    tilecrop match [options] <source>
    tilecrop inspect <archive.zip>
    tilecrop init [-o tilecrop.yaml]

SOURCE:
    A local file or an http(s) URL. Images: png, jpeg, gif, bmp, webp.
    Videos: MJPEG avi and animated gif natively, mp4/webm/mov via ffmpeg.

COMMON OPTIONS:
    --config <path>        YAML settings (default: tilecrop.yaml if present)
    --layout <name>        single | split | five
    --match                Recompute heights from the source aspect ratio

EXPORT:
    -o, --output <dir>     Directory for the zip (default: output_dir setting)
    --prefix <name>        Tile file prefix (default: myworkshop)

PREVIEW:
    -o, --output <file>    Preview sheet (.png or .bmp, default: preview.png)
    --labels               Draw slot labels under each tile

ENVIRONMENT:
    TILECROP_LOG_LEVEL, TILECROP_LOG_FORMAT, TILECROP_OUTPUT_DIR,
    TILECROP_FFMPEG (also read from .env)

EXAMPLES:
    tilecrop init
    tilecrop export --layout five banner.png
    tilecrop export --layout split --match -o out/ clip.mp4
    tilecrop preview --labels --layout five banner.png
    tilecrop match --layout five https://example.com/banner.jpg
    tilecrop inspect steam_crop_export.zip
`)
}
