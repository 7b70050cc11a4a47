// Scrolldemo loads a scroll manifest and runs it, either in a window or
// headless for a fixed number of frames. Scene events can be recorded to a
// CBOR trace; headless runs print every recorded event.
//
//	scrolldemo -manifest doc.yaml
//	scrolldemo -headless -frames 120 -trace run.cbor
package main

import (
	_ "embed"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"log/slog"
	"os"

	sw "github.com/phanxgames/scrollwizardry"
	"github.com/phanxgames/scrollwizardry/ebitenhost"
	"github.com/phanxgames/scrollwizardry/manifest"
	"github.com/phanxgames/scrollwizardry/trace"
)

//go:embed demo.yaml
var demoManifest []byte

const windowTitle = "scrollwizardry demo"

func main() {
	path := flag.String("manifest", "", "manifest file (default: built-in demo)")
	headless := flag.Bool("headless", false, "run without a window")
	frames := flag.Int("frames", 0, "stop after this many frames (headless default: until the script ends)")
	tracePath := flag.String("trace", "", "write scene events to this CBOR file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	sw.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*path, *headless, *frames, *tracePath, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(path string, headless bool, frames int, tracePath string, out io.Writer) error {
	m, err := loadManifest(path)
	if err != nil {
		return err
	}
	doc, err := m.Build()
	if err != nil {
		return err
	}
	defer doc.Controller.Destroy(false)

	var traceOut io.Writer
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			return fmt.Errorf("create trace: %w", err)
		}
		defer f.Close()
		traceOut = f
	}
	rec := trace.NewRecorder(traceOut)
	for i, s := range doc.Scenes {
		rec.Attach(s, doc.Names[i])
	}

	if headless {
		runHeadless(doc, frames)
	} else {
		w, h := doc.Tree.ViewportBounds()
		err = ebitenhost.Run(doc.Tree, ebitenhost.RunConfig{
			Title:      windowTitle,
			Width:      int(w),
			Height:     int(h),
			Controller: doc.Controller,
			Frames:     frames,
			Background: color.RGBA{20, 20, 28, 255},
		})
		if err != nil {
			return err
		}
	}
	if err := rec.Err(); err != nil {
		return err
	}

	if headless {
		return printTrace(rec, tracePath, out)
	}
	return nil
}

func loadManifest(path string) (*manifest.Manifest, error) {
	if path == "" {
		return manifest.Load(demoManifest)
	}
	return manifest.LoadFile(path)
}

// maxScriptFrames bounds a headless run whose script never finishes.
const maxScriptFrames = 10000

func runHeadless(doc *manifest.Document, frames int) {
	if frames > 0 {
		for range frames {
			doc.Tree.Frame()
		}
		return
	}
	for i := 0; i < maxScriptFrames && !doc.Tree.ScriptDone(); i++ {
		doc.Tree.Frame()
	}
	// One more frame delivers the update of the last script step.
	doc.Tree.Frame()
}

func printTrace(rec *trace.Recorder, tracePath string, out io.Writer) error {
	records := rec.Records()
	if tracePath != "" {
		f, err := os.Open(tracePath)
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer f.Close()
		if records, err = trace.ReadAll(f); err != nil {
			return fmt.Errorf("read trace: %w", err)
		}
	}
	for _, r := range records {
		if _, err := fmt.Fprintln(out, r); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "%d events\n", len(records))
	return err
}
