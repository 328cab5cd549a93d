package export

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/graph"
	"github.com/matzehuels/cratedeps/pkg/observability"
)

// Output formats.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatDOT, FormatJSON, FormatSVG, FormatPNG, FormatPDF}

// contentTypes maps each format to its HTTP media type.
var contentTypes = map[string]string{
	FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	FormatJSON: "application/json",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
}

// ContentType returns the media type of format.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// pngScale renders PNGs at twice the SVG resolution.
const pngScale = 2.0

// ParseFormat validates an explicit format name. "gv" is accepted as an
// alias for dot.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	if f == "gv" {
		f = FormatDOT
	}
	if !slices.Contains(Formats, f) {
		return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q (available: %s)", s, strings.Join(Formats, ", "))
	}
	return f, nil
}

// FormatFromPath infers the format from the file extension of path,
// falling back to dot for unknown or missing extensions.
func FormatFromPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return FormatDOT
}

// Encode produces the complete artifact for g in the given format.
func Encode(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := encode(ctx, g, format, opts)
	observability.Build().OnExport(ctx, format, len(data), time.Since(start), err)
	return data, err
}

func encode(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	if format == FormatJSON {
		data, err := graph.MarshalGraph(g)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode graph")
		}
		return data, nil
	}

	dot := DOT(g, opts)
	if format == FormatDOT {
		return dot, nil
	}

	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeOutputWrite, err, "render svg")
	}
	out := svg
	switch format {
	case FormatPNG:
		out, err = ToPNG(ctx, svg, pngScale)
	case FormatPDF:
		out, err = ToPDF(ctx, svg)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeOutputWrite, err, "render %s", format)
	}
	return out, nil
}

// Write encodes g and atomically replaces path with the result. An empty
// format is inferred from the path. Nothing is written unless encoding
// succeeds; failures are OUTPUT_WRITE errors (INVALID_FORMAT for an
// unknown format).
func Write(ctx context.Context, g *graph.Graph, path, format string, opts Options) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	data, err := Encode(ctx, g, format, opts)
	if err != nil {
		return err
	}
	if err := WriteFile(path, data); err != nil {
		return errs.Wrap(errs.ErrCodeOutputWrite, err, "write %s", path)
	}
	return nil
}

// WriteFile writes data to a temporary file next to path and renames it
// into place, so readers see either the old file or the complete new one.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
