// Package export serializes finished dependency graphs.
//
// # Formats
//
//   - dot: Graphviz source, one statement per vertex then one per edge,
//     both in creation order (the default)
//   - json: the node-link document of [graph.Document]
//   - svg: DOT laid out by Graphviz (github.com/goccy/go-graphviz)
//   - png, pdf: the SVG converted with rsvg-convert from librsvg
//
// Every vertex is labeled "<name> - <version>"; edges carry no label.
//
// # Writing Files
//
// [Write] produces the complete artifact in memory first and then replaces
// the target atomically (temporary file in the same directory, then
// rename). A failed export never leaves a partial or truncated file behind,
// and an existing file is only replaced once the new one is complete.
//
//	if err := export.Write(ctx, res.Graph, "deps.svg", "", export.Options{}); err != nil {
//	    return err // OUTPUT_WRITE or INVALID_FORMAT
//	}
package export
