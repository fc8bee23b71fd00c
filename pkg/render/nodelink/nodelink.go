// Package nodelink renders delegation graphs as Graphviz node-link diagrams.
//
// Delegators point at their delegates, so power flows along the arrows and
// the final holders of voting power end up at the bottom of the diagram.
// Addresses that delegate everything are drawn grey; addresses that keep
// power are drawn bold.
package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/splitdelegation/pkg/bag"
	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/power"
	"github.com/matzehuels/splitdelegation/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Power labels each node with its voting power when set.
	Power map[string]big.Int
	// Detailed shows full addresses. When false, hex addresses are shortened
	// to their first and last four digits.
	Detailed bool
	// Highlight draws one address with a thick outline.
	Highlight string
}

// ToDOT converts a delegation graph to Graphviz DOT format.
// Edge labels are the percentage of the delegator's power each edge carries.
func ToDOT(g *dag.DAG, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fontname=\"monospace\", margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.Nodes() {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(id, opts))}
		attrs = append(attrs, fmtStyle(g, id, opts)...)
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, id := range g.Nodes() {
		edges := g.Children(id)
		shares := bag.BasisPoints(power.Recipients(edges))
		for i, e := range edges {
			label := "0%"
			if shares != nil {
				label = percent(shares[i].Amount.Int64())
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, label)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func percent(bp int64) string {
	if bp%100 == 0 {
		return fmt.Sprintf("%d%%", bp/100)
	}
	return fmt.Sprintf("%d.%02d%%", bp/100, bp%100)
}

var hexAddr = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Short abbreviates a hex address to 0x1234…abcd. Other identifiers are
// returned unchanged.
func Short(addr string) string {
	if !hexAddr.MatchString(addr) {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func fmtLabel(id string, opts Options) string {
	name := id
	if !opts.Detailed {
		name = Short(id)
	}
	if opts.Power == nil {
		return name
	}
	v, ok := opts.Power[id]
	if !ok || v.Int == nil {
		return name
	}
	return name + "\n" + humanize.BigComma(v.Int)
}

func fmtStyle(g *dag.DAG, id string, opts Options) []string {
	var attrs []string
	if opts.Power != nil {
		if v, ok := opts.Power[id]; ok && v.Int != nil && v.Sign() == 0 && g.OutDegree(id) > 0 {
			attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=\"#555555\"")
		} else if g.OutDegree(id) == 0 {
			attrs = append(attrs, "penwidth=2")
		}
	}
	if id == opts.Highlight {
		attrs = append(attrs, "penwidth=4", "color=\"#d9480f\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
