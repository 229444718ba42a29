// =============================================================================
// Frame to Scene Exporter - Scene Writer Module
// =============================================================================
//
// This module generates the scene description XML consumed by the external
// physically-based renderer. Each document declares a fixed preamble (one
// perspective sensor with its sampler and film, one point emitter) followed
// by one sphere shape per simulated body.
//
// XML STRUCTURE:
//   The generated XML follows this pattern:
//
//   <scene version="0.6.0">                  <!-- Root element -->
//     <sensor type="perspective">            <!-- Camera -->
//       <string name="fovAxis" value="smaller"/>
//       <transform name="toWorld">
//         <lookAt origin="3, 0, 0" target="0, 0, 0" up="0, 0, 1"/>
//       </transform>
//       <float name="fov" value="39"/>
//       <sampler type="ldsampler">
//         <integer name="sampleCount" value="64"/>
//       </sampler>
//       <film type="ldrfilm">
//         <integer name="width" value="1024"/>
//         <integer name="height" value="1024"/>
//         <rfilter type="gaussian"/>
//       </film>
//     </sensor>
//     <emitter type="point">                 <!-- Light -->
//       <spectrum name="intensity" value="10"/>
//       <point name="position" x="0" y="0" z="1"/>
//     </emitter>
//     <shape type="sphere">                  <!-- One per body -->
//       <float name="radius" value="25984"/>
//       <transform name="toWorld">
//         <translate x="..." y="..." z="..."/>
//       </transform>
//       <bsdf type="plastic">
//         <srgb name="diffuseReflectance" value="#7A5230"/>
//       </bsdf>
//     </shape>
//   </scene>
//
// The translate x/y/z attributes are the body's CSV position fields copied
// verbatim; the writer never parses or reformats them.
//
// =============================================================================

package scene

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gransim/sceneexport/internal/config"
	"github.com/gransim/sceneexport/internal/frame"
)

// =============================================================================
// ELEMENT STRUCTURES
// =============================================================================

// Attr is a single XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a generic XML element. Scene documents are shallow trees of
// these, marshaled with tab indentation.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []Element
}

// =============================================================================
// SCENE GENERATION
// =============================================================================

// Generate creates a scene document for a frame.
//
// PARAMETERS:
//   - f: The parsed frame.
//   - scn: The scene settings (camera, film, emitter, sphere prototype).
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if the sphere tint colors cannot be parsed.
func Generate(f *frame.Frame, scn config.SceneSettings) ([]byte, error) {
	root, err := Build(f, scn)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	buffer.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	writeElement(&buffer, *root, 0)
	return buffer.Bytes(), nil
}

// Build constructs the element tree for a frame: preamble first, then one
// sphere per body in row order.
func Build(f *frame.Frame, scn config.SceneSettings) (*Element, error) {
	root := &Element{
		Name:  "scene",
		Attrs: []Attr{{"version", scn.Version}},
	}

	root.Children = append(root.Children, buildSensor(scn))
	root.Children = append(root.Children, buildEmitter(scn.Emitter))

	tint, err := newTinter(scn.Sphere, f)
	if err != nil {
		return nil, err
	}

	for _, body := range f.Bodies {
		root.Children = append(root.Children, buildSphere(body, scn.Sphere, tint))
	}

	return root, nil
}

// buildSensor constructs the perspective sensor element with its lookAt
// transform, sampler, and film.
func buildSensor(scn config.SceneSettings) Element {
	return Element{
		Name:  "sensor",
		Attrs: []Attr{{"type", scn.Camera.Type}},
		Children: []Element{
			{
				Name:  "string",
				Attrs: []Attr{{"name", "fovAxis"}, {"value", scn.Camera.FOVAxis}},
			},
			{
				Name:  "transform",
				Attrs: []Attr{{"name", "toWorld"}},
				Children: []Element{
					{
						Name: "lookAt",
						Attrs: []Attr{
							{"origin", scn.Camera.Origin},
							{"target", scn.Camera.Target},
							{"up", scn.Camera.Up},
						},
					},
				},
			},
			{
				Name:  "float",
				Attrs: []Attr{{"name", "fov"}, {"value", formatFloat(scn.Camera.FOV)}},
			},
			{
				Name:  "sampler",
				Attrs: []Attr{{"type", scn.Sampler.Type}},
				Children: []Element{
					{
						Name:  "integer",
						Attrs: []Attr{{"name", "sampleCount"}, {"value", strconv.Itoa(scn.Sampler.SampleCount)}},
					},
				},
			},
			{
				Name:  "film",
				Attrs: []Attr{{"type", scn.Film.Type}},
				Children: []Element{
					{
						Name:  "integer",
						Attrs: []Attr{{"name", "width"}, {"value", strconv.Itoa(scn.Film.Width)}},
					},
					{
						Name:  "integer",
						Attrs: []Attr{{"name", "height"}, {"value", strconv.Itoa(scn.Film.Height)}},
					},
					{
						Name:  "rfilter",
						Attrs: []Attr{{"type", scn.Film.Filter}},
					},
				},
			},
		},
	}
}

// buildEmitter constructs the point emitter element.
func buildEmitter(em config.EmitterSettings) Element {
	return Element{
		Name:  "emitter",
		Attrs: []Attr{{"type", "point"}},
		Children: []Element{
			{
				Name:  "spectrum",
				Attrs: []Attr{{"name", "intensity"}, {"value", formatFloat(em.Intensity)}},
			},
			{
				Name: "point",
				Attrs: []Attr{
					{"name", "position"},
					{"x", formatFloat(em.X)},
					{"y", formatFloat(em.Y)},
					{"z", formatFloat(em.Z)},
				},
			},
		},
	}
}

// buildSphere constructs one sphere shape for a body. The translate
// attributes carry the body's position fields verbatim.
func buildSphere(body frame.Body, sphere config.SphereSettings, tint *tinter) Element {
	return Element{
		Name:  "shape",
		Attrs: []Attr{{"type", "sphere"}},
		Children: []Element{
			{
				Name:  "float",
				Attrs: []Attr{{"name", "radius"}, {"value", formatFloat(sphere.Radius)}},
			},
			{
				Name:  "transform",
				Attrs: []Attr{{"name", "toWorld"}},
				Children: []Element{
					{
						Name: "translate",
						Attrs: []Attr{
							{"x", body.X},
							{"y", body.Y},
							{"z", body.Z},
						},
					},
				},
			},
			{
				Name:  "bsdf",
				Attrs: []Attr{{"type", sphere.BSDF}},
				Children: []Element{
					{
						Name:  "srgb",
						Attrs: []Attr{{"name", "diffuseReflectance"}, {"value", tint.reflectance(body)}},
					},
				},
			},
		},
	}
}

// =============================================================================
// SPEED TINTING
// =============================================================================

// tinter resolves the reflectance for a body. With tinting disabled every
// body gets the static reflectance; with tinting enabled the reflectance
// is interpolated between the slow and fast ramp colors by the body's
// speed normalized over the frame.
type tinter struct {
	enabled    bool
	static     string
	slow, fast rgb
	minSpeed   float64
	spanSpeed  float64
}

// rgb is a parsed #RRGGBB color.
type rgb struct {
	r, g, b uint8
}

// newTinter scans the frame for the speed range when tinting is enabled.
func newTinter(sphere config.SphereSettings, f *frame.Frame) (*tinter, error) {
	t := &tinter{
		enabled: sphere.TintBySpeed,
		static:  sphere.Reflectance,
	}
	if !t.enabled {
		return t, nil
	}

	var err error
	t.slow, err = parseHexColor(sphere.TintSlow)
	if err != nil {
		return nil, fmt.Errorf("tint_slow: %w", err)
	}
	t.fast, err = parseHexColor(sphere.TintFast)
	if err != nil {
		return nil, fmt.Errorf("tint_fast: %w", err)
	}

	first := true
	var minS, maxS float64
	for _, body := range f.Bodies {
		if !body.HasSpeed {
			continue
		}
		if first {
			minS, maxS = body.Speed, body.Speed
			first = false
			continue
		}
		if body.Speed < minS {
			minS = body.Speed
		}
		if body.Speed > maxS {
			maxS = body.Speed
		}
	}

	t.minSpeed = minS
	t.spanSpeed = maxS - minS
	return t, nil
}

// reflectance returns the hex reflectance for a body. Bodies without a
// usable speed keep the static color even when tinting is on.
func (t *tinter) reflectance(body frame.Body) string {
	if !t.enabled || !body.HasSpeed {
		return t.static
	}

	// A frame where every body moves at the same speed maps to the slow
	// end of the ramp.
	u := 0.0
	if t.spanSpeed > 0 {
		u = (body.Speed - t.minSpeed) / t.spanSpeed
	}

	return formatHexColor(rgb{
		r: lerpChannel(t.slow.r, t.fast.r, u),
		g: lerpChannel(t.slow.g, t.fast.g, u),
		b: lerpChannel(t.slow.b, t.fast.b, u),
	})
}

// lerpChannel interpolates one color channel.
func lerpChannel(a, b uint8, u float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*u + 0.5)
}

// parseHexColor parses a #RRGGBB color.
func parseHexColor(s string) (rgb, error) {
	if len(s) != 7 || s[0] != '#' {
		return rgb{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return rgb{}, fmt.Errorf("invalid hex color %q", s)
	}
	return rgb{
		r: uint8(v >> 16),
		g: uint8(v >> 8),
		b: uint8(v),
	}, nil
}

// formatHexColor formats a color as #RRGGBB.
func formatHexColor(c rgb) string {
	return fmt.Sprintf("#%02X%02X%02X", c.r, c.g, c.b)
}

// =============================================================================
// MARSHALING
// =============================================================================

// writeElement writes an element to the buffer with tab indentation.
// Elements without children are written self-closing.
func writeElement(buffer *bytes.Buffer, element Element, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteByte('\t')
	}

	buffer.WriteByte('<')
	buffer.WriteString(element.Name)

	for _, attr := range element.Attrs {
		buffer.WriteByte(' ')
		buffer.WriteString(attr.Name)
		buffer.WriteString("=\"")
		buffer.WriteString(escapeXML(attr.Value))
		buffer.WriteByte('"')
	}

	if len(element.Children) == 0 {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">\n")

	for _, child := range element.Children {
		writeElement(buffer, child, level+1)
	}

	for i := 0; i < level; i++ {
		buffer.WriteByte('\t')
	}
	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML attribute values.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// formatFloat formats a float the shortest way that round-trips, so whole
// values like the radius come out without a decimal point.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
