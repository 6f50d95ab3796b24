package codec

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CantTolerateYou/ustx"
)

func encodeExpression(e ustx.Expression) *yaml.Node {
	return floatNode(e.Value)
}

func encodeNote(n *ustx.Note) *yaml.Node {
	phonemes := sequenceNode()
	for _, p := range n.Phonemes {
		phonemes.Content = append(phonemes.Content, encodePhoneme(p))
	}
	expressions := mappingNode()
	keys := make([]string, 0, len(n.Expressions))
	for k := range n.Expressions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		expressions.Content = append(expressions.Content, stringNode(k), ExpressionCodec.Encode(n.Expressions[k]))
	}
	return mappingNode(
		stringNode("pos"), intNode(n.Position),
		stringNode("dur"), intNode(n.Duration),
		stringNode("num"), intNode(n.NoteNum),
		stringNode("lrc"), stringNode(n.Lyric),
		stringNode("pho"), phonemes,
		stringNode("pit"), encodePitch(n.Pitch),
		stringNode("vbr"), encodeVibrato(n.Vibrato),
		stringNode("exp"), expressions,
	)
}

func encodePhoneme(p ustx.Phoneme) *yaml.Node {
	data := sequenceNode()
	for _, pt := range p.Envelope.Points {
		data.Content = append(data.Content, mappingNode(
			stringNode("X"), floatNode(pt.X),
			stringNode("Y"), floatNode(pt.Y),
		))
	}
	return mappingNode(
		stringNode("position"), intNode(p.Position),
		stringNode("phoneme"), stringNode(p.Phoneme),
		stringNode("preutter"), floatNode(p.Preutter),
		stringNode("overlap"), floatNode(p.Overlap),
		stringNode("envelope"), mappingNode(stringNode("data"), data),
	)
}

func encodePitch(c ustx.PitchCurve) *yaml.Node {
	data := sequenceNode()
	for _, pt := range c.Points {
		shape := pt.Shape
		if shape == "" {
			shape = ustx.ShapeInOut
		}
		data.Content = append(data.Content, mappingNode(
			stringNode("X"), floatNode(pt.X),
			stringNode("Y"), floatNode(pt.Y),
			stringNode("shape"), stringNode(string(shape)),
		))
	}
	return mappingNode(
		stringNode("data"), data,
		stringNode("snapFirst"), boolNode(c.SnapFirst),
	)
}

func encodeVibrato(v ustx.Vibrato) *yaml.Node {
	return mappingNode(
		stringNode("length"), floatNode(v.Length),
		stringNode("period"), floatNode(v.Period),
		stringNode("depth"), floatNode(v.Depth),
		stringNode("in"), floatNode(v.FadeIn),
		stringNode("out"), floatNode(v.FadeOut),
		stringNode("shift"), floatNode(v.Shift),
		stringNode("drift"), floatNode(v.Drift),
	)
}

func mappingNode(content ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: content}
}

func sequenceNode(content ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: content}
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intNode(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

func floatNode(f float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(f)}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// formatFloat writes f with the shortest representation that round trips,
// always keeping a fractional part or an exponent so that the value reads
// back as a float: 123 becomes "123.0". f should be finite.
func formatFloat(f float64) string {
	var s string
	if abs := math.Abs(f); abs != 0 && (abs < 1e-5 || abs >= 1e15) {
		s = strconv.FormatFloat(f, 'E', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".EIN") { // I and N for Inf and NaN
		s += ".0"
	}
	return s
}
