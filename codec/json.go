package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Indent is the indentation of the .ustx files.
const Indent = "  "

// WriteJSON writes the tree n as json. With a non-empty indent, every object
// member and array item is put on its own line, and an empty object or array
// is written as {} or []. Floats keep a fractional digit, so 123.0 stays 123.0
// instead of becoming 123.
func WriteJSON(w io.Writer, n *yaml.Node, indent string) error {
	jw := jsonWriter{indent: indent}
	if err := jw.value(n, 0); err != nil {
		return err
	}
	_, err := w.Write(jw.buf.Bytes())
	return err
}

type jsonWriter struct {
	buf    bytes.Buffer
	indent string
}

func (w *jsonWriter) newline(depth int) {
	if w.indent == "" {
		return
	}
	w.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		w.buf.WriteString(w.indent)
	}
}

func (w *jsonWriter) value(n *yaml.Node, depth int) error {
	if n = resolve(n); n == nil {
		return errors.New("cannot write an empty document as json")
	}
	switch n.Kind {
	case yaml.MappingNode:
		if len(n.Content)%2 != 0 {
			return errors.New("mapping node has a key without a value")
		}
		if len(n.Content) == 0 {
			w.buf.WriteString("{}")
			return nil
		}
		w.buf.WriteByte('{')
		for i := 0; i < len(n.Content); i += 2 {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			k := resolve(n.Content[i])
			if k == nil || k.Kind != yaml.ScalarNode {
				return fmt.Errorf("json object keys should be scalars, got %v", describe(k))
			}
			w.quote(k.Value)
			w.buf.WriteByte(':')
			if w.indent != "" {
				w.buf.WriteByte(' ')
			}
			if err := w.value(n.Content[i+1], depth+1); err != nil {
				return err
			}
		}
		w.newline(depth)
		w.buf.WriteByte('}')
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			w.buf.WriteString("[]")
			return nil
		}
		w.buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			if err := w.value(item, depth+1); err != nil {
				return err
			}
		}
		w.newline(depth)
		w.buf.WriteByte(']')
	case yaml.ScalarNode:
		return w.scalar(n)
	default:
		return fmt.Errorf("cannot write %v as json", describe(n))
	}
	return nil
}

func (w *jsonWriter) scalar(n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!str":
		w.quote(n.Value)
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return err
		}
		w.buf.WriteString(strconv.FormatInt(i, 10))
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("cannot write %v as json", n.Value)
		}
		w.buf.WriteString(formatFloat(f))
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		w.buf.WriteString(strconv.FormatBool(b))
	case "!!null":
		w.buf.WriteString("null")
	default:
		return fmt.Errorf("cannot write %v as json", describe(n))
	}
	return nil
}

// quote writes s quoted, escaping only what json requires. Non-ASCII
// characters, e.g. Japanese lyrics, are kept as they are.
func (w *jsonWriter) quote(s string) {
	const hex = "0123456789abcdef"
	w.buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			w.buf.WriteString(`\"`)
		case '\\':
			w.buf.WriteString(`\\`)
		case '\n':
			w.buf.WriteString(`\n`)
		case '\r':
			w.buf.WriteString(`\r`)
		case '\t':
			w.buf.WriteString(`\t`)
		case '\b':
			w.buf.WriteString(`\b`)
		case '\f':
			w.buf.WriteString(`\f`)
		default:
			if r < 0x20 {
				w.buf.WriteString(`\u00`)
				w.buf.WriteByte(hex[r>>4])
				w.buf.WriteByte(hex[r&0xf])
				continue
			}
			w.buf.WriteRune(r)
		}
	}
	w.buf.WriteByte('"')
}

// parseJSON reads a json document into a tree. Numbers written with a
// fraction or an exponent become floats, others integers, so that the
// decoder can tell 123.0 from 123.
func parseJSON(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := parseJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected %v after the top-level value", tok)
	}
	return n, nil
}

func parseJSONValue(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := mappingNode()
			for dec.More() {
				k, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := k.(string)
				if !ok {
					return nil, fmt.Errorf("expected an object key, got %v", k)
				}
				v, err := parseJSONValue(dec)
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, stringNode(key), v)
			}
			_, err := dec.Token()
			return n, err
		case '[':
			n := sequenceNode()
			for dec.More() {
				v, err := parseJSONValue(dec)
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, v)
			}
			_, err := dec.Token()
			return n, err
		}
		return nil, fmt.Errorf("unexpected %v", t)
	case string:
		return stringNode(t), nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(t.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}, nil
	case bool:
		return boolNode(t), nil
	case nil:
		return nullNode(), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
