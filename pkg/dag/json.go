package dag

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/splitdelegation/pkg/amount"
)

// MarshalJSON encodes the graph as a nested object
//
//	{"0xA": {"0xB": "20", "0xC": "80"}, "0xB": {"0xD": "100"}}
//
// Keys appear in insertion order and ratios are decimal strings. Isolated
// nodes are written with an empty object so that they survive a round trip;
// pure sinks are implied by the edges that reach them.
func (d *DAG) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, id := range d.nodes {
		edges := d.outgoing[id]
		if len(edges) == 0 && len(d.incoming[id]) > 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeKey(&buf, id)
		buf.WriteByte('{')
		for i, e := range edges {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeKey(&buf, e.To)
			buf.Write(amount.Encode(e.Ratio))
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) {
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
}

// UnmarshalJSON decodes the nested object form written by MarshalJSON. Key
// order in the document becomes insertion order in the graph, so decoding
// preserves the deterministic traversal order of the producer.
func (d *DAG) UnmarshalJSON(data []byte) error {
	g := New()
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		from, err := stringToken(dec)
		if err != nil {
			return err
		}
		if err := g.AddNode(from); err != nil {
			return fmt.Errorf("node %q: %w", from, err)
		}
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("node %s: %w", from, err)
		}
		for dec.More() {
			to, err := stringToken(dec)
			if err != nil {
				return err
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("edge %s->%s: %w", from, to, err)
			}
			ratio, err := amount.Decode(raw)
			if err != nil {
				return fmt.Errorf("edge %s->%s: %w", from, to, err)
			}
			if err := g.SetEdge(from, to, ratio); err != nil {
				return fmt.Errorf("edge %s->%s: %w", from, to, err)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}

	*d = *g
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("decode: expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("decode: expected object key, got %v", tok)
	}
	return s, nil
}
