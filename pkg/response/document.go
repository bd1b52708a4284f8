package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/mypos-ipc/ipc-go/pkg/types"
)

type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
)

// Node is one JSON value. Object members keep the order they had on the wire.
type Node struct {
	Kind    Kind
	Text    string // literal text of a scalar
	Members []Member
	Items   []*Node
}

type Member struct {
	Name  string
	Value *Node
}

// Get returns the member called name of an object node
func (n *Node) Get(name string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	for _, m := range n.Members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

// IsScalar reports whether n is a string, number, bool or null
func (n *Node) IsScalar() bool {
	return n.Kind != KindObject && n.Kind != KindArray
}

// Interface converts n to the generic form produced by json.Unmarshal
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case KindObject:
		out := make(map[string]interface{}, len(n.Members))
		for _, m := range n.Members {
			out[m.Name] = m.Value.Interface()
		}
		return out
	case KindArray:
		out := make([]interface{}, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.Interface()
		}
		return out
	case KindNumber:
		f, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return n.Text
		}
		return f
	case KindBool:
		return n.Text == "true"
	case KindNull:
		return nil
	default:
		return n.Text
	}
}

// MarshalJSON writes n back out with member order intact
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	switch n.Kind {
	case KindObject:
		buf.WriteByte('{')
		for i, m := range n.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(m.Name)
			if err != nil {
				return err
			}
			buf.Write(name)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindString:
		text, err := json.Marshal(n.Text)
		if err != nil {
			return err
		}
		buf.Write(text)
	case KindNull:
		buf.WriteString("null")
	default:
		buf.WriteString(n.Text)
	}
	return nil
}

// Document is a parsed gateway response whose root is a JSON object
type Document struct {
	root *Node
}

// ParseDocument parses a response body without losing member order.
// A body that is not a JSON object is a transport failure.
func ParseDocument(body []byte) (*Document, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &types.TransportError{Op: "decode body", Cause: types.ErrEmptyBody}
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, &types.TransportError{Op: "decode body", Cause: fmt.Errorf("malformed JSON response: %w", err)}
	}
	if v.Type() != fastjson.TypeObject {
		return nil, &types.TransportError{Op: "decode body", Cause: fmt.Errorf("response is not a JSON object")}
	}

	root, err := nodeFromValue(v)
	if err != nil {
		return nil, &types.TransportError{Op: "decode body", Cause: fmt.Errorf("malformed JSON response: %w", err)}
	}
	return &Document{root: root}, nil
}

func (d *Document) Root() *Node {
	return d.root
}

// Flatten returns the leaves of the document in order. Names are paths such
// as "log.request[0].item[1].result", so every name is unique.
func (d *Document) Flatten() []types.Field {
	var out []types.Field
	flatten(d.root, "", &out)
	return out
}

// FlattenNode flattens n with paths relative to n
func FlattenNode(n *Node) []types.Field {
	var out []types.Field
	flatten(n, "", &out)
	return out
}

func flatten(n *Node, path string, out *[]types.Field) {
	switch n.Kind {
	case KindObject:
		for _, m := range n.Members {
			child := m.Name
			if path != "" {
				child = path + "." + m.Name
			}
			flatten(m.Value, child, out)
		}
	case KindArray:
		for i, item := range n.Items {
			flatten(item, fmt.Sprintf("%s[%d]", path, i), out)
		}
	default:
		*out = append(*out, types.Field{Name: path, Value: n.Text})
	}
}

// nodeFromValue copies a parsed value out of the parser's buffers
func nodeFromValue(v *fastjson.Value) (*Node, error) {
	switch v.Type() {
	case fastjson.TypeObject:
		o, err := v.Object()
		if err != nil {
			return nil, err
		}
		n := &Node{Kind: KindObject}
		seen := make(map[string]struct{}, o.Len())
		var visitErr error
		// Visit walks members in the order they were parsed
		o.Visit(func(key []byte, child *fastjson.Value) {
			if visitErr != nil {
				return
			}
			name := string(key)
			if _, dup := seen[name]; dup {
				visitErr = fmt.Errorf("duplicate object key %q", name)
				return
			}
			seen[name] = struct{}{}

			value, err := nodeFromValue(child)
			if err != nil {
				visitErr = err
				return
			}
			n.Members = append(n.Members, Member{Name: name, Value: value})
		})
		if visitErr != nil {
			return nil, visitErr
		}
		return n, nil
	case fastjson.TypeArray:
		values, err := v.Array()
		if err != nil {
			return nil, err
		}
		n := &Node{Kind: KindArray}
		for _, item := range values {
			child, err := nodeFromValue(item)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, child)
		}
		return n, nil
	case fastjson.TypeString:
		b, err := v.StringBytes()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindString, Text: string(b)}, nil
	case fastjson.TypeNumber:
		// literal text, so "1.50" stays "1.50"
		return &Node{Kind: KindNumber, Text: string(v.MarshalTo(nil))}, nil
	case fastjson.TypeTrue:
		return &Node{Kind: KindBool, Text: "true"}, nil
	case fastjson.TypeFalse:
		return &Node{Kind: KindBool, Text: "false"}, nil
	case fastjson.TypeNull:
		return &Node{Kind: KindNull}, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value type %s", v.Type())
	}
}
