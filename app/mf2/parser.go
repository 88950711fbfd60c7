package mf2

import (
	"bytes"
	"fmt"
	"net/url"

	"willnorris.com/go/microformats"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse turns HTML markup into a Document. Relative URLs are resolved against baseURL.
// The underlying parser never fetches anything on its own.
func (p *Parser) Parse(markup []byte, baseURL *url.URL) (*Document, error) {
	if len(bytes.TrimSpace(markup)) == 0 {
		return nil, fmt.Errorf("markup is empty")
	}

	data := microformats.Parse(bytes.NewReader(markup), baseURL)
	if data == nil {
		return nil, fmt.Errorf("failed to parse markup")
	}

	doc := &Document{
		Items: make([]*Node, 0, len(data.Items)),
		Rels:  make(map[string][]string, len(data.Rels)),
	}
	for _, item := range data.Items {
		if n := convertNode(item); n != nil {
			doc.Items = append(doc.Items, n)
		}
	}
	for rel, urls := range data.Rels {
		doc.Rels[rel] = append([]string(nil), urls...)
	}

	return doc, nil
}

func convertNode(mf *microformats.Microformat) *Node {
	if mf == nil {
		return nil
	}

	n := &Node{
		ID:         mf.ID,
		Type:       append([]string(nil), mf.Type...),
		Properties: make(map[string][]Value, len(mf.Properties)),
		Value:      mf.Value,
		HTML:       mf.HTML,
	}

	for name, raw := range mf.Properties {
		values := make([]Value, 0, len(raw))
		for _, r := range raw {
			if v, ok := convertValue(r); ok {
				values = append(values, v)
			}
		}
		n.Properties[name] = values
	}

	for _, child := range mf.Children {
		if c := convertNode(child); c != nil {
			n.Children = append(n.Children, c)
		}
	}

	return n
}

func convertValue(raw interface{}) (Value, bool) {
	switch v := raw.(type) {
	case string:
		return Value{Text: v}, true
	case *microformats.Microformat:
		node := convertNode(v)
		if node == nil {
			return Value{}, false
		}
		return Value{Text: node.Value, HTML: node.HTML, Node: node}, true
	case map[string]string:
		return mapValue(v["value"], v["html"], v["alt"], hasKey(v, "html")), true
	case map[string]interface{}:
		value, _ := v["value"].(string)
		markup, hasHTML := v["html"].(string)
		alt, _ := v["alt"].(string)
		return mapValue(value, markup, alt, hasHTML), true
	default:
		return Value{}, false
	}
}

func mapValue(value, markup, alt string, embedded bool) Value {
	return Value{Text: value, HTML: markup, Alt: alt, Embedded: embedded}
}

func hasKey(m map[string]string, key string) bool {
	_, ok := m[key]
	return ok
}
