package catalog

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is the wrapped on-disk catalog format.
//
// Example:
//
//	presentations:
//	  - name: lambda
//	    filename: lambda.pptx
//	  - name: knock knock jokes for dummies
//	    filename: knock_knock_for_dummies.pptx
//	    pronunciation: knock knock <break time="200ms"/> jokes for dummies
type Document struct {
	Presentations []Entry `yaml:"presentations"`
}

// Decode parses a catalog document from r and validates it.
//
// Both YAML and JSON are accepted (JSON is valid YAML). The document may be
// either a bare list of entries or a [Document] with a "presentations" key.
func Decode(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}

	entries, err := decodeBytes(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func decodeBytes(data []byte) ([]Entry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(root.Content) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("catalog: decode list: %w", err)
		}
	case yaml.MappingNode:
		var doc Document
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("catalog: decode document: %w", err)
		}
		entries = doc.Presentations
	default:
		return nil, fmt.Errorf("catalog: decode: unexpected top-level %s", nodeKind(root.Content[0].Kind))
	}

	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "node"
	}
}
