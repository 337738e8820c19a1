package yamler

import (
	"gopkg.in/yaml.v3"
)

// Text makes a scalar node.
func Text(value string, options ...Option) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	for _, opt := range options {
		n = opt(n)
	}
	return n
}

type Option func(*yaml.Node) *yaml.Node

func WithStyle(s yaml.Style) Option {
	return func(n *yaml.Node) *yaml.Node {
		n.Style = s
		return n
	}
}

func WithHeadComment(comment string) Option {
	return func(n *yaml.Node) *yaml.Node {
		n.HeadComment = comment
		return n
	}
}

func WithLineComment(comment string) Option {
	return func(n *yaml.Node) *yaml.Node {
		n.LineComment = comment
		return n
	}
}

func Seq(s ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: s}
}

func Null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

type MapEntry struct {
	Key   *yaml.Node
	Value *yaml.Node
}

func Entry(k *yaml.Node, v *yaml.Node) MapEntry {
	return MapEntry{Key: k, Value: v}
}

// Map makes a mapping node. Entries keep their order.
func Map(e ...MapEntry) *yaml.Node {
	content := []*yaml.Node{}

	for _, ee := range e {
		content = append(content, ee.Key)
		content = append(content, ee.Value)
	}

	return &yaml.Node{Kind: yaml.MappingNode, Content: content}
}
