package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"gopkg.in/yaml.v3"
)

// Image is a docker image tag.
type Image struct {
	Repository string
	Tag        string
}

func (i *Image) Equal(o *Image) bool {
	if (i == nil) || (o == nil) {
		return (i == nil) && (o == nil)
	}
	return i.Repository == o.Repository &&
		i.Tag == o.Tag
}

// ParseImage parses s as docker image tag: [<repository>[:<port>]/]<name>[:<tag>]
//
// Tag is "latest" when omitted.
func ParseImage(s string) (*Image, error) {
	ref, err := name.NewTag(s, name.WithDefaultRegistry(""))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBadImage, s, err)
	}
	return &Image{Repository: ref.Repository.Name(), Tag: ref.TagStr()}, nil
}

func (i *Image) String() string {
	if i.Repository == "" && i.Tag == "" {
		return ""
	}
	return fmt.Sprintf(`%s:%s`, i.Repository, i.Tag)
}

func (i Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

func (i Image) MarshalYAML() (interface{}, error) {
	n := yaml.Node{
		Kind:  yaml.ScalarNode,
		Value: i.String(),
		Style: yaml.DoubleQuotedStyle,
	}
	return n, nil
}

func (i *Image) UnmarshalYAML(node *yaml.Node) error {
	expr := new(string)
	if err := node.Decode(expr); err != nil {
		return err
	}
	parsed, err := ParseImage(*expr)
	if err != nil {
		return err
	}
	*i = *parsed
	return nil
}

func (i *Image) UnmarshalJSON(b []byte) error {
	expr := new(string)
	if err := json.Unmarshal(b, expr); err != nil {
		return err
	}
	parsed, err := ParseImage(*expr)
	if err != nil {
		return err
	}
	*i = *parsed
	return nil
}
