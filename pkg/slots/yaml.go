package slots

import (
	"github.com/opst/jobtemplate/pkg/utils/yamler"
	"gopkg.in/yaml.v3"
)

// MarshalYAML renders the slot for people. Help goes to the head comment.
//
// This is one-way. Slots are not unmarshalled.
func (s Slot) MarshalYAML() (interface{}, error) {
	def := new(yaml.Node)
	if s.Default == nil {
		def = yamler.Null()
	} else if err := def.Encode(s.Default); err != nil {
		return nil, err
	}

	opts := []yamler.Option{}
	if s.Help != "" {
		opts = append(opts, yamler.WithHeadComment(s.Help))
	}

	entries := []yamler.MapEntry{
		yamler.Entry(yamler.Text("key", opts...), yamler.Text(s.Key)),
		yamler.Entry(yamler.Text("from"), yamler.Text(s.Origin.String())),
		yamler.Entry(yamler.Text("type"), yamler.Text(s.Type, yamler.WithStyle(yaml.DoubleQuotedStyle))),
	}
	if s.Descriptor != nil && s.Descriptor.String() != s.Type {
		entries = append(entries, yamler.Entry(
			yamler.Text("canonical"),
			yamler.Text(s.Descriptor.String(), yamler.WithStyle(yaml.DoubleQuotedStyle)),
		))
	}
	entries = append(
		entries,
		yamler.Entry(yamler.Text("edit"), yamler.Text(s.Edit.String())),
		yamler.Entry(yamler.Text("default"), def),
	)
	return yamler.Map(entries...), nil
}
