package typeinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/opst/jobtemplate/cmd/jobtmpl/env"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/common"
	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/typedesc"
	"github.com/opst/jobtemplate/pkg/values"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Bind bool `flag:"bind" help:"Replace Domain and Framework placeholders with ones in jobenv."`
}

const ARG_TYPE = "TYPE"

// Description is what is known about a type string.
type Description struct {
	Type string `json:"type"`

	// Canonical is the canonical form. Empty when Type is not recognized.
	Canonical string `json:"canonical,omitempty"`

	Family string `json:"family"`
	Edit   string `json:"edit,omitempty"`

	// Zero is the value used when nothing is given.
	Zero values.Value `json:"zero,omitempty"`

	Error string `json:"error,omitempty"`
}

// Describe describes a type string. The context is applied when it is not empty.
func Describe(typeString string, ctx slots.Context) Description {
	d, err := typedesc.Parse(typeString)
	if err != nil {
		desc := Description{Type: typeString, Family: typedesc.FamilyUnknown.String(), Error: err.Error()}
		var perr *typedesc.ParseError
		if errors.As(err, &perr) {
			desc.Family = perr.Family.String()
		}
		return desc
	}

	d = typedesc.Bind(d, ctx.Domain, ctx.Framework)
	desc := Description{
		Type:      typeString,
		Canonical: d.String(),
		Family:    d.Family().String(),
		Edit:      slots.EditKindOf(d).String(),
	}
	if z, err := values.Zero(d); err == nil {
		desc.Zero = z
	}
	return desc
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Describe type strings.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_TYPE, Required: true, Repeatable: true,
				Help: "Type string to be described, like 'Array<int>[0:5]' or 'PK<Dataset<Domain>>'.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Describe type strings: canonical form, family and how it is edited.

Example:

    {{ .Command }} 'int' 'PK<Dataset<Domain>>' 'Array<str>'

With --bind, Domain and Framework placeholders are replaced with
ones written in jobenv.

When some of types are not recognized, all types are described and
then this command fails.
`),
	)
}

func Task() common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		jobEnv env.JobEnv,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		bind := slots.Context{}
		if cl.Flags().Bind {
			bind = jobEnv.Context()
		}

		types := cl.Args()[ARG_TYPE]
		descs := make([]Description, 0, len(types))
		unrecognized := 0
		for _, t := range types {
			d := Describe(t, bind)
			if d.Error != "" {
				unrecognized += 1
			}
			descs = append(descs, d)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(descs); err != nil {
			return err
		}

		if 0 < unrecognized {
			return fmt.Errorf("%w: %d of %d", typedesc.ErrUnrecognized, unrecognized, len(types))
		}
		return nil
	}
}
