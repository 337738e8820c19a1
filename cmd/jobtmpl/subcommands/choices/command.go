package choices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/opst/jobtemplate/cmd/jobtmpl/env"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/common"
	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/template"
	"github.com/opst/jobtemplate/pkg/utils"
	"github.com/youta-t/flarc"
)

// ErrNotReference is returned when the slot does not reference anything.
var ErrNotReference = errors.New("not a reference")

const (
	ARG_TEMPLATE = "TEMPLATE"
	ARG_KEY      = "KEY"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List objects in catalog which can be set to a slot.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_TEMPLATE, Required: true,
				Help: "Path to the job template file (YAML or JSON).",
			},
			{
				Name: ARG_KEY, Required: true,
				Help: "Key of input, or name of parameter.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
List objects in the catalog of jobenv which can be referenced by a slot of a job template.

The slot should be a reference: PK<...>, JobOutput<...> or DockerImage<...>.

Example:

    {{ .Command }} ./template.yaml dataset
`),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		jobEnv env.JobEnv,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		args := cl.Args()
		key := args[ARG_KEY][0]

		cat, err := jobEnv.Catalog()
		if err != nil {
			return fmt.Errorf("%w: catalog in jobenv is broken", err)
		}

		def, err := template.Load(args[ARG_TEMPLATE][0])
		if err != nil {
			return err
		}
		res, fatal := common.Resolver(logger, jobEnv).Resolve(def)

		slot, ok := utils.First(
			utils.Concat(res.Inputs, res.Parameters),
			func(s slots.Slot) bool { return s.Key == key },
		)
		if !ok {
			if fatal != nil {
				return fatal
			}
			return errors.Join(flarc.ErrUsage, fmt.Errorf("%w: %s", slots.ErrUnknownKey, key))
		}
		if slot.Edit.Editor != slots.ReferenceChooser {
			return fmt.Errorf("%w: %s (%s)", ErrNotReference, key, slot.Type)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(cat.Choices(slot)); err != nil {
			return err
		}
		return nil
	}
}
