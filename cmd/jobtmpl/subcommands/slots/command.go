package slots

import (
	"context"
	"log"

	"github.com/opst/jobtemplate/cmd/jobtmpl/env"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/common"
	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/template"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
)

const ARG_TEMPLATE = "TEMPLATE"

type resolved struct {
	Inputs     []slots.Slot `yaml:"inputs"`
	Parameters []slots.Slot `yaml:"parameters"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show editable slots of a job template.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_TEMPLATE, Required: true,
				Help: "Path to the job template file (YAML or JSON).",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Resolve inputs and parameters of a job template into slots, and print them in YAML.

Domain and Framework placeholders in types are replaced with ones in jobenv.
Constant parameters are not shown.

Problems which do not prevent a job request are logged as warnings.
If a docker image parameter has no usable type, slots are printed and
then this command fails.

Example:

    {{ .Command }} ./template.yaml
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
		def, err := template.Load(cl.Args()[ARG_TEMPLATE][0])
		if err != nil {
			return err
		}
		res, fatal := common.Resolver(logger, jobEnv).Resolve(def)

		enc := yaml.NewEncoder(cl.Stdout())
		enc.SetIndent(2)
		if err := enc.Encode(resolved{Inputs: res.Inputs, Parameters: res.Parameters}); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		return fatal
	}
}
