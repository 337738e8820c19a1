package request

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/opst/jobtemplate/cmd/jobtmpl/env"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/common"
	xe "github.com/opst/jobtemplate/pkg/errors"
	"github.com/opst/jobtemplate/pkg/jobrequest"
	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/template"
	"github.com/opst/jobtemplate/pkg/utils"
	"github.com/youta-t/flarc"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"gopkg.in/yaml.v3"
)

type Flag struct {
	Values      string   `flag:"values" alias:"f" metavar:"path/to/values.yaml" help:"YAML file of values, by key of inputs and names of parameters."`
	Set         []string `flag:"set" alias:"s" metavar:"KEY=VALUE" help:"Set a value in the form key=value. Repeatable. It takes precedence over --values."`
	Description string   `flag:"description" alias:"d" metavar:"TEXT" help:"Description of the job."`
}

const ARG_TEMPLATE = "TEMPLATE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Build a job request from a job template.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_TEMPLATE, Required: true,
				Help: "Path to the job template file (YAML or JSON).",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Build a job request from a job template and values, and print it in JSON.

Values are given by a YAML file (--values) and/or flags (--set).

    {{ .Command }} ./template.yaml --values ./values.yaml --set epochs=20 --set dataset=cifar10

In --set, arrays are written as lines joined with "\n", or given by --values as YAML sequences.
References (PK<...>, JobOutput<...> and DockerImage<...>) can be set by a primary key,
or by a name of object in the catalog of jobenv.

Slots without values get their defaults.
All values which cannot be used are reported at once.
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
		flags := cl.Flags()

		raw := map[string]any{}
		if flags.Values != "" {
			v, err := LoadValues(flags.Values)
			if err != nil {
				return err
			}
			raw = v
		}
		set, err := utils.MapUntilError(flags.Set, parseAssignment)
		if err != nil {
			return errors.Join(flarc.ErrUsage, err)
		}
		for _, kv := range set {
			raw[kv.key] = kv.value
		}

		cat, err := jobEnv.Catalog()
		if err != nil {
			return fmt.Errorf("%w: catalog in jobenv is broken", err)
		}

		def, err := template.Load(cl.Args()[ARG_TEMPLATE][0])
		if err != nil {
			return err
		}
		res, err := common.Resolver(logger, jobEnv).Resolve(def)
		if err != nil {
			return err
		}

		raw, err = cat.ResolveNames(utils.Concat(res.Inputs, res.Parameters), raw)
		if err != nil {
			return err
		}

		jr, err := Build(res, raw, flags.Description)
		if err != nil {
			return err
		}

		return jobrequest.Encode(cl.Stdout(), jr, "    ")
	}
}

// Build binds raw values onto resolved slots, and makes a job request.
//
// Each raw value goes to the input and/or the parameter having its key.
// Values for unknown keys are errors.
func Build(res slots.Resolution, raw map[string]any, description string) (jobrequest.JobRequest, error) {
	isInput := map[string]bool{}
	for _, s := range res.Inputs {
		isInput[s.Key] = true
	}
	isParam := map[string]bool{}
	for _, s := range res.Parameters {
		isParam[s.Key] = true
	}

	rawInputs := map[string]any{}
	rawParams := map[string]any{}
	for k, v := range raw {
		if isInput[k] {
			rawInputs[k] = v
		}
		if isParam[k] || !isInput[k] {
			rawParams[k] = v
		}
	}

	inputs, ierr := slots.Bind(res.Inputs, rawInputs)
	parameters, perr := slots.Bind(res.Parameters, rawParams)
	if err := utilerrors.Flatten(utilerrors.NewAggregate([]error{ierr, perr})); err != nil {
		return jobrequest.JobRequest{}, err
	}
	return jobrequest.Build(inputs, parameters, description), nil
}

// LoadValues reads YAML mapping of raw values.
func LoadValues(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(content, &values); err != nil {
		return nil, xe.WrapWithNote(path, err)
	}
	if values == nil {
		// null document
		return map[string]any{}, nil
	}
	return values, nil
}

type assignment struct {
	key   string
	value string
}

func parseAssignment(s string) (assignment, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return assignment{}, fmt.Errorf("invalid assignment: %s", s)
	}
	k = strings.TrimSpace(k)
	if k == "" {
		return assignment{}, fmt.Errorf("invalid assignment: key is empty: %s", s)
	}
	return assignment{key: k, value: strings.ReplaceAll(v, `\n`, "\n")}, nil
}
