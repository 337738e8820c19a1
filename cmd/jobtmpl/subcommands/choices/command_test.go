package choices_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opst/jobtemplate/cmd/jobtmpl/env"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/choices"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/internal/commandline"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/logger"
	"github.com/opst/jobtemplate/pkg/catalog"
	"github.com/opst/jobtemplate/pkg/cmp"
	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/typedesc"
	"github.com/youta-t/flarc"
)

func TestChoicesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	if err := os.WriteFile(path, []byte(`
inputs:
  - key: dataset
    type: PK<Dataset<Domain>>
  - key: base
    type: JobOutput<Model<Domain,Framework>>
parameters:
  - name: epochs
    types: int
  - name: image
    types: DockerImage<Domain,Framework,Task<'train'>>
`), 0600); err != nil {
		t.Fatal(err)
	}

	trainer := catalog.Entry{
		PK: 10, Model: typedesc.DockerImageModel, Name: "trainer",
		Domain: "ic", Framework: "tf:2",
		Image: &catalog.Image{Repository: "example.com/trainer", Tag: "1.0"},
		Tasks: []typedesc.TaskId{"train"},
	}
	anytask := catalog.Entry{
		PK: 11, Model: typedesc.DockerImageModel, Name: "anytask",
		Domain: "ic", Framework: "tf:2",
		Image: &catalog.Image{Repository: "example.com/anytask", Tag: "latest"},
	}
	evaluator := catalog.Entry{
		PK: 12, Model: typedesc.DockerImageModel, Name: "evaluator",
		Domain: "ic", Framework: "tf:2",
		Image: &catalog.Image{Repository: "example.com/evaluator", Tag: "1.0"},
		Tasks: []typedesc.TaskId{"evaluate"},
	}
	cifar := catalog.Entry{PK: 1, Model: "Dataset", Name: "cifar10", Domain: "ic"}
	squad := catalog.Entry{PK: 2, Model: "Dataset", Name: "squad", Domain: "qa"}
	resnet := catalog.Entry{PK: 3, Model: "Model", Name: "resnet", Domain: "ic", Framework: "tf:2", JobOutput: true}
	torchnet := catalog.Entry{PK: 4, Model: "Model", Name: "torchnet", Domain: "ic", Framework: "torch:2", JobOutput: true}

	jobEnv := env.JobEnv{
		Domain:    "ic",
		Framework: env.Framework{Name: "tf", Version: "2"},
		Objects:   []catalog.Entry{trainer, anytask, evaluator, cifar, squad, resnet, torchnet},
	}

	type then struct {
		entries []catalog.Entry
		err     error
	}

	theory := func(key string, then then) func(*testing.T) {
		return func(t *testing.T) {
			stdout := new(bytes.Buffer)
			cl := commandline.MockCommandline[struct{}]{
				Fullname_: "jobtmpl choices",
				Stdout_:   stdout,
				Stderr_:   new(bytes.Buffer),
				Args_: map[string][]string{
					choices.ARG_TEMPLATE: {path},
					choices.ARG_KEY:      {key},
				},
			}
			task := choices.Task()
			err := task(context.Background(), logger.Null(), jobEnv, cl, []any{})
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Errorf("unexpected error: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			actual := []catalog.Entry{}
			if err := json.Unmarshal(stdout.Bytes(), &actual); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
			}
			if !cmp.SliceEqWith(actual, then.entries, catalog.Entry.Equal) {
				t.Errorf(
					"unmatch:\n===actual===\n%+v\n===expected===\n%+v",
					actual, then.entries,
				)
			}
		}
	}

	t.Run("datasets in the domain", theory("dataset", then{entries: []catalog.Entry{cifar}}))
	t.Run("job outputs in the domain and framework", theory("base", then{entries: []catalog.Entry{resnet}}))
	t.Run("docker images for the task", theory("image", then{entries: []catalog.Entry{trainer, anytask}}))
	t.Run("not a reference", theory("epochs", then{err: choices.ErrNotReference}))
	t.Run("unknown key", theory("nothing", then{err: slots.ErrUnknownKey}))
	t.Run("unknown key is a usage error", theory("nothing", then{err: flarc.ErrUsage}))
}
