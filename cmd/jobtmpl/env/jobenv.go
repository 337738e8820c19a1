package env

import (
	"fmt"
	"os"

	"github.com/opst/jobtemplate/pkg/catalog"
	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/typedesc"
	"gopkg.in/yaml.v3"
)

type Framework struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
}

// JobEnv is the environment where templates are resolved.
type JobEnv struct {
	Domain    string    `yaml:"domain"`
	Framework Framework `yaml:"framework"`
	License   string    `yaml:"license"`

	// Objects are remote objects which references can point.
	Objects []catalog.Entry `yaml:"catalog"`
}

func New() *JobEnv {
	return new(JobEnv)
}

func (je *JobEnv) Context() slots.Context {
	fw := typedesc.FrameworkId("")
	if je.Framework.Name != "" {
		fw = typedesc.NewFrameworkId(je.Framework.Name, je.Framework.Version)
	}
	return slots.Context{
		Domain:    typedesc.DomainId(je.Domain),
		Framework: fw,
		License:   je.License,
	}
}

func (je *JobEnv) Catalog() (*catalog.Catalog, error) {
	return catalog.New(je.Objects)
}

// LoadJobEnv reads jobenv file.
//
// If the file is missing, it returns an empty JobEnv.
func LoadJobEnv(filepath string) (*JobEnv, error) {
	env := JobEnv{}

	content, err := os.ReadFile(filepath)
	if err != nil {
		return &env, nil
	}

	if err := yaml.Unmarshal(content, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath, err)
	}

	return &env, nil
}
