package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/typedesc"
	"github.com/opst/jobtemplate/pkg/values"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
)

var (
	ErrBadEntry  = errors.New("bad catalog entry")
	ErrBadImage  = errors.New("bad docker image")
	ErrNotFound  = errors.New("not found in catalog")
	ErrAmbiguous = errors.New("ambiguous name")
)

// Entry is a remote object already loaded by somebody else.
type Entry struct {
	PK int64 `json:"pk" yaml:"pk"`

	// Model is the model name, like "Dataset". Docker images have "DockerImage".
	Model string `json:"model" yaml:"model"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	Domain    typedesc.DomainId    `json:"domain,omitempty" yaml:"domain,omitempty"`
	Framework typedesc.FrameworkId `json:"framework,omitempty" yaml:"framework,omitempty"`

	// JobOutput is true when the object is an output of a job.
	JobOutput bool `json:"jobOutput,omitempty" yaml:"jobOutput,omitempty"`

	// Image is the docker image tag. Only for docker images.
	Image *Image `json:"image,omitempty" yaml:"image,omitempty"`

	// Tasks are tasks the docker image can perform. Empty means "any task".
	Tasks []typedesc.TaskId `json:"tasks,omitempty" yaml:"tasks,omitempty"`
}

func (e Entry) Equal(o Entry) bool {
	return e.PK == o.PK &&
		e.Model == o.Model &&
		e.Name == o.Name &&
		e.Domain == o.Domain &&
		e.Framework == o.Framework &&
		e.JobOutput == o.JobOutput &&
		e.Image.Equal(o.Image) &&
		slices.Equal(e.Tasks, o.Tasks)
}

// ModelRef is the qualified model of the entry.
func (e Entry) ModelRef() typedesc.ModelRef {
	return typedesc.ModelRef{Name: e.Model, Domain: e.Domain, Framework: e.Framework}
}

func (e Entry) dockerImage() bool {
	return e.Model == typedesc.DockerImageModel
}

func (e Entry) performs(task typedesc.TaskId) bool {
	if len(e.Tasks) == 0 {
		return true
	}
	return slices.ContainsFunc(e.Tasks, task.Match)
}

// Fits tells a value of descriptor d can reference the entry.
func (e Entry) Fits(d typedesc.Descriptor) bool {
	switch d := d.(type) {
	case typedesc.PrimaryKeyRef:
		return !e.JobOutput && d.Model.Equal(e.ModelRef())
	case typedesc.JobOutputRef:
		return e.JobOutput && d.Model.Equal(e.ModelRef())
	case typedesc.DockerImageRef:
		return e.dockerImage() && d.Model().Equal(e.ModelRef()) && e.performs(d.Task)
	}
	return false
}

func (e Entry) String() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "%d\t%s\t%s", e.PK, e.Name, e.ModelRef())
	if e.Image != nil {
		fmt.Fprintf(b, "\t%s", e.Image)
	}
	return b.String()
}

// Catalog is a read-only collection of entries.
type Catalog struct {
	entries []Entry
}

// New builds a catalog.
//
// Each entry should have a unique PK, a model and a name.
// Docker images should have an image tag.
func New(entries []Entry) (*Catalog, error) {
	errs := []error{}
	pks := sets.New[int64]()
	for nth, e := range entries {
		if pks.Has(e.PK) {
			errs = append(errs, fmt.Errorf("%w: #%d: duplicated pk %d", ErrBadEntry, nth, e.PK))
		}
		pks.Insert(e.PK)

		if e.PK < 0 {
			errs = append(errs, fmt.Errorf("%w: #%d: negative pk %d", ErrBadEntry, nth, e.PK))
		}
		if e.Model == "" {
			errs = append(errs, fmt.Errorf("%w: #%d: model is missing", ErrBadEntry, nth))
		}
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("%w: #%d: name is missing", ErrBadEntry, nth))
		}
		if e.dockerImage() && e.Image == nil {
			errs = append(errs, fmt.Errorf("%w: #%d: docker image %q has no image tag", ErrBadEntry, nth, e.Name))
		}
	}
	if err := utilerrors.NewAggregate(errs); err != nil {
		return nil, err
	}
	return &Catalog{entries: slices.Clone(entries)}, nil
}

// Len is the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Get returns the entry with pk.
func (c *Catalog) Get(pk int64) (Entry, bool) {
	for _, e := range c.entries {
		if e.PK == pk {
			return e, true
		}
	}
	return Entry{}, false
}

// Choices returns entries which the slot can reference, in catalog order.
//
// For slots which are not references, it returns an empty slice.
func (c *Catalog) Choices(s slots.Slot) []Entry {
	ret := []Entry{}
	for _, e := range c.entries {
		if e.Fits(s.Descriptor) {
			ret = append(ret, e)
		}
	}
	return ret
}

// Lookup finds an entry which fits d, by name.
//
// # Returns
//
// - Entry: the entry found.
//
// - error: ErrNotFound or ErrAmbiguous (more than one entry have the name).
func (c *Catalog) Lookup(d typedesc.Descriptor, name string) (Entry, error) {
	found := []Entry{}
	for _, e := range c.entries {
		if e.Name == name && e.Fits(d) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return Entry{}, fmt.Errorf("%w: %s (%s)", ErrNotFound, name, d)
	case 1:
		return found[0], nil
	default:
		pks := make([]string, len(found))
		for i, e := range found {
			pks[i] = strconv.FormatInt(e.PK, 10)
		}
		return Entry{}, fmt.Errorf(
			"%w: %s (%s): pk = %s", ErrAmbiguous, name, d, strings.Join(pks, ", "),
		)
	}
}

// ResolveNames replaces names given to reference slots with their primary keys.
//
// Raw values which are not text, or are integers already, are left as they are.
// Values for unknown keys and non-reference slots are left as they are, too.
//
// It returns a new map. raw is not modified.
func (c *Catalog) ResolveNames(ss []slots.Slot, raw map[string]any) (map[string]any, error) {
	ret := make(map[string]any, len(raw))
	for k, v := range raw {
		ret[k] = v
	}

	errs := []error{}
	for _, s := range ss {
		if !typedesc.IsReference(s.Descriptor) {
			continue
		}
		text, ok := raw[s.Key].(string)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			continue
		}
		e, err := c.Lookup(s.Descriptor, text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Key, err))
			continue
		}
		ret[s.Key] = values.Ref(e.PK)
	}
	if err := utilerrors.NewAggregate(errs); err != nil {
		return nil, err
	}
	return ret, nil
}
