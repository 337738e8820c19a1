package slots

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/opst/jobtemplate/pkg/template"
	"github.com/opst/jobtemplate/pkg/typedesc"
	kstrings "github.com/opst/jobtemplate/pkg/utils/strings"
	"github.com/opst/jobtemplate/pkg/values"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
)

var (
	// ErrSkip means the parameter is not editable and dropped. It is not fatal.
	ErrSkip = errors.New("parameter skipped")

	// ErrConstant means the parameter is a constant. It is also an ErrSkip.
	ErrConstant = errors.New("constant parameter")

	// ErrNoCandidateMatched means a docker image parameter has no usable type.
	//
	// Jobs cannot be submitted without an image to run, so this is fatal.
	ErrNoCandidateMatched = errors.New("no candidate type matched")

	// ErrDuplicatedKey is reported when a template declares a key twice.
	ErrDuplicatedKey = errors.New("duplicated key")
)

// ResolutionError is returned by ResolveParameter.
type ResolutionError struct {
	Name       string
	Candidates []string

	// Fatal is true for ErrNoCandidateMatched, and false for ErrSkip.
	Fatal bool

	reason error

	// Causes are failures of each candidates.
	Causes []error
}

func (e *ResolutionError) Error() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "parameter %q: %s", e.Name, e.reason)
	if 0 < len(e.Candidates) {
		fmt.Fprintf(b, " (candidates: %s)", strings.Join(e.Candidates, ", "))
	}
	for _, c := range e.Causes {
		b.WriteString("\n")
		b.WriteString(kstrings.Indent(c.Error(), "\t"))
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() []error {
	errs := []error{e.reason}
	if errors.Is(e.reason, ErrConstant) {
		errs = append(errs, ErrSkip)
	}
	return append(errs, e.Causes...)
}

// Resolver resolves template inputs and parameters into slots.
//
// Resolver holds no mutable state. It can be used concurrently.
type Resolver struct {
	ctx    Context
	logger *log.Logger
}

type Option func(*Resolver) *Resolver

// WithLogger sets logger for warnings.
//
// Without this, warnings are not logged (but they are returned from Resolve).
func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) *Resolver {
		if logger != nil {
			r.logger = logger
		}
		return r
	}
}

func NewResolver(ctx Context, options ...Option) *Resolver {
	r := &Resolver{
		ctx:    ctx,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range options {
		r = opt(r)
	}
	return r
}

func (r *Resolver) Context() Context {
	return r.ctx
}

func (r *Resolver) bind(d typedesc.Descriptor) typedesc.Descriptor {
	return typedesc.Bind(d, r.ctx.Domain, r.ctx.Framework)
}

// ResolveInput resolves a template input into a slot.
//
// This always gives a slot. When the type is not recognized,
// the slot has Opaque descriptor and is edited as text.
func (r *Resolver) ResolveInput(in template.Input) Slot {
	s, err := r.resolveInput(in)
	if err != nil {
		r.logger.Printf("WARNING: %s", err)
	}
	return s
}

func (r *Resolver) resolveInput(in template.Input) (Slot, error) {
	d, err := typedesc.Parse(in.Type)
	if err == nil {
		if _, ok := d.(typedesc.NameRef); ok {
			err = fmt.Errorf("%q is a name alias and cannot be an input by itself", in.Type)
		}
	}
	if err != nil {
		opaque := typedesc.Opaque{Type: in.Type}
		return Slot{
			Key:        in.Key,
			Type:       in.Type,
			Descriptor: opaque,
			Default:    values.Str(""),
			Edit:       EditKind{Editor: TextField},
			Help:       in.Help,
			Origin:     FromInput,
		}, fmt.Errorf("input %q: edited as text: %w", in.Key, err)
	}

	d = r.bind(d)
	zero, err := values.Zero(d)
	if err != nil {
		return Slot{}, err
	}
	return Slot{
		Key:        in.Key,
		Type:       in.Type,
		Descriptor: d,
		Default:    zero,
		Edit:       EditKindOf(d),
		Help:       in.Help,
		Origin:     FromInput,
	}, nil
}

// ResolveParameter resolves a template parameter into a slot.
//
// Candidate types are tried in order, and the first recognized one is used.
// Name<...> aliases are passed over; they are not failures.
//
// # Returns
//
// - Slot: resolved slot.
//
// - error: *ResolutionError, when no slot is made.
// It wraps ErrSkip if the parameter is just dropped (constants, unknown types),
// or ErrNoCandidateMatched when the parameter declares docker image types but
// none of candidates are usable. The latter should be treated as fatal.
func (r *Resolver) ResolveParameter(p template.Parameter) (Slot, error) {
	s, warns, err := r.resolveParameter(p)
	for _, w := range warns {
		r.logger.Printf("WARNING: %s", w)
	}
	return s, err
}

func (r *Resolver) resolveParameter(p template.Parameter) (Slot, []error, error) {
	if p.Const {
		return Slot{}, nil, &ResolutionError{Name: p.Name, Candidates: p.Types, reason: ErrConstant}
	}

	causes := []error{}
	dockerForm := false
	var chosen typedesc.Descriptor
	chosenType := ""

	for _, t := range p.Types {
		d, err := typedesc.Parse(t)
		if err != nil {
			var perr *typedesc.ParseError
			if errors.As(err, &perr) && perr.Family == typedesc.FamilyDockerImage {
				dockerForm = true
			}
			causes = append(causes, err)
			continue
		}
		if n, ok := d.(typedesc.NameRef); ok {
			if n.Model.Name == typedesc.DockerImageModel {
				dockerForm = true
			}
			continue
		}
		chosen, chosenType = d, t
		break
	}

	if chosen == nil {
		if dockerForm {
			return Slot{}, nil, &ResolutionError{
				Name: p.Name, Candidates: p.Types, Fatal: true,
				reason: ErrNoCandidateMatched, Causes: causes,
			}
		}
		return Slot{}, nil, &ResolutionError{
			Name: p.Name, Candidates: p.Types,
			reason: ErrSkip, Causes: causes,
		}
	}

	warns := []error{}
	for _, c := range causes {
		warns = append(warns, fmt.Errorf("parameter %q: candidate passed over: %w", p.Name, c))
	}

	d := r.bind(chosen)
	def, err := values.Zero(d)
	if err != nil {
		return Slot{}, warns, err
	}
	if p.Default != nil {
		v, err := values.Coerce(d, *p.Default)
		if err != nil {
			var cerr *values.CoercionError
			if errors.As(err, &cerr) {
				err = cerr.WithField(p.Name)
			}
			warns = append(warns, fmt.Errorf("parameter %q: declared default is ignored: %w", p.Name, err))
		} else {
			def = v
		}
	}

	return Slot{
		Key:        p.Name,
		Type:       chosenType,
		Descriptor: d,
		Default:    def,
		Edit:       EditKindOf(d),
		Help:       p.Help,
		Origin:     FromParameter,
	}, warns, nil
}

// Resolution is a result of resolving a whole template.
type Resolution struct {
	Inputs     []Slot
	Parameters []Slot

	// Warnings are non-fatal problems found in resolution. nil if there are none.
	Warnings utilerrors.Aggregate
}

// Resolve resolves all inputs and non-constant parameters of the template.
//
// Non-fatal problems are collected into Resolution.Warnings, and resolution goes on.
// Only when a docker image parameter cannot be resolved, it returns an error
// wrapping ErrNoCandidateMatched, together with the best-effort Resolution.
func (r *Resolver) Resolve(def template.Definition) (Resolution, error) {
	warns := []error{}
	fatals := []error{}
	res := Resolution{Inputs: []Slot{}, Parameters: []Slot{}}

	seen := sets.New[string]()
	for _, in := range def.Inputs {
		if seen.Has(in.Key) {
			warns = append(warns, fmt.Errorf("%w: input %q: later one is ignored", ErrDuplicatedKey, in.Key))
			continue
		}
		seen.Insert(in.Key)

		s, err := r.resolveInput(in)
		if err != nil {
			warns = append(warns, err)
		}
		res.Inputs = append(res.Inputs, s)
	}

	seen = sets.New[string]()
	for _, p := range def.Parameters {
		if p.Const {
			continue
		}
		if seen.Has(p.Name) {
			warns = append(warns, fmt.Errorf("%w: parameter %q: later one is ignored", ErrDuplicatedKey, p.Name))
			continue
		}
		seen.Insert(p.Name)

		s, ws, err := r.resolveParameter(p)
		warns = append(warns, ws...)
		if err != nil {
			var rerr *ResolutionError
			if errors.As(err, &rerr) && rerr.Fatal {
				fatals = append(fatals, err)
			} else {
				warns = append(warns, err)
			}
			continue
		}
		res.Parameters = append(res.Parameters, s)
	}

	for _, w := range warns {
		r.logger.Printf("WARNING: %s", w)
	}
	res.Warnings = utilerrors.NewAggregate(warns)

	if len(fatals) != 0 {
		return res, utilerrors.NewAggregate(fatals)
	}
	return res, nil
}
