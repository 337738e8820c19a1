package typedesc

import (
	"fmt"
	"strings"
)

// PrimitiveKind is a scalar type which can be an element of Array.
type PrimitiveKind int

const (
	Bool PrimitiveKind = iota + 1
	Int
	Float
	Str
)

func (k PrimitiveKind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case Str:
		return "str"
	default:
		return fmt.Sprintf("PrimitiveKind(%d)", int(k))
	}
}

// ParsePrimitiveKind returns PrimitiveKind for keyword "bool", "int", "float" or "str".
func ParsePrimitiveKind(s string) (PrimitiveKind, bool) {
	switch s {
	case "bool":
		return Bool, true
	case "int":
		return Int, true
	case "float":
		return Float, true
	case "str":
		return Str, true
	}
	return 0, false
}

// Family is a coarse classification of type strings.
//
// It is known as soon as the outermost name of a type string is read,
// so it is available even for type strings which fail to parse.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyPrimitive
	FamilyArray
	FamilyPrimaryKey
	FamilyJobOutput
	FamilyDockerImage
	FamilyName
	FamilyOpaque
)

func (f Family) String() string {
	switch f {
	case FamilyPrimitive:
		return "primitive"
	case FamilyArray:
		return "array"
	case FamilyPrimaryKey:
		return "primary key"
	case FamilyJobOutput:
		return "job output"
	case FamilyDockerImage:
		return "docker image"
	case FamilyName:
		return "name"
	case FamilyOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Descriptor is a parsed type string.
//
// Implementations are Primitive, Array, PrimaryKeyRef, JobOutputRef,
// DockerImageRef, NameRef and Opaque. All of them are comparable with ==.
type Descriptor interface {
	Family() Family

	// String returns canonical type string of the descriptor.
	//
	// Parse(d.String()) gives a descriptor equal to d, except for Opaque.
	String() string

	descriptor()
}

type Primitive struct {
	Kind PrimitiveKind
}

func (Primitive) descriptor()      {}
func (Primitive) Family() Family   { return FamilyPrimitive }
func (p Primitive) String() string { return p.Kind.String() }

// Range is a size limit of Array.
//
// The zero value means "unlimited".
type Range struct {
	Min     int64
	Max     int64
	Limited bool
}

func (r Range) String() string {
	if !r.Limited {
		return ""
	}
	return fmt.Sprintf("[%d:%d]", r.Min, r.Max)
}

// Array is a list of primitives.
//
// Bound is carried as declared, but nothing in this module enforces it.
type Array struct {
	Element PrimitiveKind
	Bound   Range
}

func (Array) descriptor()    {}
func (Array) Family() Family { return FamilyArray }
func (a Array) String() string {
	return "Array<" + a.Element.String() + ">" + a.Bound.String()
}

// Open returns a's unlimited counterpart.
func (a Array) Open() Array {
	return Array{Element: a.Element}
}

// PrimaryKeyRef is a reference to a remote object of Model, by its primary key.
type PrimaryKeyRef struct {
	Model ModelRef
}

func (PrimaryKeyRef) descriptor()      {}
func (PrimaryKeyRef) Family() Family   { return FamilyPrimaryKey }
func (p PrimaryKeyRef) String() string { return "PK<" + p.Model.String() + ">" }

// JobOutputRef is a reference to an output of another job, which is compatible with Model.
type JobOutputRef struct {
	Model ModelRef
}

func (JobOutputRef) descriptor()      {}
func (JobOutputRef) Family() Family   { return FamilyJobOutput }
func (j JobOutputRef) String() string { return "JobOutput<" + j.Model.String() + ">" }

// DockerImageModel is the model name of docker images.
const DockerImageModel = "DockerImage"

// DockerImageRef is a reference to a docker image which can run on the domain and the framework.
type DockerImageRef struct {
	Domain    DomainId
	Framework FrameworkId

	// Task is the task the image should perform. Empty means "not declared".
	Task TaskId
}

func (DockerImageRef) descriptor()    {}
func (DockerImageRef) Family() Family { return FamilyDockerImage }
func (d DockerImageRef) String() string {
	args := []string{d.Domain.expr(), d.Framework.expr()}
	if d.Task != "" {
		args = append(args, d.Task.expr())
	}
	return DockerImageModel + "<" + strings.Join(args, ",") + ">"
}

// Model returns a ModelRef which designates docker images compatible with d.
func (d DockerImageRef) Model() ModelRef {
	return ModelRef{Name: DockerImageModel, Domain: d.Domain, Framework: d.Framework}
}

// NameRef is a display-name alias of a reference.
//
// It is recognized by Parse, but it never becomes a slot by itself:
// the reference it accompanies does.
type NameRef struct {
	Model ModelRef

	// Task of the aliased docker image, if Model is a docker image.
	Task TaskId
}

func (NameRef) descriptor()    {}
func (NameRef) Family() Family { return FamilyName }
func (n NameRef) String() string {
	if n.Model.Name == DockerImageModel {
		return "Name<" + DockerImageRef{
			Domain: n.Model.Domain, Framework: n.Model.Framework, Task: n.Task,
		}.String() + ">"
	}
	return "Name<" + n.Model.String() + ">"
}

// Opaque is a type string which is not understood.
//
// Parse never returns Opaque. It stands for declared inputs whose type is unknown,
// and values for it are handled as plain text.
type Opaque struct {
	Type string
}

func (Opaque) descriptor()      {}
func (Opaque) Family() Family   { return FamilyOpaque }
func (o Opaque) String() string { return o.Type }

// Model returns the model a reference descriptor points.
//
// For non-reference descriptors, it returns false.
func Model(d Descriptor) (ModelRef, bool) {
	switch d := d.(type) {
	case PrimaryKeyRef:
		return d.Model, true
	case JobOutputRef:
		return d.Model, true
	case DockerImageRef:
		return d.Model(), true
	case NameRef:
		return d.Model, true
	}
	return ModelRef{}, false
}

// IsReference tells d is a descriptor whose values are primary keys.
func IsReference(d Descriptor) bool {
	_, ok := Model(d)
	return ok
}

// Bind replaces placeholders in d with domain and framework.
//
// Empty domain or framework leaves corresponding placeholders as they are.
func Bind(d Descriptor, domain DomainId, framework FrameworkId) Descriptor {
	switch d := d.(type) {
	case PrimaryKeyRef:
		return PrimaryKeyRef{Model: d.Model.Bind(domain, framework)}
	case JobOutputRef:
		return JobOutputRef{Model: d.Model.Bind(domain, framework)}
	case NameRef:
		return NameRef{Model: d.Model.Bind(domain, framework), Task: d.Task}
	case DockerImageRef:
		m := d.Model().Bind(domain, framework)
		return DockerImageRef{Domain: m.Domain, Framework: m.Framework, Task: d.Task}
	}
	return d
}
