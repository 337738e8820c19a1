package typedesc

import "strings"

// DomainId identifies a domain (for example, "Image Classification").
//
// Empty DomainId means "not declared", and DomainPlaceholder means
// "declared, but bound later". Both of them match any domain.
type DomainId string

// FrameworkId identifies a framework, formatted as "NAME:VERSION" (or "NAME").
//
// Like DomainId, empty FrameworkId and FrameworkPlaceholder match any framework.
type FrameworkId string

// TaskId identifies a task which docker images perform.
type TaskId string

const (
	DomainPlaceholder    DomainId    = "Domain"
	FrameworkPlaceholder FrameworkId = "Framework"
	TaskPlaceholder      TaskId      = "Task"
)

// NewFrameworkId builds FrameworkId from name and version.
func NewFrameworkId(name, version string) FrameworkId {
	if version == "" {
		return FrameworkId(name)
	}
	return FrameworkId(name + ":" + version)
}

// Resolved tells d designates a concrete domain.
func (d DomainId) Resolved() bool {
	return d != "" && d != DomainPlaceholder
}

func (d DomainId) Match(o DomainId) bool {
	return !d.Resolved() || !o.Resolved() || d == o
}

func (d DomainId) expr() string {
	if d == "" || d == DomainPlaceholder {
		return string(DomainPlaceholder)
	}
	return string(DomainPlaceholder) + "<" + quote(string(d)) + ">"
}

// Resolved tells f designates a concrete framework.
func (f FrameworkId) Resolved() bool {
	return f != "" && f != FrameworkPlaceholder
}

func (f FrameworkId) Match(o FrameworkId) bool {
	return !f.Resolved() || !o.Resolved() || f == o
}

// Split returns name and version of the framework.
func (f FrameworkId) Split() (name string, version string) {
	s := string(f)
	if i := strings.LastIndex(s, ":"); 0 <= i {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func (f FrameworkId) expr() string {
	if f == "" || f == FrameworkPlaceholder {
		return string(FrameworkPlaceholder)
	}
	name, version := f.Split()
	args := quote(name)
	if version != "" {
		args += "," + quote(version)
	}
	return string(FrameworkPlaceholder) + "<" + args + ">"
}

func (t TaskId) Resolved() bool {
	return t != "" && t != TaskPlaceholder
}

func (t TaskId) Match(o TaskId) bool {
	return !t.Resolved() || !o.Resolved() || t == o
}

func (t TaskId) expr() string {
	if t == "" || t == TaskPlaceholder {
		return string(TaskPlaceholder)
	}
	return string(TaskPlaceholder) + "<" + quote(string(t)) + ">"
}

// ModelRef names a model type of the remote system, qualified with domain and framework.
type ModelRef struct {
	Name      string
	Domain    DomainId
	Framework FrameworkId
}

// Equal tells two ModelRefs designate the same model.
//
// Unresolved domains and frameworks match anything.
func (m ModelRef) Equal(o ModelRef) bool {
	return m.Name == o.Name &&
		m.Domain.Match(o.Domain) &&
		m.Framework.Match(o.Framework)
}

// Bind replaces placeholders with domain and framework.
//
// Generic arguments which are not declared stay undeclared.
func (m ModelRef) Bind(domain DomainId, framework FrameworkId) ModelRef {
	if m.Domain == DomainPlaceholder && domain != "" {
		m.Domain = domain
	}
	if m.Framework == FrameworkPlaceholder && framework != "" {
		m.Framework = framework
	}
	return m
}

func (m ModelRef) String() string {
	if m.Domain == "" && m.Framework == "" {
		return m.Name
	}
	args := m.Domain.expr()
	if m.Framework != "" {
		args += "," + m.Framework.expr()
	}
	return m.Name + "<" + args + ">"
}

func quote(s string) string {
	if strings.Contains(s, "'") {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}
