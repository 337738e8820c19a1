package typedesc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnrecognized is the root of all errors returned by Parse.
var ErrUnrecognized = errors.New("unrecognized type")

// ParseError is returned when a type string cannot be parsed.
type ParseError struct {
	// Input is the type string as given.
	Input string

	// Family is the family of the type string guessed from its outermost names.
	//
	// Parse failures in a family are still informative for callers:
	// for example, a broken "DockerImage<...>" is not the same thing as
	// a completely unknown word.
	Family Family

	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrUnrecognized, e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrUnrecognized
}

const (
	keywordPrimaryKey = "PK"
	keywordJobOutput  = "JobOutput"
	keywordName       = "Name"
	keywordArray      = "Array"
)

// maxDepth limits nesting of generic arguments.
const maxDepth = 16

// Parse parses a type string.
//
// Recognized forms are, in priority order:
//
//   - PK<MODEL> (and PK<DockerImage<...>>, which is a DockerImageRef)
//   - JobOutput<MODEL>
//   - DockerImage<DOMAIN,FRAMEWORK[,TASK]>
//   - Name<MODEL> (and Name<DockerImage<...>>)
//   - Array<PRIMITIVE>[MIN:MAX]
//   - Array<PRIMITIVE>
//   - bool, int, float, str
//
// where MODEL is IDENT[<DOMAIN[,FRAMEWORK]>].
//
// DOMAIN is one of "Domain" (placeholder), "Domain<'ID'>", "'ID'" or a bare word.
// FRAMEWORK is one of "Framework" (placeholder), "Framework<'NAME'[,'VERSION']>",
// "'ID'" or a bare word. TASK is alike ("Task", "Task<'ID'>", ...).
//
// Otherwise, it returns *ParseError, which wraps ErrUnrecognized.
//
// Parse does not panic for any input.
func Parse(typeString string) (Descriptor, error) {
	fail := func(reason string) (Descriptor, error) {
		return nil, &ParseError{Input: typeString, Family: sniff(typeString), Reason: reason}
	}

	r := &reader{src: typeString}
	t, err := r.term(0)
	if err != nil {
		return fail(err.Error())
	}
	r.skipSpace()
	if !r.eof() {
		return fail(fmt.Sprintf("unexpected %q at %d", r.src[r.pos:], r.pos))
	}

	d, err := classify(t)
	if err != nil {
		return fail(err.Error())
	}
	return d, nil
}

// MustParse is like Parse, but panics on error.
func MustParse(typeString string) Descriptor {
	d, err := Parse(typeString)
	if err != nil {
		panic(err)
	}
	return d
}

// sniff guesses the family of s from its outermost two names.
func sniff(s string) Family {
	r := &reader{src: s}
	r.skipSpace()
	outer := r.word()
	r.skipSpace()
	inner := ""
	if r.consume('<') {
		r.skipSpace()
		inner = r.word()
	}

	switch outer {
	case keywordPrimaryKey:
		if inner == DockerImageModel {
			return FamilyDockerImage
		}
		return FamilyPrimaryKey
	case keywordJobOutput:
		return FamilyJobOutput
	case DockerImageModel:
		return FamilyDockerImage
	case keywordName:
		if inner == DockerImageModel {
			return FamilyDockerImage
		}
		return FamilyName
	case keywordArray:
		return FamilyArray
	}
	if _, ok := ParsePrimitiveKind(outer); ok {
		return FamilyPrimitive
	}
	return FamilyUnknown
}

// term is a syntax tree of type strings.
type term struct {
	name    string
	quoted  bool
	generic bool
	args    []term
	bound   Range
}

func (t term) leaf() (string, bool) {
	if t.generic || t.bound.Limited || t.name == "" {
		return "", false
	}
	return t.name, true
}

func (t term) ident() bool {
	if t.quoted || t.name == "" {
		return false
	}
	for i, c := range t.name {
		switch {
		case c == '_',
			'a' <= c && c <= 'z',
			'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type reader struct {
	src string
	pos int
}

func (r *reader) eof() bool {
	return len(r.src) <= r.pos
}

func (r *reader) skipSpace() {
	for !r.eof() {
		switch r.src[r.pos] {
		case ' ', '\t', '\r', '\n':
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) consume(c byte) bool {
	if r.eof() || r.src[r.pos] != c {
		return false
	}
	r.pos++
	return true
}

func isDelimiter(c byte) bool {
	switch c {
	case '<', '>', ',', '[', ']', ':', '\'', '"', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// word reads a bare word. It may be empty.
func (r *reader) word() string {
	start := r.pos
	for !r.eof() && !isDelimiter(r.src[r.pos]) {
		r.pos++
	}
	return r.src[start:r.pos]
}

func (r *reader) term(depth int) (term, error) {
	if maxDepth < depth {
		return term{}, errors.New("too deeply nested")
	}

	r.skipSpace()
	if r.eof() {
		return term{}, errors.New("unexpected end of type")
	}

	t := term{}
	switch q := r.src[r.pos]; q {
	case '\'', '"':
		r.pos++
		end := strings.IndexByte(r.src[r.pos:], q)
		if end < 0 {
			return term{}, errors.New("unterminated quote")
		}
		t.name = r.src[r.pos : r.pos+end]
		t.quoted = true
		r.pos += end + 1
	default:
		t.name = r.word()
		if t.name == "" {
			return term{}, fmt.Errorf("unexpected %q at %d", r.src[r.pos], r.pos)
		}
	}

	r.skipSpace()
	if r.consume('<') {
		t.generic = true
		for {
			arg, err := r.term(depth + 1)
			if err != nil {
				return term{}, err
			}
			t.args = append(t.args, arg)

			r.skipSpace()
			if r.consume(',') {
				continue
			}
			if r.consume('>') {
				break
			}
			if r.eof() {
				return term{}, errors.New("unexpected end of type: '>' is missing")
			}
			return term{}, fmt.Errorf("unexpected %q at %d", r.src[r.pos], r.pos)
		}
	}

	r.skipSpace()
	if r.consume('[') {
		bound, err := r.bound()
		if err != nil {
			return term{}, err
		}
		t.bound = bound
	}

	return t, nil
}

// bound reads "MIN:MAX]" (after '[').
func (r *reader) bound() (Range, error) {
	integer := func() (int64, error) {
		r.skipSpace()
		start := r.pos
		r.consume('-')
		for !r.eof() && '0' <= r.src[r.pos] && r.src[r.pos] <= '9' {
			r.pos++
		}
		return strconv.ParseInt(r.src[start:r.pos], 10, 64)
	}

	lo, err := integer()
	if err != nil {
		return Range{}, fmt.Errorf("bad lower bound: %w", err)
	}
	r.skipSpace()
	if !r.consume(':') {
		return Range{}, errors.New("':' is missing in bound")
	}
	hi, err := integer()
	if err != nil {
		return Range{}, fmt.Errorf("bad upper bound: %w", err)
	}
	r.skipSpace()
	if !r.consume(']') {
		return Range{}, errors.New("']' is missing in bound")
	}
	if lo < 0 || hi < lo {
		return Range{}, fmt.Errorf("bad bound [%d:%d]", lo, hi)
	}
	return Range{Min: lo, Max: hi, Limited: true}, nil
}

func classify(t term) (Descriptor, error) {
	if t.quoted {
		return nil, fmt.Errorf("quoted text '%s' is not a type", t.name)
	}
	if t.bound.Limited && t.name != keywordArray {
		return nil, fmt.Errorf("%s cannot have size limit", t.name)
	}

	switch t.name {
	case keywordPrimaryKey:
		inner, err := single(t)
		if err != nil {
			return nil, err
		}
		if inner.name == DockerImageModel && !inner.quoted {
			return dockerImage(inner)
		}
		m, err := model(inner)
		if err != nil {
			return nil, err
		}
		return PrimaryKeyRef{Model: m}, nil

	case keywordJobOutput:
		inner, err := single(t)
		if err != nil {
			return nil, err
		}
		m, err := model(inner)
		if err != nil {
			return nil, err
		}
		return JobOutputRef{Model: m}, nil

	case DockerImageModel:
		return dockerImage(t)

	case keywordName:
		inner, err := single(t)
		if err != nil {
			return nil, err
		}
		if inner.name == DockerImageModel && !inner.quoted {
			d, err := dockerImage(inner)
			if err != nil {
				return nil, err
			}
			return NameRef{Model: d.Model(), Task: d.Task}, nil
		}
		m, err := model(inner)
		if err != nil {
			return nil, err
		}
		return NameRef{Model: m}, nil

	case keywordArray:
		inner, err := single(t)
		if err != nil {
			return nil, err
		}
		elem, ok := inner.leaf()
		if !ok || inner.quoted {
			return nil, errors.New("array element should be a primitive")
		}
		kind, ok := ParsePrimitiveKind(elem)
		if !ok {
			return nil, fmt.Errorf("array element should be a primitive, but %s", elem)
		}
		return Array{Element: kind, Bound: t.bound}, nil
	}

	if t.generic {
		return nil, fmt.Errorf("unknown generic type %s", t.name)
	}
	kind, ok := ParsePrimitiveKind(t.name)
	if !ok {
		return nil, fmt.Errorf("unknown type %s", t.name)
	}
	return Primitive{Kind: kind}, nil
}

func single(t term) (term, error) {
	if !t.generic || len(t.args) != 1 {
		return term{}, fmt.Errorf("%s takes exactly 1 type argument", t.name)
	}
	return t.args[0], nil
}

func reserved(name string) bool {
	switch name {
	case keywordPrimaryKey, keywordJobOutput, keywordName, keywordArray, DockerImageModel:
		return true
	}
	_, ok := ParsePrimitiveKind(name)
	return ok
}

func model(t term) (ModelRef, error) {
	if !t.ident() || reserved(t.name) {
		return ModelRef{}, fmt.Errorf("%s is not a model name", t.name)
	}
	if t.bound.Limited {
		return ModelRef{}, fmt.Errorf("model %s cannot have size limit", t.name)
	}

	m := ModelRef{Name: t.name}
	if !t.generic {
		return m, nil
	}
	if 2 < len(t.args) {
		return ModelRef{}, fmt.Errorf("model %s takes at most 2 type arguments", t.name)
	}

	d, err := domain(t.args[0])
	if err != nil {
		return ModelRef{}, err
	}
	m.Domain = d

	if len(t.args) == 2 {
		f, err := framework(t.args[1])
		if err != nil {
			return ModelRef{}, err
		}
		m.Framework = f
	}
	return m, nil
}

func dockerImage(t term) (DockerImageRef, error) {
	if t.bound.Limited {
		return DockerImageRef{}, errors.New("docker image cannot have size limit")
	}
	if !t.generic || len(t.args) < 2 || 3 < len(t.args) {
		return DockerImageRef{}, fmt.Errorf("%s takes 2 or 3 type arguments", DockerImageModel)
	}

	d, err := domain(t.args[0])
	if err != nil {
		return DockerImageRef{}, err
	}
	f, err := framework(t.args[1])
	if err != nil {
		return DockerImageRef{}, err
	}
	ref := DockerImageRef{Domain: d, Framework: f}
	if len(t.args) == 3 {
		task, err := task(t.args[2])
		if err != nil {
			return DockerImageRef{}, err
		}
		ref.Task = task
	}
	return ref, nil
}

// qualifier reads a generic argument like "Domain", "Domain<'x'>", "'x'" or "x".
//
// It returns (values, placeholder?, error).
// values are contents of "Domain<...>", or the argument itself if it is not wrapped.
func qualifier(t term, keyword string, maxValues int) ([]string, bool, error) {
	if v, ok := t.leaf(); ok {
		if !t.quoted && v == keyword {
			return nil, true, nil
		}
		return []string{v}, false, nil
	}

	if t.quoted || t.name != keyword || !t.generic || t.bound.Limited {
		return nil, false, fmt.Errorf("bad %s argument", strings.ToLower(keyword))
	}
	if maxValues < len(t.args) {
		return nil, false, fmt.Errorf("%s takes at most %d arguments", keyword, maxValues)
	}
	values := make([]string, 0, len(t.args))
	for _, a := range t.args {
		v, ok := a.leaf()
		if !ok {
			return nil, false, fmt.Errorf("bad %s argument", strings.ToLower(keyword))
		}
		values = append(values, v)
	}
	return values, false, nil
}

func domain(t term) (DomainId, error) {
	values, placeholder, err := qualifier(t, string(DomainPlaceholder), 1)
	if err != nil {
		return "", err
	}
	if placeholder {
		return DomainPlaceholder, nil
	}
	return DomainId(values[0]), nil
}

func framework(t term) (FrameworkId, error) {
	values, placeholder, err := qualifier(t, string(FrameworkPlaceholder), 2)
	if err != nil {
		return "", err
	}
	if placeholder {
		return FrameworkPlaceholder, nil
	}
	if len(values) == 2 {
		return NewFrameworkId(values[0], values[1]), nil
	}
	return FrameworkId(values[0]), nil
}

func task(t term) (TaskId, error) {
	values, placeholder, err := qualifier(t, string(TaskPlaceholder), 1)
	if err != nil {
		return "", err
	}
	if placeholder {
		return TaskPlaceholder, nil
	}
	return TaskId(values[0]), nil
}
