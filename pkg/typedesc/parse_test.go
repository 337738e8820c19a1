package typedesc_test

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/opst/jobtemplate/pkg/typedesc"
)

func TestParse(t *testing.T) {
	t.Run("when it is recognized", func(t *testing.T) {
		theory := func(when string, then typedesc.Descriptor) func(*testing.T) {
			return func(t *testing.T) {
				actual, err := typedesc.Parse(when)
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				if actual != then {
					t.Errorf(
						"unmatch: Parse(%q)\n===actual===\n%#v\n===expected===\n%#v",
						when, actual, then,
					)
				}

				// canonical form means the same.
				reparsed, err := typedesc.Parse(actual.String())
				if err != nil {
					t.Fatalf("canonical form %q is not parsed: %+v", actual.String(), err)
				}
				if reparsed != actual {
					t.Errorf(
						"canonical form %q is parsed as other:\n===actual===\n%#v\n===expected===\n%#v",
						actual.String(), reparsed, actual,
					)
				}
			}
		}

		t.Run("bool", theory("bool", typedesc.Primitive{Kind: typedesc.Bool}))
		t.Run("int", theory("int", typedesc.Primitive{Kind: typedesc.Int}))
		t.Run("float", theory("float", typedesc.Primitive{Kind: typedesc.Float}))
		t.Run("str", theory("str", typedesc.Primitive{Kind: typedesc.Str}))
		t.Run("primitive with spaces", theory(" int\t", typedesc.Primitive{Kind: typedesc.Int}))

		t.Run("open array", theory("Array<float>", typedesc.Array{Element: typedesc.Float}))
		t.Run("bounded array", theory(
			"Array<int>[0:5]",
			typedesc.Array{Element: typedesc.Int, Bound: typedesc.Range{Min: 0, Max: 5, Limited: true}},
		))
		t.Run("bounded array with spaces", theory(
			"Array< str > [ 1 : 3 ]",
			typedesc.Array{Element: typedesc.Str, Bound: typedesc.Range{Min: 1, Max: 3, Limited: true}},
		))

		t.Run("PK of bare model", theory(
			"PK<Dataset>",
			typedesc.PrimaryKeyRef{Model: typedesc.ModelRef{Name: "Dataset"}},
		))
		t.Run("PK with domain placeholder", theory(
			"PK<Dataset<Domain>>",
			typedesc.PrimaryKeyRef{Model: typedesc.ModelRef{Name: "Dataset", Domain: typedesc.DomainPlaceholder}},
		))
		t.Run("PK with quoted domain", theory(
			"PK<Dataset<'Image Classification'>>",
			typedesc.PrimaryKeyRef{Model: typedesc.ModelRef{Name: "Dataset", Domain: "Image Classification"}},
		))
		t.Run("PK with wrapped domain", theory(
			`PK<Dataset<Domain<"ic">>>`,
			typedesc.PrimaryKeyRef{Model: typedesc.ModelRef{Name: "Dataset", Domain: "ic"}},
		))
		t.Run("JobOutput with placeholders", theory(
			"JobOutput<Model<Domain,Framework>>",
			typedesc.JobOutputRef{Model: typedesc.ModelRef{
				Name: "Model", Domain: typedesc.DomainPlaceholder, Framework: typedesc.FrameworkPlaceholder,
			}},
		))
		t.Run("JobOutput with bare domain and wrapped framework", theory(
			"JobOutput<Model<ic, Framework<'TensorFlow','2.15'>>>",
			typedesc.JobOutputRef{Model: typedesc.ModelRef{
				Name: "Model", Domain: "ic", Framework: "TensorFlow:2.15",
			}},
		))

		t.Run("DockerImage without task", theory(
			"DockerImage<Domain,Framework>",
			typedesc.DockerImageRef{Domain: typedesc.DomainPlaceholder, Framework: typedesc.FrameworkPlaceholder},
		))
		t.Run("DockerImage with task placeholder", theory(
			"DockerImage<Domain,Framework,Task>",
			typedesc.DockerImageRef{
				Domain: typedesc.DomainPlaceholder, Framework: typedesc.FrameworkPlaceholder,
				Task: typedesc.TaskPlaceholder,
			},
		))
		t.Run("PK of DockerImage is DockerImage", theory(
			"PK<DockerImage<'ic','tf',Task<'train'>>>",
			typedesc.DockerImageRef{Domain: "ic", Framework: "tf", Task: "train"},
		))

		t.Run("Name of model", theory(
			"Name<Dataset<Domain>>",
			typedesc.NameRef{Model: typedesc.ModelRef{Name: "Dataset", Domain: typedesc.DomainPlaceholder}},
		))
		t.Run("Name of DockerImage", theory(
			"Name<DockerImage<Domain,Framework,Task>>",
			typedesc.NameRef{
				Model: typedesc.ModelRef{
					Name:      typedesc.DockerImageModel,
					Domain:    typedesc.DomainPlaceholder,
					Framework: typedesc.FrameworkPlaceholder,
				},
				Task: typedesc.TaskPlaceholder,
			},
		))
	})

	t.Run("when it is not recognized", func(t *testing.T) {
		theory := func(when string, family typedesc.Family) func(*testing.T) {
			return func(t *testing.T) {
				actual, err := typedesc.Parse(when)
				if err == nil {
					t.Fatalf("unexpectedly parsed: Parse(%q) = %#v", when, actual)
				}
				if actual != nil {
					t.Errorf("descriptor is returned with error: %#v", actual)
				}
				if !errors.Is(err, typedesc.ErrUnrecognized) {
					t.Errorf("error does not wrap ErrUnrecognized: %+v", err)
				}
				var perr *typedesc.ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("error is not ParseError: %+v", err)
				}
				if perr.Input != when {
					t.Errorf("input: actual = %q, expected = %q", perr.Input, when)
				}
				if perr.Family != family {
					t.Errorf("family: actual = %s, expected = %s", perr.Family, family)
				}
			}
		}

		t.Run("empty", theory("", typedesc.FamilyUnknown))
		t.Run("unknown word", theory("bogus", typedesc.FamilyUnknown))
		t.Run("case sensitive", theory("Int", typedesc.FamilyUnknown))
		t.Run("unknown generic", theory("Matrix<float>", typedesc.FamilyUnknown))
		t.Run("quoted keyword", theory("'int'", typedesc.FamilyUnknown))
		t.Run("trailing garbage", theory("int int", typedesc.FamilyPrimitive))
		t.Run("bounded primitive", theory("int[0:5]", typedesc.FamilyPrimitive))
		t.Run("array of model", theory("Array<Dataset>", typedesc.FamilyArray))
		t.Run("array of array", theory("Array<Array<int>>", typedesc.FamilyArray))
		t.Run("array without element", theory("Array", typedesc.FamilyArray))
		t.Run("reversed bound", theory("Array<int>[5:1]", typedesc.FamilyArray))
		t.Run("negative bound", theory("Array<int>[-1:1]", typedesc.FamilyArray))
		t.Run("broken bound", theory("Array<int>[0:", typedesc.FamilyArray))
		t.Run("PK of primitive", theory("PK<int>", typedesc.FamilyPrimaryKey))
		t.Run("PK unclosed", theory("PK<Dataset", typedesc.FamilyPrimaryKey))
		t.Run("PK with 2 arguments", theory("PK<Dataset,Model>", typedesc.FamilyPrimaryKey))
		t.Run("PK model with 3 qualifiers", theory("PK<Dataset<'a','b','c'>>", typedesc.FamilyPrimaryKey))
		t.Run("PK model of bad name", theory("PK<'Data set'>", typedesc.FamilyPrimaryKey))
		t.Run("JobOutput empty", theory("JobOutput<>", typedesc.FamilyJobOutput))
		t.Run("DockerImage with 1 argument", theory("DockerImage<Domain>", typedesc.FamilyDockerImage))
		t.Run("DockerImage with 4 arguments", theory("DockerImage<Domain,Framework,Task,Task>", typedesc.FamilyDockerImage))
		t.Run("DockerImage with bad task", theory("DockerImage<Domain,Framework,Domain<'x'>>", typedesc.FamilyDockerImage))
		t.Run("PK of broken DockerImage", theory("PK<DockerImage<Domain>>", typedesc.FamilyDockerImage))
		t.Run("Name of broken DockerImage", theory("Name<DockerImage>", typedesc.FamilyDockerImage))
		t.Run("Name of primitive", theory("Name<str>", typedesc.FamilyName))
		t.Run("too deep", theory(
			strings.Repeat("PK<", 100)+"Dataset"+strings.Repeat(">", 100),
			typedesc.FamilyPrimaryKey,
		))
		t.Run("unterminated quote", theory("PK<Dataset<'ic>>", typedesc.FamilyPrimaryKey))
	})
}

func TestParse_Totality(t *testing.T) {
	seeds := []string{
		"Array<int>[0:5]",
		"PK<Dataset<Domain<'Image Classification'>,Framework<'tf','2.15'>>>",
		"JobOutput<Model<Domain,Framework>>",
		`Name<DockerImage<"ic",Framework,Task<'train'>>>`,
		"PK<DockerImage<Domain,Framework,Task>>",
	}

	check := func(t *testing.T, s string) {
		t.Helper()
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Parse(%q) panics: %v", s, r)
			}
		}()
		d1, err1 := typedesc.Parse(s)
		if (d1 == nil) == (err1 == nil) {
			t.Errorf("Parse(%q) = (%#v, %v): exactly one should be nil", s, d1, err1)
		}
		d2, err2 := typedesc.Parse(s)
		if d1 != d2 || (err1 == nil) != (err2 == nil) {
			t.Errorf("Parse(%q) is not deterministic", s)
		}
	}

	t.Run("every prefix and suffix of valid types", func(t *testing.T) {
		for _, s := range seeds {
			for i := range len(s) + 1 {
				check(t, s[:i])
				check(t, s[i:])
			}
		}
	})

	t.Run("random bytes", func(t *testing.T) {
		alphabet := []byte("<>,[]:'\" -0123456789AaDFINPTbfiklnorstx\x00\xff")
		rnd := rand.New(rand.NewSource(42))
		for range 2000 {
			b := make([]byte, rnd.Intn(32))
			for i := range b {
				b[i] = alphabet[rnd.Intn(len(alphabet))]
			}
			check(t, string(b))
		}
	})
}

func TestMustParse(t *testing.T) {
	t.Run("it returns descriptor", func(t *testing.T) {
		if d := typedesc.MustParse("int"); d != (typedesc.Primitive{Kind: typedesc.Int}) {
			t.Errorf("MustParse(int) = %#v", d)
		}
	})
	t.Run("it panics for unknown types", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("it does not panic")
			}
		}()
		typedesc.MustParse("bogus")
	})
}
