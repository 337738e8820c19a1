package typedesc_test

import (
	"testing"

	"github.com/opst/jobtemplate/pkg/typedesc"
)

func TestModelRef_Equal(t *testing.T) {
	theory := func(a, b typedesc.ModelRef, expected bool) func(*testing.T) {
		return func(t *testing.T) {
			if actual := a.Equal(b); actual != expected {
				t.Errorf("%s == %s: actual = %v, expected = %v", a, b, actual, expected)
			}
			if actual := b.Equal(a); actual != expected {
				t.Errorf("%s == %s: actual = %v, expected = %v", b, a, actual, expected)
			}
		}
	}

	t.Run("same", theory(
		typedesc.ModelRef{Name: "Dataset", Domain: "ic", Framework: "tf:2"},
		typedesc.ModelRef{Name: "Dataset", Domain: "ic", Framework: "tf:2"},
		true,
	))
	t.Run("different name", theory(
		typedesc.ModelRef{Name: "Dataset", Domain: "ic"},
		typedesc.ModelRef{Name: "Model", Domain: "ic"},
		false,
	))
	t.Run("different domain", theory(
		typedesc.ModelRef{Name: "Dataset", Domain: "ic"},
		typedesc.ModelRef{Name: "Dataset", Domain: "qa"},
		false,
	))
	t.Run("different framework", theory(
		typedesc.ModelRef{Name: "Dataset", Domain: "ic", Framework: "tf:2"},
		typedesc.ModelRef{Name: "Dataset", Domain: "ic", Framework: "torch:2"},
		false,
	))
	t.Run("placeholder domain matches anything", theory(
		typedesc.ModelRef{Name: "Dataset", Domain: typedesc.DomainPlaceholder},
		typedesc.ModelRef{Name: "Dataset", Domain: "qa"},
		true,
	))
	t.Run("undeclared domain and framework match anything", theory(
		typedesc.ModelRef{Name: "Dataset"},
		typedesc.ModelRef{Name: "Dataset", Domain: "qa", Framework: "tf:2"},
		true,
	))
	t.Run("placeholder framework matches anything", theory(
		typedesc.ModelRef{Name: "Model", Domain: "ic", Framework: typedesc.FrameworkPlaceholder},
		typedesc.ModelRef{Name: "Model", Domain: "ic", Framework: "tf:2"},
		true,
	))
}

func TestBind(t *testing.T) {
	theory := func(when string, domain typedesc.DomainId, framework typedesc.FrameworkId, then typedesc.Descriptor) func(*testing.T) {
		return func(t *testing.T) {
			actual := typedesc.Bind(typedesc.MustParse(when), domain, framework)
			if actual != then {
				t.Errorf(
					"unmatch: Bind(%s)\n===actual===\n%#v\n===expected===\n%#v",
					when, actual, then,
				)
			}
		}
	}

	t.Run("PK placeholders are bound", theory(
		"PK<Dataset<Domain,Framework>>", "ic", "tf:2",
		typedesc.PrimaryKeyRef{Model: typedesc.ModelRef{Name: "Dataset", Domain: "ic", Framework: "tf:2"}},
	))
	t.Run("undeclared qualifiers are not bound", theory(
		"JobOutput<Model<Domain>>", "ic", "tf:2",
		typedesc.JobOutputRef{Model: typedesc.ModelRef{Name: "Model", Domain: "ic"}},
	))
	t.Run("concrete qualifiers are kept", theory(
		"PK<Dataset<'qa'>>", "ic", "tf:2",
		typedesc.PrimaryKeyRef{Model: typedesc.ModelRef{Name: "Dataset", Domain: "qa"}},
	))
	t.Run("empty context keeps placeholders", theory(
		"DockerImage<Domain,Framework,Task>", "", "",
		typedesc.DockerImageRef{
			Domain: typedesc.DomainPlaceholder, Framework: typedesc.FrameworkPlaceholder,
			Task: typedesc.TaskPlaceholder,
		},
	))
	t.Run("docker image is bound, task is kept", theory(
		"DockerImage<Domain,Framework,Task<'train'>>", "ic", "tf:2",
		typedesc.DockerImageRef{Domain: "ic", Framework: "tf:2", Task: "train"},
	))
	t.Run("name alias is bound", theory(
		"Name<DockerImage<Domain,Framework>>", "ic", "tf:2",
		typedesc.NameRef{Model: typedesc.ModelRef{Name: typedesc.DockerImageModel, Domain: "ic", Framework: "tf:2"}},
	))
	t.Run("primitives are as they are", theory(
		"Array<int>[0:3]", "ic", "tf:2",
		typedesc.Array{Element: typedesc.Int, Bound: typedesc.Range{Max: 3, Limited: true}},
	))
}

func TestFrameworkId(t *testing.T) {
	theory := func(name, version string, expected typedesc.FrameworkId) func(*testing.T) {
		return func(t *testing.T) {
			actual := typedesc.NewFrameworkId(name, version)
			if actual != expected {
				t.Errorf("NewFrameworkId(%q, %q) = %q, expected %q", name, version, actual, expected)
			}
			n, v := actual.Split()
			if n != name || v != version {
				t.Errorf("Split() = (%q, %q), expected (%q, %q)", n, v, name, version)
			}
		}
	}

	t.Run("with version", theory("TensorFlow", "2.15", "TensorFlow:2.15"))
	t.Run("without version", theory("TensorFlow", "", "TensorFlow"))
}

func TestModel(t *testing.T) {
	theory := func(when string, then typedesc.ModelRef, ok bool) func(*testing.T) {
		return func(t *testing.T) {
			actual, actualOk := typedesc.Model(typedesc.MustParse(when))
			if actualOk != ok || actual != then {
				t.Errorf("Model(%s) = (%+v, %v), expected (%+v, %v)", when, actual, actualOk, then, ok)
			}
			if r := typedesc.IsReference(typedesc.MustParse(when)); r != ok {
				t.Errorf("IsReference(%s) = %v", when, r)
			}
		}
	}

	t.Run("PK", theory("PK<Dataset>", typedesc.ModelRef{Name: "Dataset"}, true))
	t.Run("JobOutput", theory("JobOutput<Model<'ic'>>", typedesc.ModelRef{Name: "Model", Domain: "ic"}, true))
	t.Run("DockerImage", theory(
		"DockerImage<'ic','tf'>",
		typedesc.ModelRef{Name: typedesc.DockerImageModel, Domain: "ic", Framework: "tf"},
		true,
	))
	t.Run("Name", theory("Name<Dataset>", typedesc.ModelRef{Name: "Dataset"}, true))
	t.Run("primitive", theory("int", typedesc.ModelRef{}, false))
	t.Run("array", theory("Array<str>", typedesc.ModelRef{}, false))
}
