package env_test

import (
	"errors"
	"testing"

	"github.com/opst/jobtemplate/cmd/jobtmpl/env"
	"github.com/opst/jobtemplate/pkg/catalog"
	"github.com/opst/jobtemplate/pkg/cmp"
	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/typedesc"
)

func TestLoadJobEnv(t *testing.T) {

	t.Run("read jobenv. it gives context and catalog", func(t *testing.T) {
		result, err := env.LoadJobEnv("./testdata/jobenv_test.yaml")
		if err != nil {
			t.Fatalf("failed to parse jobenv: %v", err)
		}

		expectedCtx := slots.Context{
			Domain:    "Image Classification",
			Framework: "TensorFlow:2.15",
			License:   "apache-2.0",
		}
		if ctx := result.Context(); ctx != expectedCtx {
			t.Errorf("unmatch context: actual = %+v, expected = %+v", ctx, expectedCtx)
		}

		cat, err := result.Catalog()
		if err != nil {
			t.Fatal(err)
		}
		if cat.Len() != 3 {
			t.Errorf("unexpected catalog size: %d", cat.Len())
		}
		img, ok := cat.Get(3)
		if !ok {
			t.Fatal("pk 3 is not found")
		}
		expected := catalog.Entry{
			PK: 3, Model: "DockerImage", Name: "trainer",
			Domain: "Image Classification", Framework: "TensorFlow:2.15",
			Image: &catalog.Image{Repository: "example.com/trainer", Tag: "1.0"},
			Tasks: []typedesc.TaskId{"train"},
		}
		if !img.Equal(expected) {
			t.Errorf("unmatch entry:\n===actual===\n%+v\n===expected===\n%+v", img, expected)
		}
	})

	t.Run("when incorrect filepath given, empty JobEnv should be created", func(t *testing.T) {
		result, err := env.LoadJobEnv("./testdata/missing.yaml")
		if err != nil {
			t.Errorf("unexpected error occured: %v", err)
		}
		if ctx := result.Context(); ctx != (slots.Context{}) {
			t.Errorf("unexpected context: %+v", ctx)
		}
		if !cmp.SliceEqWith(result.Objects, []catalog.Entry{}, catalog.Entry.Equal) {
			t.Errorf("unexpected catalog: %+v", result.Objects)
		}
	})

	t.Run("framework without version", func(t *testing.T) {
		je := env.JobEnv{Domain: "ic", Framework: env.Framework{Name: "torch"}}
		if fw := je.Context().Framework; fw != "torch" {
			t.Errorf("unexpected framework: %q", fw)
		}
	})

	t.Run("broken catalog is reported when it is used", func(t *testing.T) {
		result, err := env.LoadJobEnv("./testdata/broken.yaml")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := result.Catalog(); !errors.Is(err, catalog.ErrBadEntry) {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}
