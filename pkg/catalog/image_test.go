package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/opst/jobtemplate/pkg/catalog"
	"github.com/opst/jobtemplate/pkg/utils/try"
	"gopkg.in/yaml.v3"
)

func TestImage(t *testing.T) {
	theory := func(expr string, image catalog.Image) func(*testing.T) {
		return func(t *testing.T) {
			{
				actual := try.To(catalog.ParseImage(expr)).OrFatal(t)
				if *actual != image {
					t.Errorf("unexpected result: ParseImage(%s) --> %#v", expr, actual)
				}
			}
			{
				type Json struct {
					Image *catalog.Image `json:"image"`
				}

				actual := try.To(json.Marshal(Json{Image: &image})).OrFatal(t)
				if string(actual) != `{"image":"`+expr+`"}` {
					t.Errorf("unexpected result: json.Marshal(%#v) --> %s", image, actual)
				}

				unmarshalled := Json{}
				if err := json.Unmarshal(actual, &unmarshalled); err != nil {
					t.Fatal(err)
				}
				if !unmarshalled.Image.Equal(&image) {
					t.Errorf("unexpected result: json.Unmarshal(%s) --> %#v", actual, unmarshalled.Image)
				}
			}
			{
				type Yaml struct {
					Image *catalog.Image `yaml:"image"`
				}
				actual := string(try.To(yaml.Marshal(Yaml{Image: &image})).OrFatal(t))
				expected := `image: "` + expr + `"` + "\n"
				if actual != expected {
					t.Errorf("unexpected result: yaml.Marshal(%#v) --> %s", image, actual)
				}
			}
		}
	}

	t.Run("repository and tag", theory("repo:tag", catalog.Image{
		Repository: "repo",
		Tag:        "tag",
	}))

	t.Run("registry, repository and tag", theory("registry.invalid/repo:tag", catalog.Image{
		Repository: "registry.invalid/repo",
		Tag:        "tag",
	}))

	t.Run("registry /w port and repository and tag", theory("registry.invalid:5000/repo:tag", catalog.Image{
		Repository: "registry.invalid:5000/repo",
		Tag:        "tag",
	}))
}
