package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-spine/engine/bones"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadApplicationConfig(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"importer.toml", `
name = "test"
assets_dir = "content"
log_level = "debug"
workers = 3
parent_resolution = "two-pass"
watch = true
`},
		{"importer.yaml", `
name: test
assets_dir: content
log_level: debug
workers: 3
parent_resolution: two-pass
watch: true
`},
	}
	for _, test := range tests {
		config, err := LoadApplicationConfig(writeConfig(t, test.file, test.content))
		if err != nil {
			t.Errorf("%s: %v", test.file, err)
			continue
		}
		if config.Name != "test" || config.AssetsDir != "content" || config.LogLevel != "debug" || config.Workers != 3 || !config.Watch {
			t.Errorf("%s: config=%+v", test.file, config)
		}
		if config.parentResolution() != bones.TwoPass {
			t.Errorf("%s: parent resolution=%s", test.file, config.parentResolution())
		}
		// Fields left out keep their defaults.
		if config.MaxTextureCount != 1024 || config.SkeletonExtension != ".spine_json" || config.AtlasExtension != ".spine_atlas" {
			t.Errorf("%s: defaults lost: %+v", test.file, config)
		}
	}
}

func TestLoadApplicationConfigErrors(t *testing.T) {
	tests := map[string]string{
		"importer.ini":  "name = test",
		"broken.toml":   "name = ",
		"workers.yaml":  "workers: 0",
		"level.toml":    `log_level = "loud"`,
		"parents.yaml":  "parent_resolution: sideways",
		"ext.toml":      `atlas_extension = "spine_json"`,
		"same_ext.yaml": "atlas_extension: .spine_json",
	}
	for name, content := range tests {
		if _, err := LoadApplicationConfig(writeConfig(t, name, content)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
	if _, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file must fail")
	}
}

func TestApplicationConfigResolve(t *testing.T) {
	config := DefaultApplicationConfig()
	assets := "elsewhere"
	watch := true
	workers := 2
	parents := "two-pass"
	if err := config.Resolve(ConfigOverrides{AssetsDir: &assets, Watch: &watch, Workers: &workers, ParentResolution: &parents}); err != nil {
		t.Fatal(err)
	}
	if config.AssetsDir != "elsewhere" || !config.Watch || config.Workers != 2 || config.parentResolution() != bones.TwoPass {
		t.Errorf("config=%+v", config)
	}
	// Unset overrides leave the value alone.
	if config.LogLevel != "info" || config.Dump {
		t.Errorf("config=%+v", config)
	}

	bad := -1
	if err := config.Resolve(ConfigOverrides{Workers: &bad}); err == nil {
		t.Error("negative workers must fail validation")
	}
}
