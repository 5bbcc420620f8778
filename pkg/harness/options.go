package harness

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
	benchxerrors "kubegems.io/benchx/pkg/errors"
	"sigs.k8s.io/yaml"
)

const (
	DefaultBackend = "tensorflow"
	DefaultPython  = "python"
	DefaultScript  = "benchmarks/run_benchmark.py"
	DefaultModule  = "keras"
)

// DefaultModels is the fixed, ordered benchmark list.
var DefaultModels = []string{
	"resnet50",
	"vgg16",
	"inception_v3",
	"mobilenet",
	"lstm",
}

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

type Options struct {
	ConfigPath    string   `json:"configPath,omitempty"`
	Backend       string   `json:"backend,omitempty"`
	StrictBackend bool     `json:"strictBackend,omitempty"`
	Python        string   `json:"python,omitempty"`
	Script        string   `json:"script,omitempty"`
	Workdir       string   `json:"workdir,omitempty"`
	Modules       []string `json:"modules,omitempty"`
	Models        []string `json:"models,omitempty"`
	Mode          string   `json:"mode,omitempty"`
	Inference     string   `json:"inference,omitempty"`
	OutputDir     string   `json:"outputDir,omitempty"`
}

func DefaultOptions() *Options {
	return &Options{
		ConfigPath: DefaultConfigPath(),
		Backend:    DefaultBackend,
		Python:     DefaultPython,
		Script:     DefaultScript,
		Modules:    []string{DefaultModule},
		Models:     append([]string{}, DefaultModels...),
	}
}

// DefaultConfigPath is ~/.keras/keras.json, or a relative .keras/keras.json
// when the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".keras", "keras.json")
	}
	return filepath.Join(home, ".keras", "keras.json")
}

func (o *Options) Validate() error {
	switch {
	case o.Mode == "":
		return benchxerrors.NewParameterInvalidError("mode is required")
	case o.Inference == "":
		return benchxerrors.NewParameterInvalidError("inference is required")
	case o.ConfigPath == "":
		return benchxerrors.NewParameterInvalidError("config path is required")
	case o.Python == "":
		return benchxerrors.NewParameterInvalidError("python is required")
	case o.Script == "":
		return benchxerrors.NewParameterInvalidError("benchmark script is required")
	case len(NormalizeModels(o.Models)) == 0:
		return benchxerrors.NewParameterInvalidError("no models to run")
	}
	for _, module := range o.Modules {
		if !moduleNamePattern.MatchString(module) {
			return benchxerrors.NewParameterInvalidError("invalid module name: " + module)
		}
	}
	return nil
}

// NormalizeModels trims names, drops empty ones and duplicates, keeping the
// first-seen order.
func NormalizeModels(models []string) []string {
	ret := make([]string, 0, len(models))
	for _, model := range models {
		model = strings.TrimSpace(model)
		if model == "" || slices.Contains(ret, model) {
			continue
		}
		ret = append(ret, model)
	}
	return ret
}

// LoadProfile reads a YAML profile. Keys follow the json tags of Options.
func LoadProfile(path string) (*Options, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, benchxerrors.NewConfigInvalidError("read profile: " + err.Error())
	}
	profile := &Options{}
	if err := yaml.UnmarshalStrict(content, profile); err != nil {
		return nil, benchxerrors.NewConfigInvalidError("parse profile " + path + ": " + err.Error())
	}
	return profile, nil
}

// MergeProfile copies non-empty profile values into o, except for fields
// whose flag was set explicitly.
func (o *Options) MergeProfile(profile *Options, changed func(flag string) bool) {
	if profile == nil {
		return
	}
	str := func(flag string, dst *string, val string) {
		if val != "" && !changed(flag) {
			*dst = val
		}
	}
	list := func(flag string, dst *[]string, val []string) {
		if len(val) > 0 && !changed(flag) {
			*dst = append([]string{}, val...)
		}
	}
	str("config", &o.ConfigPath, profile.ConfigPath)
	str("backend", &o.Backend, profile.Backend)
	str("python", &o.Python, profile.Python)
	str("script", &o.Script, profile.Script)
	str("workdir", &o.Workdir, profile.Workdir)
	str("mode", &o.Mode, profile.Mode)
	str("inference", &o.Inference, profile.Inference)
	str("output-dir", &o.OutputDir, profile.OutputDir)
	list("module", &o.Modules, profile.Modules)
	list("model", &o.Models, profile.Models)
	if profile.StrictBackend && !changed("strict-backend") {
		o.StrictBackend = true
	}
}
