package harness

import (
	"strings"
)

// DryRun is always passed to the benchmark program.
const DryRun = "True"

// Invocation is a single run of the benchmark program for one model.
type Invocation struct {
	Python    string
	Script    string
	Workdir   string
	Mode      string
	Model     string
	Inference string
	Config    *BackendConfig
}

func (i Invocation) Args() []string {
	return []string{
		i.Script,
		"--pwd=" + i.Workdir,
		"--mode=" + i.Mode,
		"--model_name=" + i.Model,
		"--dry_run=" + DryRun,
		"--inference=" + i.Inference,
	}
}

func (i Invocation) String() string {
	return i.Python + " " + strings.Join(i.Args(), " ")
}

// logFileName keeps model names from escaping the output dir.
func logFileName(model string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(model) + ".log"
}
