package filter

import "fmt"

// Loaded is a compiled filter together with where it came from
type Loaded struct {
	Filter   *Filter
	Source   *Source
	Warnings []error
}

// FileForMode maps a grouping mode name to its filter file
func FileForMode(mode string) (string, error) {
	switch mode {
	case "hash", "template":
		return HashFile, nil
	case "words", "wordcount":
		return WordsFile, nil
	case "daemon":
		return DaemonFile, nil
	case "host":
		return HostFile, nil
	default:
		return "", fmt.Errorf("no filter file for mode %s", mode)
	}
}

// Fallback is the filter used when filtering is disabled or the resolved file
// has no usable rules. Message-oriented filters degrade to the baseline, while
// daemon and host keys stay verbatim.
func Fallback(name string) *Filter {
	switch name {
	case HashFile, WordsFile:
		return Baseline()
	default:
		return &Filter{}
	}
}

// Load resolves and compiles the named filter file
func Load(name string, opts ResolveOptions) (*Loaded, error) {
	src, err := Resolve(name, opts)
	if err != nil {
		return nil, err
	}

	f, warnings := CompileString(string(src.Data))
	if f.Len() == 0 {
		f = Fallback(name)
	}

	return &Loaded{Filter: f, Source: src, Warnings: warnings}, nil
}
