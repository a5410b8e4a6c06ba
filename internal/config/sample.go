package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# glancelog configuration file
# Locations searched, highest priority first:
#   ./.glancelog.yaml
#   ~/.config/glancelog/config.yaml
#   /etc/glancelog/config.yaml
# Every key can be overridden with GLANCELOG_<SECTION>_<KEY>,
# for example GLANCELOG_GRAPH_UNIT=hour.

version: "1.0"

# Stopword filters. Each mode reads its own file (hash.stopwords,
# words.stopwords, daemon.stopwords, host.stopwords). A directory set
# here is searched before $GLANCELOG_FILTERDIR and ~/.glancelog/filters.
filters:
  directory: ""
  disabled: false

# Pattern modes (hash, daemon, host, words, template)
hash:
  lowcount: 3          # keep this many sample lines per pattern
  sampling: threshold  # threshold, none or all

# Time bucket graphs
graph:
  unit: minute         # second, minute, hour, day, month, year
  tick: "#"
  wide: false          # follow each tick with a space
  width: 60            # length of the longest bar

# Template mining for the template mode
template:
  depth: 4
  similarity: 0.4
  max_children: 100
  max_clusters: 0      # 0 is unlimited

input:
  format: auto         # or one of the names listed by 'glancelog formats'
  max_lines: 0         # 0 reads the whole input

output:
  default_format: text # text, json, markdown, csv, msgpack
  color_mode: auto     # auto, always, never
  verbose: false
  timestamp_format: "2006-01-02T15:04:05"

watch:
  mode: hash           # hash or graph
  debounce: 500ms
`
}

// MinimalSampleConfig returns a short configuration with the most common keys
func MinimalSampleConfig() string {
	return `version: "1.0"

hash:
  lowcount: 3

graph:
  unit: minute

output:
  default_format: text
`
}

// Marshal renders a configuration as YAML
func Marshal(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}
