package analyzer

import (
	"strings"

	"github.com/faceair/drain"

	"github.com/yildizm/glancelog/internal/common"
)

// TemplateConfig tunes the Drain template miner
type TemplateConfig struct {
	Depth       int     `yaml:"depth"`
	Similarity  float64 `yaml:"similarity"`
	MaxChildren int     `yaml:"max_children"`
	MaxClusters int     `yaml:"max_clusters"`
}

// DefaultTemplateConfig returns the Drain settings used for syslog style text
func DefaultTemplateConfig() TemplateConfig {
	return TemplateConfig{
		Depth:       4,
		Similarity:  0.4,
		MaxChildren: 100,
		MaxClusters: 0, // unlimited
	}
}

func (c TemplateConfig) withDefaults() TemplateConfig {
	d := DefaultTemplateConfig()
	if c.Depth < 3 {
		c.Depth = d.Depth
	}
	if c.Similarity <= 0 || c.Similarity > 1 {
		c.Similarity = d.Similarity
	}
	if c.MaxChildren <= 0 {
		c.MaxChildren = d.MaxChildren
	}
	if c.MaxClusters < 0 {
		c.MaxClusters = d.MaxClusters
	}
	return c
}

// TemplateMiner clusters messages into templates where variable tokens are
// replaced by a wildcard
type TemplateMiner struct {
	drain *drain.Drain
}

// NewTemplateMiner creates a miner with the given settings
func NewTemplateMiner(cfg TemplateConfig) *TemplateMiner {
	cfg = cfg.withDefaults()
	return &TemplateMiner{
		drain: drain.New(&drain.Config{
			LogClusterDepth: cfg.Depth,
			SimTh:           cfg.Similarity,
			MaxChildren:     cfg.MaxChildren,
			MaxClusters:     cfg.MaxClusters,
			ExtraDelimiters: []string{"_", "="},
			ParamString:     "<*>",
		}),
	}
}

// Train adds a message to the model and returns its cluster
func (m *TemplateMiner) Train(message string) *drain.LogCluster {
	return m.drain.Train(message)
}

// templateOf strips the "id={n} : size={m} : " prefix Drain puts on a cluster
func templateOf(cluster *drain.LogCluster) string {
	parts := strings.SplitN(cluster.String(), " : ", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return cluster.String()
}

// buildTemplates trains on every message first so each entry is counted
// under its cluster's final template rather than an early, narrower one.
// The filter runs before training to give Drain pre-masked tokens.
func buildTemplates(entries []*common.LogEntry, opts Options) *Table {
	miner := NewTemplateMiner(opts.Template)

	clusters := make([]*drain.LogCluster, len(entries))
	for i, entry := range entries {
		clusters[i] = miner.Train(opts.Filter.Apply(entry.Message))
	}

	table := newTable(opts)
	for i, entry := range entries {
		key := ""
		if clusters[i] != nil {
			key = templateOf(clusters[i])
		}
		table.add(key, entry)
	}
	table.sort()

	return table
}
