package analyzer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/glancelog/internal/common"
	"github.com/yildizm/glancelog/internal/filter"
)

var base = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func entry(offset time.Duration, host, daemon, message string) *common.LogEntry {
	ts := base.Add(offset)
	e := &common.LogEntry{
		Timestamp: ts,
		Host:      host,
		Daemon:    daemon,
		Message:   message,
		Format:    common.FormatSyslog,
	}
	e.Raw = fmt.Sprintf("%s %s %s: %s", ts.Format(time.Stamp), host, daemon, message)
	return e
}

func mustFilter(t *testing.T, content string) *filter.Filter {
	t.Helper()
	f, warnings := filter.CompileString(content)
	require.Empty(t, warnings)
	return f
}

func sshdEntries() []*common.LogEntry {
	return []*common.LogEntry{
		entry(0, "host", "sshd[1]", "Failed password for root"),
		entry(0, "host", "sshd[1]", "Failed password for root"),
		entry(0, "host", "sshd[1]", "Failed password for root"),
		entry(time.Second, "host", "sshd[2]", "Failed password for alice"),
	}
}

func TestHashCollapsesVariableTokens(t *testing.T) {
	entries := sshdEntries()
	table := Build(entries, Options{
		Mode:   ModeHash,
		Filter: mustFilter(t, "\\d+\nfor \\w+"),
	})

	require.Equal(t, 1, table.Len())
	record := table.Records[0]
	assert.Equal(t, "Failed password #", record.Key)
	assert.Equal(t, 4, record.Count)

	// the first three lines were kept while the pattern was rare, the fourth was not
	require.Len(t, record.Samples, 3)
	for i, sample := range record.Samples {
		assert.Equal(t, entries[i].Raw, sample)
	}

	// above the threshold only the key is shown
	assert.Equal(t, []string{"Failed password #"}, table.Display(record))

	assert.Equal(t, base, record.FirstSeen)
	assert.Equal(t, base.Add(time.Second), record.LastSeen)
}

func TestSampleCapFreezesAfterThreshold(t *testing.T) {
	var entries []*common.LogEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, entry(time.Duration(i)*time.Second, "h", "d", fmt.Sprintf("job %d done", i)))
	}

	for _, threshold := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("threshold %d", threshold), func(t *testing.T) {
			table := Build(entries, Options{Filter: filter.Baseline(), Threshold: threshold})
			require.Equal(t, 1, table.Len())
			record := table.Records[0]
			assert.Equal(t, 10, record.Count)
			require.Len(t, record.Samples, threshold)
			assert.Equal(t, entries[0].Raw, record.Samples[0])
			assert.Equal(t, entries[threshold-1].Raw, record.Samples[threshold-1])
		})
	}
}

func TestSamplingModes(t *testing.T) {
	entries := []*common.LogEntry{
		entry(0, "h", "d", "rare event"),
		entry(0, "h", "d", "busy 1"),
		entry(0, "h", "d", "busy 2"),
		entry(0, "h", "d", "busy 3"),
		entry(0, "h", "d", "busy 4"),
	}

	t.Run("threshold shows samples for rare keys only", func(t *testing.T) {
		table := Build(entries, Options{Filter: filter.Baseline(), Sampling: SamplingThreshold})
		busy, ok := table.Lookup("busy #")
		require.True(t, ok)
		assert.Equal(t, []string{"busy #"}, table.Display(busy))

		rare, ok := table.Lookup("rare event")
		require.True(t, ok)
		assert.Equal(t, []string{entries[0].Raw}, table.Display(rare))
	})

	t.Run("all keeps every line", func(t *testing.T) {
		table := Build(entries, Options{Filter: filter.Baseline(), Sampling: SamplingAll})
		busy, ok := table.Lookup("busy #")
		require.True(t, ok)
		assert.Len(t, busy.Samples, 4)
		assert.Len(t, table.Display(busy), 4)
	})

	t.Run("none keeps counts only", func(t *testing.T) {
		table := Build(entries, Options{Filter: filter.Baseline(), Sampling: SamplingNone})
		for _, record := range table.Records {
			assert.Empty(t, record.Samples)
			assert.Equal(t, []string{record.Key}, table.Display(record))
		}
	})
}

func TestCountsSumToEntries(t *testing.T) {
	entries := []*common.LogEntry{
		entry(0, "web1", "nginx", "GET /a 200"),
		entry(0, "web2", "nginx", "GET /b 404"),
		entry(0, "web1", "cron[10]", "job started"),
		entry(0, "", "", ""),
		entry(0, "db1", "postgres[22]", "checkpoint complete"),
	}

	for _, mode := range []Mode{ModeHash, ModeDaemon, ModeHost, ModeTemplate} {
		t.Run(string(mode), func(t *testing.T) {
			table := Build(entries, Options{Mode: mode, Filter: filter.Baseline()})
			sum := 0
			for _, record := range table.Records {
				sum += record.Count
			}
			assert.Equal(t, len(entries), sum)
			assert.Equal(t, len(entries), table.Total)
		})
	}
}

func TestEmptyKeyIsKept(t *testing.T) {
	entries := []*common.LogEntry{
		entry(0, "", "", "12345"),
		entry(0, "", "", "678"),
	}
	table := Build(entries, Options{Mode: ModeHash, Filter: mustFilter(t, `^\d+$`)})
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "#", table.Records[0].Key)

	hosts := Build(entries, Options{Mode: ModeHost})
	require.Equal(t, 1, hosts.Len())
	assert.Equal(t, "", hosts.Records[0].Key)
	assert.Equal(t, 2, hosts.Records[0].Count)
}

func TestOrderingIsCountThenFirstSeen(t *testing.T) {
	entries := []*common.LogEntry{
		entry(0, "h", "zeta", "m"),
		entry(0, "h", "alpha", "m"),
		entry(0, "h", "mid", "m"),
		entry(0, "h", "mid", "m"),
		entry(0, "h", "alpha", "m"),
		entry(0, "h", "omega", "m"),
	}

	table := Build(entries, Options{Mode: ModeDaemon})
	keys := make([]string, 0, table.Len())
	for _, record := range table.Records {
		keys = append(keys, record.Key)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta", "omega"}, keys)

	// repeated runs produce the same order
	again := Build(entries, Options{Mode: ModeDaemon})
	for i, record := range again.Records {
		assert.Equal(t, keys[i], record.Key)
	}
}

func TestDaemonAndHostModes(t *testing.T) {
	entries := []*common.LogEntry{
		entry(0, "web1", "sshd[100]", "a"),
		entry(0, "web2", "sshd[200]", "b"),
		entry(0, "web1", "cron[7]", "c"),
	}

	daemons := Build(entries, Options{Mode: ModeDaemon, Filter: mustFilter(t, `\d+`)})
	record, ok := daemons.Lookup("sshd[#]")
	require.True(t, ok)
	assert.Equal(t, 2, record.Count)

	hosts := Build(entries, Options{Mode: ModeHost})
	record, ok = hosts.Lookup("web1")
	require.True(t, ok)
	assert.Equal(t, 2, record.Count)
	assert.Equal(t, "web1", hosts.Records[0].Key)
}

func TestWordCount(t *testing.T) {
	entries := []*common.LogEntry{
		entry(0, "h", "d", "Disk /dev/sda1 full, retrying in 5s"),
		entry(0, "h", "d", "disk check: full"),
	}
	stopwords := mustFilter(t, "^\\d+\\w*$\n^(in|the)$")

	table := Build(entries, Options{Mode: ModeWords, Filter: stopwords})

	full, ok := table.Lookup("full")
	require.True(t, ok)
	assert.Equal(t, 2, full.Count)

	_, ok = table.Lookup("in")
	assert.False(t, ok, "stopwords are removed")
	_, ok = table.Lookup("5s")
	assert.False(t, ok, "bleached tokens are removed")

	_, ok = table.Lookup("sda1")
	assert.True(t, ok)

	// one entry contributes several tokens
	assert.Greater(t, table.Total, len(entries))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"user", "root", "failed", "auth", "pam_unix", "sshd-session"},
		Tokenize(`user=root failed: (auth) pam_unix; "sshd-session"`))
	assert.Empty(t, Tokenize(" ,.;: "))
}

func TestRecordsSortedByCount(t *testing.T) {
	entries := []*common.LogEntry{
		entry(0, "a", "d", "m"),
		entry(0, "b", "d", "m"),
		entry(0, "b", "d", "m"),
		entry(0, "c", "d", "m"),
	}
	table := Build(entries, Options{Mode: ModeHost})
	require.Equal(t, 3, table.Len())
	assert.Equal(t, "b", table.Records[0].Key)
	assert.Equal(t, 2, table.Records[0].Count)
	assert.Equal(t, []string{"a", "c"}, []string{table.Records[1].Key, table.Records[2].Key})
}

func TestParseModeAndSampling(t *testing.T) {
	mode, err := ParseMode("wordcount")
	require.NoError(t, err)
	assert.Equal(t, ModeWords, mode)

	_, err = ParseMode("bogus")
	assert.Error(t, err)

	sampling, err := ParseSampling("nosample")
	require.NoError(t, err)
	assert.Equal(t, SamplingNone, sampling)
	assert.Equal(t, "none", sampling.String())

	_, err = ParseSampling("sometimes")
	assert.Error(t, err)
}

func TestTemplateModeGroupsSimilarMessages(t *testing.T) {
	entries := []*common.LogEntry{
		entry(0, "h", "d", "connected to server alpha"),
		entry(0, "h", "d", "connected to server beta"),
		entry(0, "h", "d", "connected to server gamma"),
		entry(0, "h", "d", "disk usage high on volume"),
	}

	table := Build(entries, Options{Mode: ModeTemplate})
	require.Equal(t, 2, table.Len())

	top := table.Records[0]
	assert.Equal(t, 3, top.Count)
	assert.Equal(t, "connected to server <*>", top.Key)
	assert.Equal(t, "disk usage high on volume", table.Records[1].Key)
}
