package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pubsubgen/internal/ir"
)

var (
	samplePubs = []ir.Publication{
		{"city": ir.String("Iași"), "age": ir.Int(42), "date": ir.String("2024-01-01 00:00:00.000000")},
		{"city": ir.String("Cluj"), "age": ir.Int(7)},
	}
	sampleSubs = []ir.Subscription{
		{
			{Field: "age", Operator: ">=", Value: ir.Int(30)},
			{Field: "city", Operator: "=", Value: ir.String("Iași")},
		},
		{
			{Field: "date", Operator: "<", Value: ir.String("2024-01-01 00:00:00.000000")},
		},
	}
)

func TestWriter_Lines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WritePublication(samplePubs[1]))
	require.NoError(t, w.WriteSubscription(sampleSubs[1]))
	assert.Empty(t, buf.String(), "output is buffered until Flush")
	require.NoError(t, w.Flush())

	assert.Equal(t,
		`{"age":7,"city":"Cluj"}`+"\n"+
			`[["date","<","2024-01-01 00:00:00.000000"]]`+"\n",
		buf.String())
	assert.Equal(t, 2, w.Lines())
}

func TestWriter_EmptySubscription(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteSubscription(ir.Subscription{}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriter_RejectsUnencodableValue(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})

	err := w.WritePublication(ir.Publication{"age": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	assert.Equal(t, 0, w.Lines())
}

func TestWriteFiles_Golden(t *testing.T) {
	dir := t.TempDir()
	pubPath := filepath.Join(dir, "out", PublicationsFile)
	subPath := filepath.Join(dir, "out", SubscriptionsFile)

	require.NoError(t, WritePublications(pubPath, samplePubs))
	require.NoError(t, WriteSubscriptions(subPath, sampleSubs))

	pubs, err := os.ReadFile(pubPath)
	require.NoError(t, err)
	subs, err := os.ReadFile(subPath)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "publications", pubs)
	g.Assert(t, "subscriptions", subs)
}

func TestWritePublications_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), PublicationsFile)
	require.NoError(t, os.WriteFile(path, []byte("stale\nstale\nstale\n"), 0o644))

	require.NoError(t, WritePublications(path, samplePubs[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	assert.NotContains(t, string(data), "stale")
}
