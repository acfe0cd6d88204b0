package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianheil/macwatchdog-cli/internal/probe"
	"github.com/ianheil/macwatchdog-cli/internal/store"
)

func TestSelectProbes_EmptySpecReturnsCatalog(t *testing.T) {
	probes, err := selectProbes("")
	require.NoError(t, err)
	assert.Len(t, probes, len(probe.Catalog()))
}

func TestSelectProbes_ByNumber(t *testing.T) {
	probes, err := selectProbes("1,3")
	require.NoError(t, err)
	require.Len(t, probes, 2)
	assert.Equal(t, probe.Catalog()[0].Label, probes[0].Label)
	assert.Equal(t, probe.Catalog()[2].Label, probes[1].Label)
}

func TestSelectProbes_ByLabelSubstring(t *testing.T) {
	probes, err := selectProbes("firewall")
	require.NoError(t, err)
	require.Len(t, probes, 1)
	assert.Equal(t, "Firewall & Stealth Mode", probes[0].Label)
}

func TestSelectProbes_MixedSpec(t *testing.T) {
	probes, err := selectProbes(" 2 , gatekeeper ")
	require.NoError(t, err)
	require.Len(t, probes, 2)
	assert.Equal(t, "Gatekeeper", probes[1].Label)
}

func TestSelectProbes_OutOfRange(t *testing.T) {
	_, err := selectProbes("0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = selectProbes("99")
	require.Error(t, err)
}

func TestSelectProbes_NoMatch(t *testing.T) {
	_, err := selectProbes("windows-defender")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no check matches")
}

func TestFormatFromExtension(t *testing.T) {
	assert.Equal(t, "json", formatFromExtension("report.json"))
	assert.Equal(t, "json", formatFromExtension("REPORT.JSON"))
	assert.Equal(t, "jsonl", formatFromExtension("audit.jsonl"))
	assert.Equal(t, "jsonl", formatFromExtension("audit.ndjson"))
	assert.Equal(t, "yaml", formatFromExtension("out.yaml"))
	assert.Equal(t, "yaml", formatFromExtension("out.yml"))
	assert.Equal(t, "text", formatFromExtension("notes.txt"))
	assert.Equal(t, "text", formatFromExtension("no-extension"))
}

func TestResolveRecord(t *testing.T) {
	records := []store.Record{
		{ID: "/q/snapshots/snapshot_backup_20250314_092653.json", Name: "snapshot_backup_20250314_092653.json"},
		{ID: "/q/snapshots/snapshot_backup_20250313_110000.json", Name: "snapshot_backup_20250313_110000.json"},
	}

	id, err := resolveRecord(records, "1")
	require.NoError(t, err)
	assert.Equal(t, records[0].ID, id)

	id, err = resolveRecord(records, "snapshot_backup_20250313_110000.json")
	require.NoError(t, err)
	assert.Equal(t, records[1].ID, id)

	id, err = resolveRecord(records, records[1].ID)
	require.NoError(t, err)
	assert.Equal(t, records[1].ID, id)

	_, err = resolveRecord(records, "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no record matches")
}
