package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	r := &AuditReport{
		Summary: AuditSummary{DurationMS: 1234},
		Categories: []CategoryResults{
			{Category: "A", Findings: []Finding{
				{Status: StatusOK},
				{Status: StatusAlert},
				{Status: StatusError},
			}},
			{Category: "B", Findings: []Finding{
				{Status: StatusSuggestion},
				{Status: StatusUnknown},
				{Status: StatusOK},
			}},
		},
	}
	r.Tally()

	assert.Equal(t, 6, r.Summary.TotalProbes)
	assert.Equal(t, 2, r.Summary.OK)
	assert.Equal(t, 1, r.Summary.Alerts)
	assert.Equal(t, 1, r.Summary.Errors)
	assert.Equal(t, 1, r.Summary.Suggestions)
	assert.Equal(t, 1, r.Summary.Unknown)
	assert.Equal(t, int64(1234), r.Summary.DurationMS, "duration survives the recount")
}

func TestTally_Empty(t *testing.T) {
	r := &AuditReport{}
	r.Tally()
	assert.Zero(t, r.Summary.TotalProbes)
}

func TestErrorFinding(t *testing.T) {
	f := ErrorFinding("Gatekeeper", "System Hardening & Security", errors.New("spctl not found"))
	assert.Equal(t, StatusError, f.Status)
	assert.Equal(t, "Gatekeeper", f.Label)
	assert.Equal(t, []string{"spctl not found"}, f.Info)
}

func TestClassifyLoginItemKind(t *testing.T) {
	assert.Equal(t, LoginItemApplication, ClassifyLoginItemKind("/Applications/Dropbox.app"))
	assert.Equal(t, LoginItemApplication, ClassifyLoginItemKind("/Applications/Foo.app/Contents/MacOS/Foo"))
	assert.Equal(t, LoginItemScript, ClassifyLoginItemKind("/Users/me/bin/backup.sh"))
	assert.Equal(t, LoginItemScript, ClassifyLoginItemKind(""))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "/Library/LaunchAgents/com.x.plist (keyword)",
		LaunchAgent{Path: "/Library/LaunchAgents/com.x.plist", Signal: "keyword"}.Describe())

	assert.Equal(t, "Dropbox (/Applications/Dropbox.app) [Application]",
		LoginItem{Name: "Dropbox", Path: "/Applications/Dropbox.app", Kind: LoginItemApplication}.Describe())
	assert.Equal(t, "Ghost [Script]",
		LoginItem{Name: "Ghost", Kind: LoginItemScript}.Describe())

	assert.Equal(t, "node *:8080 (PID: 100)",
		PortListener{Process: "node", Port: "*:8080", PID: 100}.Describe())

	assert.Equal(t, "Identifier: com.x | Name: N/A | Risk: VPN [MDM] [LOCKED]",
		ConfigProfile{Identifier: "com.x", Risk: []string{"VPN"}, MDM: true}.Describe())
	assert.Equal(t, "Identifier: N/A | Name: N/A | Risk: None",
		ConfigProfile{Removable: true}.Describe())
}

func TestSnapshotDiffEmpty(t *testing.T) {
	assert.True(t, SnapshotDiff{}.Empty())
	assert.False(t, SnapshotDiff{Added: []string{"com.a"}}.Empty())
	assert.False(t, SnapshotDiff{Removed: []string{"com.b"}}.Empty())
}
