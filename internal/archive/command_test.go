package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	cmd := Build("", Transfer{
		Label:           Label("backup-Q4-2026", 3, 4),
		Partition:       "owners",
		JobRequirements: " -n 8  -t 2-0 ",
		Source:          "/oak/lab/video/session-04",
		Destination:     Destination("lab-archive", "backup-Q4-2026", "/oak/lab/video/session-04"),
	})

	assert.Equal(t, DefaultBinary, cmd.Program)
	assert.Equal(t, []string{
		"transfer", "--label", "backup-Q4-2026-3.4", "-p", "owners",
		"-n", "8", "-t", "2-0",
		"/oak/lab/video/session-04",
		"lab-archive/backup-Q4-2026/oak/lab/video/session-04",
	}, cmd.Args)
}

func TestBuildWithoutJobRequirements(t *testing.T) {
	cmd := Build("/opt/elm/elm_archive", Transfer{Label: "f-0.0", Partition: "normal", Source: "/a", Destination: "b/f/a"})

	assert.Equal(t, "/opt/elm/elm_archive", cmd.Program)
	assert.Equal(t, []string{"transfer", "--label", "f-0.0", "-p", "normal", "/a", "b/f/a"}, cmd.Args)
	assert.Equal(t, "/opt/elm/elm_archive transfer --label f-0.0 -p normal /a b/f/a", cmd.String())
}

func TestDestination(t *testing.T) {
	assert.Equal(t, "bucket/folder/data/x", Destination("bucket", "folder", "/data/x"))
	assert.Equal(t, "bucket/folder/data/x", Destination("bucket/", "/folder/", "/data/x"))
}

func TestCommandStringQuotes(t *testing.T) {
	cmd := Command{Program: "elm_archive", Args: []string{"transfer", "/data/my scans", "it's", ""}}
	assert.Equal(t, `elm_archive transfer '/data/my scans' 'it'\''s' ''`, cmd.String())
}
