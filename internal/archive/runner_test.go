package archive

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerStreamsAndCaptures(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := NewRunner(WithOutput(&stdout, &stderr))

	res, err := r.Run(context.Background(), Command{Program: "sh", Args: []string{"-c", "echo queued; echo warn >&2"}})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "queued\n", stdout.String())
	assert.Equal(t, "warn\n", stderr.String())
	assert.Contains(t, res.Tail, "queued")
	assert.Contains(t, res.Tail, "warn")
}

func TestRunnerExitCode(t *testing.T) {
	r := NewRunner(WithOutput(nil, nil))

	res, err := r.Run(context.Background(), Command{Program: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, err.Error(), "status 3")
	assert.Equal(t, "boom\n", res.Tail)
}

func TestRunnerToolNotFound(t *testing.T) {
	r := NewRunner(WithOutput(nil, nil))

	_, err := r.Run(context.Background(), Command{Program: "elm_archive_does_not_exist_here"})
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestRunnerEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	r := NewRunner(WithOutput(&stdout, nil), WithWorkingDir(dir), WithEnvVar("ELM_TEST_VALUE", "42"))

	_, err := r.Run(context.Background(), Command{Program: "sh", Args: []string{"-c", "pwd; echo $ELM_TEST_VALUE"}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], dir)
	assert.Equal(t, "42", lines[1])
}

func TestRunnerCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	r := NewRunner(WithOutput(nil, nil))

	res, err := r.Run(ctx, Command{Program: "sleep", Args: []string{"5"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, res.Duration, 5*time.Second)
}

func TestTailBufferKeepsEnd(t *testing.T) {
	tb := &tailBuffer{max: 8}
	_, _ = tb.Write([]byte("0123456789"))
	_, _ = tb.Write([]byte("ab"))
	assert.Equal(t, "456789ab", tb.String())
}
