package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCalendar(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.yaml")
	err := os.WriteFile(path, []byte(`working_days: [saturday, sunday, monday, tuesday, wednesday, thursday]
office_start_hour: 9
office_end_hour: 18
timezone: UTC
`), 0o600)
	require.NoError(t, err)
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHoursCommand(t *testing.T) {
	cal := writeCalendar(t)

	tests := []struct {
		name       string
		start, end string
		want       string
	}{
		{"same day", "2025-01-06T10:00:00", "2025-01-06T14:00:00", "4.0h"},
		{"over the day off", "2025-01-09T17:00:00", "2025-01-11T10:00:00", "2.0h"},
		{"clipped to opening", "2025-01-06T08:00:00Z", "2025-01-06T09:30:00Z", "0.5h"},
		{"day off only", "2025-01-10T09:00:00", "2025-01-10T17:00:00", "0.0h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, "hours", "--start", tt.start, "--end", tt.end, "--calendar", cal)
			require.NoError(t, err)
			assert.Equal(t, tt.want+" (Sun,Mon,Tue,Wed,Thu,Sat 09:00-18:00 (UTC))\n", out)
		})
	}
}

func TestHoursCommandErrors(t *testing.T) {
	cal := writeCalendar(t)

	_, err := runCmd(t, "hours", "--start", "soon", "--end", "2025-01-06T14:00:00", "--calendar", cal)
	assert.ErrorContains(t, err, "invalid --start")

	_, err = runCmd(t, "hours", "--start", "2025-01-06T10:00:00", "--end", "2025-01-06T14:00:00", "--calendar", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = runCmd(t, "hours", "--start", "2025-01-06T10:00:00")
	assert.Error(t, err)
}

func TestCreateUserValidatesFlags(t *testing.T) {
	t.Setenv("USERNAME", "")
	t.Setenv("PASSWORD", "")

	_, err := runCmd(t, "create-user")
	assert.ErrorContains(t, err, "must be set")

	_, err = runCmd(t, "create-user", "--username", "dev", "--password", "secret", "--role", "owner")
	assert.ErrorContains(t, err, "--role")

	_, err = runCmd(t, "create-user", "--username", "dev", "--password", "secret", "--salary", "-1")
	assert.ErrorContains(t, err, "--salary")

	t.Setenv("POSTGRES_USER", "")
	_, err = runCmd(t, "create-user", "--username", "dev", "--password", "secret")
	assert.ErrorContains(t, err, "POSTGRES_USER")
}
