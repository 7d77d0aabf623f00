package opener

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/randopen/internal/types"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wait     bool
		wantName string
		wantArgs []string
	}{
		{"linux", false, "xdg-open", []string{"/m/a b.mkv"}},
		{"linux", true, "gio", []string{"open", "--wait", "/m/a b.mkv"}},
		{"freebsd", false, "xdg-open", []string{"/m/a b.mkv"}},
		{"darwin", false, "open", []string{"/m/a b.mkv"}},
		{"darwin", true, "open", []string{"-W", "/m/a b.mkv"}},
		{"windows", false, "cmd", []string{"/C", "start", "", "/m/a b.mkv"}},
		{"windows", true, "cmd", []string{"/C", "start", "/WAIT", "", "/m/a b.mkv"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := Command(tt.goos, "/m/a b.mkv", tt.wait)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSystem_OpenMissingLauncher(t *testing.T) {
	// An unknown platform with no launcher on PATH falls back to xdg-open;
	// an empty PATH guarantees it cannot be found.
	t.Setenv("PATH", "")
	s := &System{goos: "plan9"}

	err := s.Open(context.Background(), "/tmp/file.txt")
	require.ErrorIs(t, err, types.ErrOpenHandler)
}

func TestFunc(t *testing.T) {
	var got string
	var o Opener = Func(func(_ context.Context, path string) error {
		got = path
		return errors.New("boom")
	})

	err := o.Open(context.Background(), "/x")
	require.EqualError(t, err, "boom")
	assert.Equal(t, "/x", got)
}
