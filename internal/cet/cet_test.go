package cet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/ripe-tester/internal/exec"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"N", None},
		{"none", None},
		{"E", Emulated},
		{"emulated", Emulated},
		{"H", Hardware},
		{"hardware", Hardware},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMode("X")
	assert.Error(t, err)
}

func TestWrapper_Wrap(t *testing.T) {
	newCmd := func() *exec.Command {
		return &exec.Command{Path: "/build/gcc_attack_gen", Args: []string{"-t", "direct"}}
	}

	t.Run("none leaves the command alone", func(t *testing.T) {
		c := newCmd()
		NewWrapper(None, "").Wrap(c)
		assert.Equal(t, "/build/gcc_attack_gen", c.Path)
		assert.Equal(t, []string{"-t", "direct"}, c.Args)
		assert.Empty(t, c.Env)
	})

	t.Run("hardware adds the glibc tunable", func(t *testing.T) {
		c := newCmd()
		NewWrapper(Hardware, "").Wrap(c)
		assert.Equal(t, "/build/gcc_attack_gen", c.Path)
		assert.Equal(t, []string{ShadowStackTunable}, c.Env)
	})

	t.Run("emulated runs under sde", func(t *testing.T) {
		c := newCmd()
		w := NewWrapper(Emulated, "")
		w.Wrap(c)
		assert.Equal(t, DefaultSDEPath, c.Path)
		assert.Equal(t, []string{"-cet", "--", "/build/gcc_attack_gen", "-t", "direct"}, c.Args)
		assert.Equal(t, "sde64 -cet -- ", w.Prefix())
	})

	t.Run("custom sde path", func(t *testing.T) {
		c := newCmd()
		NewWrapper(Emulated, "/opt/sde/sde64").Wrap(c)
		assert.Equal(t, "/opt/sde/sde64", c.Path)
	})
}
