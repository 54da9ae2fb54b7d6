package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/normanking/cortexface/internal/face"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\nfeed:\n  poll:\n    enabled: false\n"), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, version, cmd.Version)
	assert.True(t, cmd.SilenceUsage)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "cortexface version dev")
}

func TestChannelsCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"channels", "--config", writeTestConfig(t)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "source: procedural (53 morph targets)")
	assert.Contains(t, out.String(), "mouthSmileLeft, mouthSmileRight")
	assert.NotContains(t, out.String(), "missing on avatar")
}

func TestDemoCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"demo", "--config", writeTestConfig(t), "--every", "500ms"})

	require.NoError(t, cmd.Execute())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Greater(t, len(lines), 10)
	assert.Contains(t, lines[0], "lipCornerPull")
	assert.Contains(t, out.String(), "happy")
	assert.Contains(t, out.String(), "neutral")
}

func TestPlayDemoSettlesOnTargets(t *testing.T) {
	cfg := face.DefaultConfig()
	cfg.Idle.Breathing = false
	f, err := face.New(cfg, nil)
	require.NoError(t, err)

	script := []demoStep{{"happy", face.EmotionVector{}.With(face.Happiness, 0.8), time.Second}}
	var out bytes.Buffer
	require.NoError(t, playDemo(&out, f, script, 10*time.Millisecond, time.Second))

	assert.Equal(t, 0.8, f.Frame().Get(face.LipCornerPull))
}

func TestStageFansOut(t *testing.T) {
	cfg := face.DefaultConfig()
	a, err := face.New(cfg, nil)
	require.NoError(t, err)
	b, err := face.New(cfg, nil)
	require.NoError(t, err)

	st := &stage{faces: []*face.Face{a, b}}
	st.SetEmotions(face.EmotionVector{}.With(face.Anger, 0.5), time.Millisecond)
	st.PatchEmotion(face.Fear, 0.2, time.Millisecond)

	for _, f := range st.faces {
		assert.Equal(t, 0.5, f.Emotions().Get(face.Anger))
		assert.Equal(t, 0.2, f.Emotions().Get(face.Fear))
	}
}
