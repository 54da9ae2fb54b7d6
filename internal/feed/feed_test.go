package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/normanking/cortexface/internal/face"
	"github.com/normanking/cortexface/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// liveFace wires a real protocol handler to a face so transport tests assert
// on observable face state.
func liveFace(t *testing.T) (*face.Face, *protocol.Handler) {
	t.Helper()
	cfg := face.DefaultConfig()
	cfg.TransitionDuration = 10 * time.Millisecond
	f, err := face.New(cfg, nil)
	require.NoError(t, err)
	return f, protocol.NewHandler(f, zerolog.Nop())
}

type countingHandler struct {
	mu    sync.Mutex
	calls [][]byte
	err   error
}

func (c *countingHandler) HandleEmotion(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, data)
	return c.err
}

func (c *countingHandler) Dispatch(data []byte) error { return c.HandleEmotion(data) }

func (c *countingHandler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

const happyState = `{"happiness":0.8,"sadness":0,"anger":0,"fear":0,"surprise":0,"disgust":0}`
