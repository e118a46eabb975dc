package clipboard

import (
	"bytes"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}

	_, ok := r.Last()
	assert.False(t, ok)

	require.NoError(t, r.Write("one"))
	require.NoError(t, r.Write("two"))

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, "two", last)
	assert.Equal(t, []string{"one", "two"}, r.Writes())
}

func TestRecorder_Error(t *testing.T) {
	r := &Recorder{Err: stderrors.New("denied")}

	assert.EqualError(t, r.Write("text"), "denied")
	assert.Empty(t, r.Writes())
}

func TestOSC52(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewOSC52(&buf).Write("type T struct{}"))
	assert.Contains(t, buf.String(), "\x1b]52;c;"+base64.StdEncoding.EncodeToString([]byte("type T struct{}")))
}

func TestTerminal_WritesDoNotInterleave(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "tty"))
	require.NoError(t, err)
	defer f.Close()

	term := NewTerminal(f)
	osc := NewOSC52(term)
	frame := strings.Repeat("#", 4096) + "\n"

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = io.WriteString(term, frame)
			}
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = osc.Write(fmt.Sprintf("copy %d %d", i, j))
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)

	frames := strings.Count(string(data), frame)
	assert.Equal(t, 100, frames, "every frame is written whole")
	assert.Equal(t, 100, strings.Count(string(data), "\x1b]52;c;"))
}

func TestSystem_FallbackUsesTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "tty"))
	require.NoError(t, err)
	defer f.Close()

	s := NewSystem(NewTerminal(f))
	require.NoError(t, s.fallback.Write("type T struct{}"))

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), base64.StdEncoding.EncodeToString([]byte("type T struct{}")))
}
