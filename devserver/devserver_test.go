package devserver

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/gorilla/websocket"
)

func occupyPort(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln, Port(ln)
}

func TestListen(t *testing.T) {
	t.Run("FreePort", func(t *testing.T) {
		ln, port := occupyPort(t)
		_ = ln.Close()

		got, err := Listen(context.Background(), ListenConfig{Host: "127.0.0.1", Port: port, MaxAttempts: 3})
		assert.NoError(t, err)
		defer got.Close()
		assert.Equal(t, port, Port(got))
	})

	t.Run("FallsBackWhenOccupied", func(t *testing.T) {
		_, port := occupyPort(t)
		if port >= 65535-10 {
			t.Skip("kernel picked a port at the top of the range")
		}

		got, err := Listen(context.Background(), ListenConfig{
			Host:        "127.0.0.1",
			Port:        port,
			MaxAttempts: 10,
		})
		assert.NoError(t, err)
		defer got.Close()

		assert.NotEqual(t, port, Port(got))
		assert.True(t, Port(got) > port && Port(got) <= port+9)
	})

	t.Run("StrictPortFails", func(t *testing.T) {
		_, port := occupyPort(t)

		_, err := Listen(context.Background(), ListenConfig{
			Host:        "127.0.0.1",
			Port:        port,
			StrictPort:  true,
			MaxAttempts: 10,
		})
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrPortInUse))
	})

	t.Run("AnyPort", func(t *testing.T) {
		got, err := Listen(context.Background(), ListenConfig{Host: "127.0.0.1", Port: 0})
		assert.NoError(t, err)
		defer got.Close()
		assert.NotEqual(t, 0, Port(got))
	})
}

func TestHub(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()

	var msg Message
	assert.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageConnected, msg.Type)

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, hub.Clients())

	hub.Broadcast(Message{Type: MessageReload, Path: "main.js"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	assert.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageReload, msg.Type)
	assert.Equal(t, "main.js", msg.Path)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	w := NewWatcher(nil, func(path string) { changed <- path }, dir, filepath.Join(dir, "missing"))
	assert.NoError(t, w.Run(ctx))

	file := filepath.Join(dir, "main.js")
	assert.NoError(t, os.WriteFile(file, []byte("console.log(1)"), 0o644))

	select {
	case path := <-changed:
		assert.Equal(t, file, path)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}
