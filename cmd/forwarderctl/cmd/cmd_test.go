package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voyage-finance/voyage-llm-forwarder/tunnel"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	newLogger = func(...zap.Option) (*zap.Logger, error) { return zap.NewNop(), nil }
	os.Exit(m.Run())
}

// TestHelperProcess stands in for the inference server launched by the tunnel command.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	os.Exit(0)
}

func runWithArgs(t *testing.T, args ...string) (int, string) {
	t.Helper()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	os.Args = append([]string{oldArgs[0], "--env-dir", t.TempDir()}, args...)
	code := Execute()
	return code, out.String()
}

func TestExecute_Version(t *testing.T) {
	code, out := runWithArgs(t, "version")
	if code != 0 {
		t.Errorf("Execute() = %d, want 0", code)
	}
	if !strings.Contains(out, "forwarderctl") {
		t.Errorf("output = %q", out)
	}
}

func TestExecute_InvalidConfig(t *testing.T) {
	t.Setenv("GENERATION_TIMEOUT", "-1s")
	if code, _ := runWithArgs(t, "version"); code != 1 {
		t.Errorf("Execute() = %d, want 1", code)
	}
}

func TestExecute_TunnelRequiresToken(t *testing.T) {
	t.Setenv("NGROK_TOKEN", "")
	if code, _ := runWithArgs(t, "tunnel"); code != 1 {
		t.Errorf("Execute() = %d, want 1", code)
	}
}

type stubTunnel struct {
	once   sync.Once
	closed chan struct{}
}

func (s *stubTunnel) URL() string { return "https://forwarder-test.ngrok.app" }
func (s *stubTunnel) Wait() error { <-s.closed; return nil }
func (s *stubTunnel) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type stubOpener struct {
	token, region string
	backend       *url.URL
	err           error
}

func (o *stubOpener) Open(_ context.Context, backend *url.URL) (tunnel.Tunnel, error) {
	o.backend = backend
	if o.err != nil {
		return nil, o.err
	}
	return &stubTunnel{closed: make(chan struct{})}, nil
}

// runTunnelWithStub runs the tunnel command against a stub opener and a helper process that
// exits immediately, which ends the session with an error.
func runTunnelWithStub(t *testing.T) (int, string, *stubOpener) {
	t.Helper()
	t.Setenv("NGROK_TOKEN", "tok")
	t.Setenv("NGROK_REGION", "eu")
	t.Setenv("INFERENCE_PORT", "8123")
	t.Setenv("INFERENCE_COMMAND", os.Args[0]+" -test.run=TestHelperProcess")
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")

	opener := &stubOpener{}
	oldOpener := newOpener
	newOpener = func(token, region string) tunnel.Opener {
		opener.token, opener.region = token, region
		return opener
	}
	defer func() { newOpener = oldOpener }()

	done := make(chan struct{})
	var code int
	var out string
	go func() {
		code, out = runWithArgs(t, "tunnel")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tunnel command did not return after the inference server exited")
	}
	return code, out, opener
}

func TestExecute_TunnelPrintsURL(t *testing.T) {
	code, out, opener := runTunnelWithStub(t)
	if code != 1 {
		t.Errorf("Execute() = %d, want 1", code)
	}
	if opener.token != "tok" || opener.region != "eu" {
		t.Errorf("opener got token %q region %q", opener.token, opener.region)
	}
	if opener.backend == nil || opener.backend.Port() != "8123" {
		t.Errorf("backend = %v", opener.backend)
	}
	if !strings.Contains(out, "https://forwarder-test.ngrok.app/generate") {
		t.Errorf("output = %q", out)
	}
}

func TestExecute_RepeatedRunsGetLiveContext(t *testing.T) {
	t.Setenv("NGROK_TOKEN", "")
	if code, _ := runWithArgs(t, "tunnel"); code != 1 {
		t.Fatalf("first run: Execute() = %d, want 1", code)
	}

	// A context left over from the first run is already canceled and would end the session cleanly.
	code, out, _ := runTunnelWithStub(t)
	if code != 1 {
		t.Errorf("second run: Execute() = %d, want 1 (output %q)", code, out)
	}
	if !strings.Contains(out, "inference server exited") {
		t.Errorf("output = %q", out)
	}
}

func TestExecute_TunnelOpenFailure(t *testing.T) {
	t.Setenv("NGROK_TOKEN", "tok")
	t.Setenv("INFERENCE_COMMAND", os.Args[0]+" -test.run=TestHelperProcess")
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")

	oldOpener := newOpener
	newOpener = func(string, string) tunnel.Opener {
		return &stubOpener{err: errors.New("ERR_NGROK_105")}
	}
	defer func() { newOpener = oldOpener }()

	code, out := runWithArgs(t, "tunnel")
	if code != 1 {
		t.Errorf("Execute() = %d, want 1", code)
	}
	if !strings.Contains(out, "ERR_NGROK_105") {
		t.Errorf("output = %q", out)
	}
}
