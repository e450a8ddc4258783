// Package tunnel starts a local inference server and publishes it through an ngrok tunnel.
// It is operator tooling for development and is never used on the request path.
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokcfg "golang.ngrok.com/ngrok/config"
)

const stopTimeout = 5 * time.Second

var ErrMissingToken = errors.New("NGROK_TOKEN is not set")

// Tunnel is an open public endpoint forwarding to a local backend.
type Tunnel interface {
	URL() string
	Wait() error
	Close() error
}

// Opener opens a tunnel to backend.
type Opener interface {
	Open(ctx context.Context, backend *url.URL) (Tunnel, error)
}

// NgrokOpener opens HTTP tunnels with the ngrok agent SDK.
type NgrokOpener struct {
	Token  string
	Region string
}

func (o NgrokOpener) Open(ctx context.Context, backend *url.URL) (Tunnel, error) {
	if o.Token == "" {
		return nil, ErrMissingToken
	}
	opts := []ngrok.ConnectOption{ngrok.WithAuthtoken(o.Token)}
	if o.Region != "" {
		opts = append(opts, ngrok.WithRegion(o.Region))
	}
	fwd, err := ngrok.ListenAndForward(ctx, backend, ngrokcfg.HTTPEndpoint(), opts...)
	if err != nil {
		return nil, err
	}
	return fwd, nil
}

type Options struct {
	// Command launches the inference server; it must listen on Port.
	Command []string
	Env     []string
	Port    int
	Opener  Opener
	Logger  *zap.Logger

	Stdout io.Writer
	Stderr io.Writer
	// Out receives the operator-facing messages (public URL).
	Out io.Writer
}

// Session is a running inference server with its tunnel.
type Session struct {
	URL string

	cmd    *exec.Cmd
	tunnel Tunnel
	logger *zap.Logger

	exited  chan struct{}
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

// Bootstrap launches the inference server once and opens the tunnel to it. If the tunnel
// cannot be opened the server process is terminated before returning.
func Bootstrap(ctx context.Context, opts Options) (*Session, error) {
	if len(opts.Command) == 0 {
		return nil, errors.New("inference command is empty")
	}
	if opts.Opener == nil {
		return nil, errors.New("tunnel opener is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	cmd := exec.Command(opts.Command[0], opts.Command[1:]...)
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start inference server: %w", err)
	}

	s := &Session{cmd: cmd, logger: logger, exited: make(chan struct{})}
	go func() {
		s.waitErr = cmd.Wait()
		close(s.exited)
	}()
	logger.Info("inference server starting",
		zap.Strings("command", opts.Command),
		zap.Int("port", opts.Port),
		zap.Int("pid", cmd.Process.Pid))

	backend := &url.URL{Scheme: "http", Host: net.JoinHostPort("localhost", strconv.Itoa(opts.Port))}
	tun, err := opts.Opener.Open(ctx, backend)
	if err != nil {
		logger.Error("failed to open tunnel", zap.Error(err))
		if stopErr := s.stopProcess(); stopErr != nil {
			logger.Warn("failed to stop inference server", zap.Error(stopErr))
		}
		return nil, fmt.Errorf("open tunnel: %w", err)
	}
	s.tunnel = tun
	s.URL = tun.URL()

	logger.Info("tunnel open", zap.String("url", s.URL), zap.String("backend", backend.String()))
	fmt.Fprintf(out, "Inference server public URL (set FASTAPI_ENDPOINT_URL to %s/generate):\n   %s\n", s.URL, s.URL)
	return s, nil
}

// Wait blocks until ctx is done, the server process exits or the tunnel ends, then
// releases both.
func (s *Session) Wait(ctx context.Context) error {
	tunnelDone := make(chan error, 1)
	go func() { tunnelDone <- s.tunnel.Wait() }()

	var err error
	select {
	case <-ctx.Done():
	case <-s.exited:
		err = fmt.Errorf("inference server exited: %v", s.waitErr)
		s.logger.Error("inference server exited", zap.Error(s.waitErr))
	case terr := <-tunnelDone:
		if terr != nil {
			err = fmt.Errorf("tunnel closed: %w", terr)
		} else {
			err = errors.New("tunnel closed")
		}
		s.logger.Error("tunnel closed", zap.Error(terr))
	}

	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close shuts the tunnel and terminates the server process. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.tunnel != nil {
			if err := s.tunnel.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close tunnel: %w", err))
			}
		}
		if err := s.stopProcess(); err != nil {
			errs = append(errs, fmt.Errorf("stop inference server: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// stopProcess sends SIGTERM, then kills the process if it has not exited in time.
func (s *Session) stopProcess() error {
	select {
	case <-s.exited:
		return nil
	default:
	}

	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			<-s.exited
			return nil
		}
		if kerr := s.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			return kerr
		}
	}

	select {
	case <-s.exited:
		return nil
	case <-time.After(stopTimeout):
		s.logger.Warn("inference server did not stop, killing", zap.Int("pid", s.cmd.Process.Pid))
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
		<-s.exited
		return nil
	}
}
