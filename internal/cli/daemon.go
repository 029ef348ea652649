package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/vision-dao/beacon-deploy/internal/errs"
)

// daemonStartTimeout bounds how long we wait for a spawned IPFS daemon to
// announce its API server.
const daemonStartTimeout = 30 * time.Second

// Daemon is a locally spawned IPFS daemon. It is a scoped resource: the
// command handler that starts it must call Stop on every exit path.
type Daemon struct {
	cmd    *exec.Cmd
	logger *slog.Logger
}

// startDaemon spawns `ipfs daemon` and blocks until its API server is
// listening, so the caller can immediately talk to it.
func startDaemon(ctx context.Context, logger *slog.Logger) (*Daemon, error) {
	cmd := exec.Command("ipfs", "daemon")
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errs.New(errs.KindConfig, "pipe ipfs daemon output", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errs.New(errs.KindConfig, "start ipfs daemon", err)
	}

	d := &Daemon{cmd: cmd, logger: logger}

	ready := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		announced := false
		for scanner.Scan() {
			line := scanner.Text()
			logger.Debug("ipfs daemon", "line", line)

			if !announced && strings.Contains(line, "API server listening") {
				announced = true
				ready <- nil
			}
		}
		// Keep draining stdout after the announcement so the child never
		// blocks on a full pipe.
		if !announced {
			ready <- errs.Newf(errs.KindConfig, "ipfs daemon exited before its API server came up")
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			d.Stop()
			return nil, err
		}
		logger.Debug("ipfs daemon ready")
		return d, nil
	case <-time.After(daemonStartTimeout):
		d.Stop()
		return nil, errs.Newf(errs.KindConfig, "timed out waiting for ipfs daemon API server")
	case <-ctx.Done():
		d.Stop()
		return nil, errs.New(errs.KindConfig, "wait for ipfs daemon", ctx.Err())
	}
}

// Stop terminates the daemon process. Safe to call after a failed start.
func (d *Daemon) Stop() {
	if d == nil || d.cmd.Process == nil {
		return
	}
	if err := d.cmd.Process.Kill(); err != nil {
		d.logger.Warn("failed to stop ipfs daemon", "error", err)
		return
	}
	_ = d.cmd.Wait()
	d.logger.Debug("ipfs daemon stopped")
}
