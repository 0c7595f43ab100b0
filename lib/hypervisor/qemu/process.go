package qemu

import (
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Handle is a running emulator process. It owns the console log file handle
// and a background reaper goroutine that observes the child's exit so Alive
// never blocks.
type Handle struct {
	PID int

	cmd     *exec.Cmd
	logFile *os.File
	exited  atomic.Bool
}

// Start launches argv[0] with argv[1:], daemonized (detached process group,
// stdin from /dev/null, stdout and stderr merged into logPath), matching the
// teacher's StartVM daemonization idiom minus the QMP socket handshake this
// system has no use for.
func Start(argv []string, logPath string) (*Handle, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("start emulator: empty argv")
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open console log %s: %w", logPath, err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = devNull
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}

	h := &Handle{PID: cmd.Process.Pid, cmd: cmd, logFile: logFile}

	// Reap in the background so the child never lingers as a zombie; Alive
	// reads the cached result instead of polling the kernel each time.
	go func() {
		_ = cmd.Wait()
		h.exited.Store(true)
	}()

	return h, nil
}

// Alive reports whether the emulator process is still running. Non-blocking:
// backed by the reaper goroutine's cached exit observation.
func (h *Handle) Alive() bool {
	return !h.exited.Load()
}

// Stop asks the emulator's entire process group to terminate gracefully,
// escalating to SIGKILL if it has not exited within grace, and blocks until
// the reaper goroutine observes the child has actually exited. Callers rely
// on this: host state (taps, overlays) is only safe to reclaim once Stop has
// returned. The console log is closed either way.
func (h *Handle) Stop(grace time.Duration) error {
	defer h.logFile.Close()

	if !h.Alive() {
		return nil
	}

	if err := unix.Kill(-h.PID, unix.SIGTERM); err != nil && err != unix.ESRCH {
		return fmt.Errorf("signal process group %d: %w", h.PID, err)
	}

	deadline := time.After(grace)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	killed := false
	for {
		if !h.Alive() {
			return nil
		}
		select {
		case <-deadline:
			if !killed {
				killed = true
				if err := unix.Kill(-h.PID, unix.SIGKILL); err != nil && err != unix.ESRCH {
					return fmt.Errorf("kill process group %d: %w", h.PID, err)
				}
			}
		case <-tick.C:
		}
	}
}
