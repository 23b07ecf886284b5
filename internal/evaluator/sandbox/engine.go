package sandbox

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"go.uber.org/zap"
)

const maxLogBytes = 1 << 20

var ErrTimeout = errors.New("sandbox run exceeded its time limit")

// Output is what a finished container wrote.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int64
}

// Engine starts one throwaway container and collects its output.
type Engine interface {
	EnsureImage(ctx context.Context, imageName string) error
	// Run writes stdin to the container once it starts and then closes it.
	Run(ctx context.Context, cfg *container.Config, hostCfg *container.HostConfig, stdin []byte, timeout time.Duration) (*Output, error)
}

type DockerEngine struct {
	cli    *client.Client
	logger *zap.SugaredLogger
}

func NewDockerEngine() (*DockerEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &DockerEngine{cli: cli, logger: logger.NewNamedLogger("docker-engine")}, nil
}

// Ping checks that the Docker daemon answers.
func (d *DockerEngine) Ping(ctx context.Context) error {
	_, err := d.cli.Ping(ctx)
	return err
}

func (d *DockerEngine) Close() error {
	return d.cli.Close()
}

func (d *DockerEngine) EnsureImage(ctx context.Context, imageName string) error {
	_, err := d.cli.ImageInspect(ctx, imageName)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return err
	}

	d.logger.Infof("Pulling image %s", imageName)
	reader, err := d.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	return err
}

func (d *DockerEngine) Run(ctx context.Context, cfg *container.Config, hostCfg *container.HostConfig, stdin []byte, timeout time.Duration) (*Output, error) {
	cfg.OpenStdin = true
	cfg.StdinOnce = true
	cfg.AttachStdin = true
	resp, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() {
		// The request context may already be cancelled here.
		rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.cli.ContainerRemove(rmCtx, resp.ID, container.RemoveOptions{Force: true}); err != nil {
			d.logger.Warnf("Failed to remove container %s: %s", resp.ID, err)
		}
	}()

	attach, err := d.cli.ContainerAttach(ctx, resp.ID, container.AttachOptions{Stream: true, Stdin: true})
	if err != nil {
		return nil, err
	}
	defer attach.Close()

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, err
	}
	if _, err := attach.Conn.Write(stdin); err != nil {
		return nil, err
	}
	if err := attach.CloseWrite(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	statusCh, errCh := d.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		return nil, err
	case status := <-statusCh:
		exitCode = status.StatusCode
	case <-timer.C:
		d.logger.Warnf("Container %s exceeded %s, killing", resp.ID, timeout)
		if err := d.cli.ContainerKill(context.Background(), resp.ID, "SIGKILL"); err != nil {
			d.logger.Errorf("Failed to kill container %s: %s", resp.ID, err)
		}
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	logs, err := d.cli.ContainerLogs(ctx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, err
	}
	defer logs.Close()

	stdout, stderr := newTailWriter(maxLogBytes), newTailWriter(maxLogBytes)
	if _, err := stdcopy.StdCopy(stdout, stderr, logs); err != nil {
		return nil, err
	}
	return &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: exitCode}, nil
}

// tailWriter keeps only the last limit bytes written to it. The harness
// report is the last thing a run prints.
type tailWriter struct {
	limit int
	buf   []byte
}

func newTailWriter(limit int) *tailWriter {
	return &tailWriter{limit: limit}
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n >= w.limit {
		w.buf = append(w.buf[:0], p[n-w.limit:]...)
		return n, nil
	}
	if over := len(w.buf) + n - w.limit; over > 0 {
		w.buf = append(w.buf[:0], w.buf[over:]...)
	}
	w.buf = append(w.buf, p...)
	return n, nil
}

func (w *tailWriter) Bytes() []byte {
	return w.buf
}
