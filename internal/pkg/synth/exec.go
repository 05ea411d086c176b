package synth

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/airenas/docread/internal/pkg/audio"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/mattn/go-shellwords"
)

// ExecSynth keeps one synthesis process running and talks to it with json lines.
// The model is loaded once by the process, so it is started on the first call
// and restarted only after a failure
type ExecSynth struct {
	cmd []string

	mu     sync.Mutex
	proc   *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

type execRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
}

type execResponse struct {
	PCMBase64 string `json:"pcm_base64"`
	Final     bool   `json:"final"`
	Error     string `json:"error,omitempty"`
}

// NewExecSynth parses the command line
func NewExecSynth(command string) (*ExecSynth, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse synth command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("synth command empty")
	}
	goapp.Log.Info().Strs("cmd", args).Msg("cfg: exec synthesizer")
	return &ExecSynth{cmd: args}, nil
}

// Synthesize implements Synthesizer
func (e *ExecSynth) Synthesize(ctx context.Context, text, voice string) ([]audio.Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.proc == nil {
		if err := e.start(); err != nil {
			return nil, err
		}
	}
	proc := e.proc
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = proc.Process.Kill()
		case <-done:
		}
	}()

	res, err := e.invoke(text, voice)
	if err != nil {
		e.stop()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return res, nil
}

func (e *ExecSynth) invoke(text, voice string) ([]audio.Segment, error) {
	data, err := json.Marshal(execRequest{Text: text, Voice: voice, SampleRate: audio.SampleRate})
	if err != nil {
		return nil, err
	}
	if _, err := e.stdin.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("can't write request: %w", err)
	}
	var res []audio.Segment
	for {
		line, err := e.stdout.ReadBytes('\n')
		if len(line) > 1 {
			var resp execResponse
			if err := json.Unmarshal(line, &resp); err != nil {
				return nil, fmt.Errorf("can't decode response: %w", err)
			}
			if resp.Error != "" {
				return nil, fmt.Errorf("synth error: %s", resp.Error)
			}
			if resp.PCMBase64 != "" {
				seg, err := decodePCM(resp.PCMBase64)
				if err != nil {
					return nil, err
				}
				res = append(res, seg)
			}
			if resp.Final {
				return res, nil
			}
		}
		if err != nil {
			return nil, fmt.Errorf("can't read response: %w", err)
		}
	}
}

func decodePCM(s string) (audio.Segment, error) {
	pcm, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("can't decode pcm: %w", err)
	}
	return audio.FromPCM16(pcm)
}

func (e *ExecSynth) start() error {
	goapp.Log.Info().Str("cmd", e.cmd[0]).Msg("starting synthesizer process")
	cmd := exec.Command(e.cmd[0], e.cmd[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("can't get stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("can't get stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("can't start synthesizer: %w", err)
	}
	e.proc, e.stdin, e.stdout = cmd, stdin, bufio.NewReaderSize(stdout, 1<<20)
	return nil
}

func (e *ExecSynth) stop() {
	if e.proc == nil {
		return
	}
	goapp.Log.Warn().Msg("stopping synthesizer process")
	_ = e.stdin.Close()
	_ = e.proc.Process.Kill()
	_ = e.proc.Wait()
	e.proc, e.stdin, e.stdout = nil, nil, nil
}

// Close stops the process
func (e *ExecSynth) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stop()
	return nil
}
