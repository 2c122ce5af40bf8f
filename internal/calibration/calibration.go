package calibration

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Calibrator turns a raw instrument file into one or more calibrated
// artifacts and returns their local paths. Implementations are opaque to
// the pipeline; they are selected per instrument at startup.
type Calibrator interface {
	Calibrate(ctx context.Context, inputPath string) ([]string, error)
}

// Func adapts a plain function to the Calibrator interface.
type Func func(ctx context.Context, inputPath string) ([]string, error)

func (f Func) Calibrate(ctx context.Context, inputPath string) ([]string, error) {
	return f(ctx, inputPath)
}

// CalibrationError reports a failed calibration run. Calibration is a
// deterministic function of its input, so these are never retried.
type CalibrationError struct {
	Instrument string
	Err        error
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("calibrate %s file: %v", e.Instrument, e.Err)
}

func (e *CalibrationError) Unwrap() error { return e.Err }

// Command returns a Calibrator that runs an external calibration routine.
// The routine receives the input path as its final argument and must print
// the path of each produced artifact on its own stdout line.
func Command(name string, args ...string) Calibrator {
	return Func(func(ctx context.Context, inputPath string) ([]string, error) {
		cmd := exec.CommandContext(ctx, name, append(args[:len(args):len(args)], inputPath)...)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		out, err := cmd.Output()
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("%s: %s: %w", name, msg, err)
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		var paths []string
		scanner := bufio.NewScanner(bytes.NewReader(out))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				paths = append(paths, line)
			}
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("%s produced no artifacts", name)
		}
		return paths, nil
	})
}

// Dispatcher invokes a resolved calibration capability against a local
// file and returns the first artifact it produced.
type Dispatcher struct{}

// Dispatch runs the calibrator and returns the path of the first output
// artifact. Multiple outputs are allowed; only the first is published.
func (Dispatcher) Dispatch(ctx context.Context, instrument string, c Calibrator, inputPath string) (string, error) {
	outputs, err := c.Calibrate(ctx, inputPath)
	if err != nil {
		return "", &CalibrationError{Instrument: instrument, Err: err}
	}
	if len(outputs) == 0 || outputs[0] == "" {
		return "", &CalibrationError{Instrument: instrument, Err: fmt.Errorf("no output artifact")}
	}
	return outputs[0], nil
}
