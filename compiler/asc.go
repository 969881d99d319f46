package compiler

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/subgraph/errors"
)

// ascArgs builds the compiler command line for one mapping.
func (c *Compiler) ascArgs(src, out string) ([]string, error) {
	argv, err := shellquote.Split(c.opts.AscCommand)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "cannot parse AssemblyScript command %q", c.opts.AscCommand),
			"check quoting in compiler.asc_command")
	}
	if len(argv) == 0 {
		return nil, errors.New("AssemblyScript command is empty")
	}

	outFlag := "--binaryFile"
	if c.opts.OutputFormat == FormatWast {
		outFlag = "--textFile"
	}
	return append(argv, src, outFlag, out), nil
}

func (c *Compiler) compileMapping(ctx context.Context, src, out, dir string) error {
	argv, err := c.ascArgs(src, out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(out))
	}

	c.logger.Debugw("Compiling mapping",
		"mapping", src,
		"output", out,
		"command", argv)
	return c.run(ctx, argv, dir)
}

// execAsc runs the compiler, forwarding its output to the logger line by line.
func (c *Compiler) execAsc(ctx context.Context, argv []string, dir string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	stderr := &lineLogger{logger: c.logger, name: argv[0], level: "error"}
	cmd.Stdout = &lineLogger{logger: c.logger, name: argv[0], level: "info"}
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		stderr.flush()
		err = errors.Wrapf(err, "%s failed", strings.Join(argv, " "))
		if last := stderr.last; last != "" {
			err = errors.WithDetail(err, last)
		}
		return err
	}
	return nil
}

// lineLogger writes process output to the logger one line at a time.
type lineLogger struct {
	logger *zap.SugaredLogger
	name   string
	level  string
	buf    strings.Builder
	last   string
}

func (l *lineLogger) Write(p []byte) (n int, err error) {
	l.buf.Write(p)
	for {
		line, rest, found := strings.Cut(l.buf.String(), "\n")
		if !found {
			break
		}
		l.buf.Reset()
		l.buf.WriteString(rest)
		l.emit(line)
	}
	return len(p), nil
}

func (l *lineLogger) flush() {
	rest := l.buf.String()
	l.buf.Reset()
	l.emit(rest)
}

func (l *lineLogger) emit(line string) {
	if line = strings.TrimSpace(line); line == "" {
		return
	}
	l.last = line
	if l.level == "error" {
		l.logger.Errorw("Compiler output", "command", l.name, "message", line)
	} else {
		l.logger.Debugw("Compiler output", "command", l.name, "message", line)
	}
}
