// Package actionlog appends a human readable trail of client actions to a
// file, one "[<unix ms>] <name>: <json>" line per action.
package actionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const DefaultPath = "./logs/logs.txt"

type Log struct {
	mtx sync.Mutex

	path   string
	logger cmtlog.Logger
	now    func() time.Time
}

func Open(path string, logger cmtlog.Logger) (l *Log, err error) {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = cmtlog.NewNopLogger()
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(path), err)
	}
	l = &Log{
		path:   path,
		logger: logger.With("module", "actionlog"),
		now:    time.Now,
	}
	return
}

func (l *Log) Path() string {
	return l.path
}

// Write records one action. An empty name with empty data writes a bare
// newline, which separates runs in the file.
func (l *Log) Write(name string, data any) error {
	var line string
	if name == "" && data == "" {
		line = "\n"
	} else {
		dat, err := json.Marshal(data)
		if err != nil {
			return err
		}
		line = fmt.Sprintf("[%d] %s: %s\n", l.now().UnixMilli(), name, dat)
		l.logger.Info(name, "data", string(dat))
	}

	l.mtx.Lock()
	defer l.mtx.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = f.WriteString(line)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Writef is Write for call sites that only care about logging, not its
// outcome; failures go to the structured logger.
func (l *Log) Writef(name string, data any) {
	if err := l.Write(name, data); err != nil {
		l.logger.Error("write action log fail", "name", name, "err", err)
	}
}

// Separator ends a run.
func (l *Log) Separator() {
	l.Writef("", "")
}
