//go:build !windows

// Copyright Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package common

import (
	"fmt"
	"log/syslog"
	"runtime"
)

// sysLogger mirrors jobLogger but writes to the local syslog daemon instead
// of a rotating file. Used when a run is supervised (e.g. under systemd) and
// a central log collector is expected to pick messages up from syslog rather
// than from the log directory.
type sysLogger struct {
	runID             string
	minimumLevelToLog LogLevel
	writer            *syslog.Writer
	sanitizer         LogSanitizer
}

func NewSysLogger(runID string, minimumLevelToLog LogLevel) ILoggerResetable {
	return &sysLogger{
		runID:             runID,
		minimumLevelToLog: minimumLevelToLog,
		sanitizer:         NewLogSanitizer(),
	}
}

func (sl *sysLogger) OpenLog() {
	writer, err := syslog.New(syslog.LOG_NOTICE, fmt.Sprintf("audiosync %s", sl.runID))
	PanicIfErr(err)

	sl.writer = writer
	sl.writer.Notice("audiosync version " + Version)
	sl.writer.Notice("OS-Environment " + runtime.GOOS)
	sl.writer.Notice("OS-Architecture " + runtime.GOARCH)
}

func (sl *sysLogger) MinimumLogLevel() LogLevel {
	return sl.minimumLevelToLog
}

func (sl *sysLogger) ShouldLog(level LogLevel) bool {
	if level == LogNone {
		return false
	}
	return level <= sl.minimumLevelToLog
}

func (sl *sysLogger) CloseLog() {
	if sl.minimumLevelToLog == LogNone || sl.writer == nil {
		return
	}
	sl.writer.Notice("closing log")
	_ = sl.writer.Close()
}

func (sl *sysLogger) Panic(err error) {
	if sl.writer != nil {
		sl.writer.Crit(err.Error())
	}
	panic(err)
}

func (sl *sysLogger) Log(level LogLevel, msg string) {
	if !sl.ShouldLog(level) {
		return
	}
	msg = sl.sanitizer.SanitizeLogMessage(msg)

	switch level {
	case LogFatal:
		sl.writer.Emerg(msg)
	case LogPanic:
		sl.writer.Crit(msg)
	case LogError:
		sl.writer.Err(msg)
	case LogWarning:
		sl.writer.Warning(msg)
	case LogInfo:
		sl.writer.Info(msg)
	case LogDebug:
		sl.writer.Debug(msg)
	}
}
