// Copyright © 2017 Microsoft <wastore@microsoft.com>
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
	"log"
	"path"
	"runtime"
	"time"
)

// LogLevel mirrors the severity scale used throughout the package: lower
// values are more severe, and a logger configured for level N logs every
// message at level <= N.
type LogLevel uint8

const (
	LogNone LogLevel = iota
	LogPanic
	LogFatal
	LogError
	LogWarning
	LogInfo
	LogDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogNone:
		return "NONE"
	case LogPanic:
		return "PANIC"
	case LogFatal:
		return "FATAL"
	case LogError:
		return "ERROR"
	case LogWarning:
		return "WARN"
	case LogInfo:
		return "INFO"
	case LogDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ILogger is implemented by every component that needs to emit diagnostics.
// Components receive one through their constructor; there is no global logger.
type ILogger interface {
	ShouldLog(level LogLevel) bool
	Log(level LogLevel, msg string)
	Panic(err error)
}

type ILoggerCloser interface {
	ILogger
	CloseLog()
}

type ILoggerResetable interface {
	OpenLog()
	MinimumLogLevel() LogLevel
	ILoggerCloser
}

// LogLevelOverrideLogger lets a caller temporarily tighten or loosen the
// level of an existing logger without constructing a new one.
type LogLevelOverrideLogger struct {
	ILoggerResetable
	MinimumLevelToLog LogLevel
}

func (l LogLevelOverrideLogger) MinimumLogLevel() LogLevel {
	return l.MinimumLevelToLog
}

func (l LogLevelOverrideLogger) ShouldLog(level LogLevel) bool {
	if level == LogNone {
		return false
	}
	return level <= l.MinimumLevelToLog
}

const maxLogSize = 250 * 1024 * 1024

type logFile interface {
	Write([]byte) (int, error)
	Close() error
}

// jobLogger writes one rotating file per run, under logFileFolder/runID.log.
// A run here is one invocation of the download orchestrator against one group.
type jobLogger struct {
	runID             string
	minimumLevelToLog LogLevel
	file              logFile
	logFileFolder     string
	logger            *log.Logger
	sanitizer         LogSanitizer
}

func NewRunLogger(runID string, minimumLevelToLog LogLevel, logFileFolder string) ILoggerResetable {
	return &jobLogger{
		runID:             runID,
		minimumLevelToLog: minimumLevelToLog,
		logFileFolder:     logFileFolder,
		sanitizer:         NewLogSanitizer(),
	}
}

func (jl *jobLogger) OpenLog() {
	if jl.minimumLevelToLog == LogNone {
		return
	}

	file, err := NewRotatingWriter(path.Join(jl.logFileFolder, jl.runID+".log"), maxLogSize)
	PanicIfErr(err)

	jl.file = file

	flags := log.LstdFlags | log.LUTC
	jl.logger = log.New(jl.file, "", flags)
	jl.logger.Println("Log times are in UTC. Local time is", time.Now().Format("2 Jan 2006 15:04:05"))
	jl.logger.Println("OS", runtime.GOOS, runtime.GOARCH)
}

func (jl *jobLogger) MinimumLogLevel() LogLevel {
	return jl.minimumLevelToLog
}

func (jl *jobLogger) ShouldLog(level LogLevel) bool {
	if level == LogNone {
		return false
	}
	return level <= jl.minimumLevelToLog
}

func (jl *jobLogger) CloseLog() {
	if jl.minimumLevelToLog == LogNone || jl.file == nil {
		return
	}
	jl.logger.Println("closing log")
	_ = jl.file.Close()
}

func (jl *jobLogger) Log(level LogLevel, msg string) {
	if !jl.ShouldLog(level) {
		return
	}
	msg = jl.sanitizer.SanitizeLogMessage(msg)
	prefix := ""
	if level <= LogWarning {
		prefix = fmt.Sprintf("%s: ", level)
	}
	jl.logger.Println(prefix + msg)
}

func (jl *jobLogger) Panic(err error) {
	if jl.logger != nil {
		jl.logger.Println(err)
	}
	panic(err)
}

// NullLogger discards everything; useful for tests and for components run
// without a configured log directory.
type NullLogger struct{}

func (NullLogger) OpenLog()                  {}
func (NullLogger) MinimumLogLevel() LogLevel { return LogNone }
func (NullLogger) ShouldLog(LogLevel) bool   { return false }
func (NullLogger) Log(LogLevel, string)      {}
func (NullLogger) Panic(err error)           { panic(err) }
func (NullLogger) CloseLog()                 {}

var _ ILoggerResetable = NullLogger{}
