// Copyright 2019 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is the jobsub logger.
//
// Messages are prefixed by their level ([DEBUG], [INFO], [WARN], [ERROR]) and
// routed to a hclog logger that infers the level from that prefix.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
)

var (
	mutex    sync.Mutex
	debug    = false
	hclogger hclog.Logger
	std      *stdlog.Logger
)

func init() {
	switch strings.ToUpper(os.Getenv("JOBSUB_LOG")) {
	case "DEBUG", "1":
		debug = true
	}
	SetOutput(os.Stderr)
}

func level() hclog.Level {
	if debug {
		return hclog.Debug
	}
	return hclog.Info
}

// SetDebug enables or disables debug messages
func SetDebug(d bool) {
	mutex.Lock()
	defer mutex.Unlock()
	debug = d
	hclogger.SetLevel(level())
}

// IsDebug returns true if debug messages are enabled
func IsDebug() bool {
	mutex.Lock()
	defer mutex.Unlock()
	return debug
}

// SetOutput sets the output destination for the standard logger.
func SetOutput(w io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	hclogger = hclog.New(&hclog.LoggerOptions{
		Name:   "jobsub",
		Output: w,
		Level:  level(),
	})
	std = stdlog.New(hclogger.StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true}), "", 0)
}

func output(prefix, msg string) {
	mutex.Lock()
	l := std
	mutex.Unlock()
	l.Print(prefix + msg)
}

// Print calls Output to print to the standard logger.
// Arguments are handled in the manner of fmt.Print.
func Print(v ...interface{}) {
	output("[INFO] ", fmt.Sprint(v...))
}

// Printf calls Output to print to the standard logger.
// Arguments are handled in the manner of fmt.Printf.
func Printf(format string, v ...interface{}) {
	output("[INFO] ", fmt.Sprintf(format, v...))
}

// Warnf prints a warning message.
func Warnf(format string, v ...interface{}) {
	output("[WARN] ", fmt.Sprintf(format, v...))
}

// Errorf prints an error message.
func Errorf(format string, v ...interface{}) {
	output("[ERROR] ", fmt.Sprintf(format, v...))
}

// Fatal is equivalent to Print() followed by a call to os.Exit(1).
func Fatal(v ...interface{}) {
	output("[ERROR] ", fmt.Sprint(v...))
	os.Exit(1)
}

// Debug prints to the standard logger if debug is enabled.
// Arguments are handled in the manner of fmt.Print.
func Debug(v ...interface{}) {
	if IsDebug() {
		output("[DEBUG] ", fmt.Sprint(v...))
	}
}

// Debugf prints to the standard logger if debug is enabled.
// Arguments are handled in the manner of fmt.Printf.
func Debugf(format string, v ...interface{}) {
	if IsDebug() {
		output("[DEBUG] ", fmt.Sprintf(format, v...))
	}
}

// Debugln prints to the standard logger if debug is enabled.
// Arguments are handled in the manner of fmt.Println.
func Debugln(v ...interface{}) {
	if IsDebug() {
		output("[DEBUG] ", fmt.Sprintln(v...))
	}
}
