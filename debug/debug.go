// Package debug exposes the debug build flag consulted across lpform
// components.
package debug

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Stack returns a cleaned up stack trace of the caller, excluding runtime and
// standard library frames.
func Stack() string {
	var sbb strings.Builder
	WriteStack(&sbb)
	return sbb.String()
}

// WriteStack appends a cleaned up stack trace of the caller to sbb.
func WriteStack(sbb *strings.Builder) {
	// derived from: https://golang.org/pkg/runtime/#example_Frames
	pc := make([]uintptr, 40)
	n := runtime.Callers(3, pc)
	if n == 0 {
		return
	}
	pc = pc[:n]
	frames := runtime.CallersFrames(pc)
	for {
		frame, more := frames.Next()
		fe := strings.Split(frame.Function, "/")
		function := fe[len(fe)-1]
		file := filepath.Base(frame.File)

		if strings.Contains(function, "runtime.gopanic") {
			continue
		}
		if strings.Contains(function, "testing.tRunner") {
			break
		}
		sbb.WriteString(function)
		sbb.WriteString("\n\t")
		sbb.WriteString(file)
		sbb.WriteString(":")
		sbb.WriteString(strconv.Itoa(frame.Line))
		sbb.WriteByte('\n')
		if !more {
			break
		}
	}
}
