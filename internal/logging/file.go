package logging

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingFile returns a writer that appends to path and rotates it once it
// grows past maxMB megabytes, keeping the given number of backups.
func RotatingFile(path string, maxMB, backups int) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxMB,
		MaxBackups: backups,
		Compress:   true,
	}
}
