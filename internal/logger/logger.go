// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
//
// Package logger wraps the standard log package with file output and a
// subscriber fan-out, so the (out-of-scope) transport layer can stream log
// lines to operators without polling. Grounded in the teacher's
// internal/logger package; generalized to a constructor that does not rely
// on a package-level singleton, since this module is imported by multiple
// independently-testable packages.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Logger wraps the standard log package with file output and broadcasting.
type Logger struct {
	file        *os.File
	logger      *log.Logger
	broadcast   chan string
	subscribers map[chan string]bool
	subMu       sync.RWMutex
	mu          sync.RWMutex
	closed      bool
}

// New creates a Logger writing to both stdout and logFile. If logFile is
// empty, it logs to stdout only.
func New(logFile string) (*Logger, error) {
	var out io.Writer = os.Stdout
	var file *os.File

	if logFile != "" {
		var err error
		file, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	l := &Logger{
		file:        file,
		logger:      log.New(out, "", log.LstdFlags|log.Lshortfile),
		broadcast:   make(chan string, 100),
		subscribers: make(map[chan string]bool),
	}
	go l.broadcastLoop()
	return l, nil
}

// Subscribe registers a new channel that receives every subsequent log
// line. The caller must Unsubscribe when done.
func (l *Logger) Subscribe() chan string {
	ch := make(chan string, 10)
	l.subMu.Lock()
	l.subscribers[ch] = true
	l.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel previously returned by Subscribe.
func (l *Logger) Unsubscribe(ch chan string) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if l.subscribers[ch] {
		delete(l.subscribers, ch)
		close(ch)
	}
}

func (l *Logger) broadcastLoop() {
	defer func() {
		l.subMu.Lock()
		for ch := range l.subscribers {
			close(ch)
		}
		l.subscribers = make(map[chan string]bool)
		l.subMu.Unlock()
	}()

	for line := range l.broadcast {
		l.subMu.RLock()
		subs := make([]chan string, 0, len(l.subscribers))
		for ch := range l.subscribers {
			subs = append(subs, ch)
		}
		l.subMu.RUnlock()

		for _, ch := range subs {
			select {
			case ch <- line:
			default:
				// subscriber too slow, drop this line for it
			}
		}
	}
}

func (l *Logger) logMessage(level, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	msg := fmt.Sprintf(format, v...)
	line := fmt.Sprintf("[%s] [%s] %s", time.Now().UTC().Format(time.RFC3339), level, msg)

	if l.logger != nil {
		l.logger.Output(3, line)
	}

	select {
	case l.broadcast <- line:
	default:
	}
}

func (l *Logger) Printf(format string, v ...interface{}) { l.logMessage("INFO", format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.logMessage("WARN", format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.logMessage("ERROR", format, v...) }
func (l *Logger) Debugf(format string, v ...interface{}) { l.logMessage("DEBUG", format, v...) }

// Close stops the broadcaster and closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.broadcast)
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
