// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

// startInlineSpinner animates frames followed by text on the current line of w
// until the returned function is called. Stopping clears the line and is
// safe to call more than once.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	if len(text) > 200 {
		text = text[:200]
	}
	stop := make(chan struct{})
	var (
		wg   sync.WaitGroup
		once sync.Once
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}
