// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package terminal

import (
	"fmt"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

// Frames are the braille spinner frames used for long running work.
var Frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StartActivity shows a spinner with text after delay has passed, so quick
// statements never flash one. The returned function removes the spinner and
// blocks until it is gone; it is safe to call more than once.
func StartActivity(text string, delay time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-stop:
			return
		case <-time.After(delay):
		}

		area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
		if err != nil {
			return
		}
		cursor.Hide()
		defer func() {
			_ = area.Stop()
			cursor.Show()
		}()

		started := time.Now()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		for i := 0; ; i++ {
			area.Update(fmt.Sprintf("%s %s (%.1fs)", Frames[i%len(Frames)], text, time.Since(started).Seconds()+delay.Seconds()))
			select {
			case <-stop:
				return
			case <-t.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
		wg.Wait()
	}
}
