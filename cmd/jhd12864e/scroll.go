package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/callebjorkell/jhd12864e/internal/lcd"
	"github.com/callebjorkell/jhd12864e/internal/queue"
	log "github.com/sirupsen/logrus"
)

// runScroll steps the start line until SIGINT or SIGTERM, then puts the display back at line 0.
func runScroll(d *lcd.Dev, interval time.Duration) error {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	var bus queue.Queue
	done := make(chan error, 1)
	hold := bus.Take()
	go func() {
		defer hold()
		done <- scroll(d, &bus, interval)
	}()

	select {
	case <-signalChan:
	case err := <-done:
		return err
	}

	log.Info("Stopping scroll...")
	next := bus.Take()
	defer next()
	if err := <-done; err != nil && !errors.Is(err, queue.ErrInterrupted) {
		return err
	}
	return setStartAll(d, 0)
}

// scroll runs while the caller holds the bus, returning queue.ErrInterrupted once someone else
// queues for it.
func scroll(d *lcd.Dev, bus *queue.Queue, interval time.Duration) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for line := 0; ; line = (line + 1) % lcd.Height {
		if bus.IsInterrupted() {
			log.Debug("Scroll interrupted.")
			return queue.ErrInterrupted
		}
		if err := setStartAll(d, uint8(line)); err != nil {
			return err
		}
		<-tick.C
	}
}
