package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/callebjorkell/jhd12864e/internal/lcd"
	"github.com/callebjorkell/jhd12864e/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	c, page, col, err := parsePosition([]string{"right", "7", "63"})
	require.NoError(t, err)
	assert.Equal(t, lcd.ChipRight, c)
	assert.Equal(t, uint8(7), page)
	assert.Equal(t, uint8(63), col)

	_, _, _, err = parsePosition([]string{"middle", "0", "0"})
	assert.Error(t, err)
	_, _, _, err = parsePosition([]string{"left", "8", "0"})
	assert.EqualError(t, err, `invalid page "8", expected 0-7`)
	_, _, _, err = parsePosition([]string{"0", "0", "64"})
	assert.EqualError(t, err, `invalid column "64", expected 0-63`)
}

func TestParseStrips(t *testing.T) {
	strips, err := parseStrips([]string{"0x00", "ff", "0A"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xFF, 0x0A}, strips)

	_, err = parseStrips([]string{"100"})
	assert.Error(t, err)
}

func openTestDisplay(t *testing.T) *lcd.Dev {
	d, err := openDisplay(defaultConfig())
	require.NoError(t, err)
	require.NoError(t, d.Init())
	return d
}

func TestScrollStopsWhenInterrupted(t *testing.T) {
	d := openTestDisplay(t)

	var bus queue.Queue
	hold := bus.Take()
	done := make(chan error, 1)
	go func() {
		defer hold()
		done <- scroll(d, &bus, time.Millisecond)
	}()

	time.Sleep(10 * time.Millisecond)
	next := bus.Take()
	defer next()

	assert.ErrorIs(t, <-done, queue.ErrInterrupted)
	require.NoError(t, setStartAll(d, 0))
}

func TestCommands(t *testing.T) {
	config := filepath.Join(t.TempDir(), "missing.yaml")
	for _, args := range [][]string{
		{"init"},
		{"on"},
		{"clear"},
		{"status", "--chip", "right"},
		{"start", "12"},
		{"write", "left", "3", "10", "ff", "81"},
		{"read", "left", "3", "10", "2"},
		{"off", "--no-init"},
	} {
		t.Run(args[0], func(t *testing.T) {
			cmd := RootCmd()
			cmd.SetArgs(append(args, "--config", config))
			assert.NoError(t, cmd.Execute())
		})
	}

	cmd := RootCmd()
	cmd.SetArgs([]string{"start", "64", "--config", config})
	assert.Error(t, cmd.Execute())
}
