package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/callebjorkell/jhd12864e/internal/lcd"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	buildTime    = "unknown"
	buildVersion = "dev"
)

type globalFlags struct {
	config string
	noInit bool
}

func RootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "jhd12864e",
		Short: "Drive a JHD12864E graphic LCD over GPIO",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Lookup("debug").Changed {
				log.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newInitCmd(flags))
	rootCmd.AddCommand(newDisplayCmd(flags, "on", "Turns the display output on", (*lcd.Dev).On))
	rootCmd.AddCommand(newDisplayCmd(flags, "off", "Turns the display output off, keeping its contents", (*lcd.Dev).Off))
	rootCmd.AddCommand(newDisplayCmd(flags, "clear", "Clears every pixel", (*lcd.Dev).Clear))
	rootCmd.AddCommand(newStatusCmd(flags))
	rootCmd.AddCommand(newStartCmd(flags))
	rootCmd.AddCommand(newWriteCmd(flags))
	rootCmd.AddCommand(newReadCmd(flags))
	rootCmd.AddCommand(newScrollCmd(flags))
	rootCmd.PersistentFlags().Bool("debug", false, "Turn on debug logging.")
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", defaultConfigFile, "Pin and timing configuration file.")
	rootCmd.PersistentFlags().BoolVar(&flags.noInit, "no-init", false, "Skip the reset sequence before running the command.")

	return rootCmd
}

// withDisplay opens the display, resets it unless --no-init was given, and runs fn.
func withDisplay(flags *globalFlags, fn func(d *lcd.Dev) error) error {
	conf, err := readConfig(flags.config)
	if err != nil {
		return err
	}
	d, err := openDisplay(conf)
	if err != nil {
		return err
	}
	if !flags.noInit {
		if err := d.Init(); err != nil {
			return err
		}
	}
	return fn(d)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s (built: %s)\n", buildVersion, buildTime)
		},
	}
}

func newInitCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Resets the display and leaves the left controller selected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDisplay(&globalFlags{config: flags.config}, func(d *lcd.Dev) error {
				log.Infof("%v initialized", d)
				return nil
			})
		},
	}
}

func newDisplayCmd(flags *globalFlags, use, short string, op func(*lcd.Dev) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDisplay(flags, op)
		},
	}
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var chip string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Reads the status of a controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseChip(chip)
			if err != nil {
				return err
			}
			return withDisplay(flags, func(d *lcd.Dev) error {
				if err := d.Select(c); err != nil {
					return err
				}
				s, err := d.Status()
				if err != nil {
					return err
				}
				fmt.Printf("%v: %v (0x%02x)\n", c, s, byte(s))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&chip, "chip", "left", "Controller to query, left or right.")
	return cmd
}

func newStartCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start <line>",
		Short: "Sets the display start line on both controllers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseRanged(args[0], "line", lcd.Height)
			if err != nil {
				return err
			}
			return withDisplay(flags, func(d *lcd.Dev) error {
				return setStartAll(d, line)
			})
		},
	}
}

func newWriteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "write <chip> <page> <column> <hex byte>...",
		Short: "Writes column strips, bit 0 topmost, starting at the given position",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, page, col, err := parsePosition(args[:3])
			if err != nil {
				return err
			}
			strips, err := parseStrips(args[3:])
			if err != nil {
				return err
			}
			return withDisplay(flags, func(d *lcd.Dev) error {
				if err := d.WriteAt(c, page, col, strips); err != nil {
					return err
				}
				log.Debugf("Wrote %d strips, now at %v", len(strips), d.Position())
				return nil
			})
		},
	}
}

func newReadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "read <chip> <page> <column> [count]",
		Short: "Reads column strips starting at the given position",
		Long: "Reads column strips starting at the given position. No dummy read is issued, so on " +
			"controllers that need one the first strip is stale.",
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, page, col, err := parsePosition(args[:3])
			if err != nil {
				return err
			}
			n := 1
			if len(args) == 4 {
				n, err = strconv.Atoi(args[3])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid count %q", args[3])
				}
			}
			return withDisplay(flags, func(d *lcd.Dev) error {
				strips, err := d.ReadAt(c, page, col, n)
				if err != nil {
					return err
				}
				hex := make([]string, len(strips))
				for i, b := range strips {
					hex[i] = fmt.Sprintf("%02x", b)
				}
				fmt.Println(strings.Join(hex, " "))
				return nil
			})
		},
	}
}

func newScrollCmd(flags *globalFlags) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "scroll",
		Short: "Scrolls the display vertically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}
			return withDisplay(flags, func(d *lcd.Dev) error {
				return runScroll(d, interval)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 50*time.Millisecond, "Time between scroll steps.")
	return cmd
}

func setStartAll(d *lcd.Dev, line uint8) error {
	for _, c := range []lcd.Chip{lcd.ChipLeft, lcd.ChipRight} {
		if err := d.Select(c); err != nil {
			return err
		}
		if err := d.SetStart(line); err != nil {
			return err
		}
	}
	return nil
}

func parseChip(s string) (lcd.Chip, error) {
	switch strings.ToLower(s) {
	case "left", "0":
		return lcd.ChipLeft, nil
	case "right", "1":
		return lcd.ChipRight, nil
	}
	return 0, fmt.Errorf("invalid chip %q, expected left or right", s)
}

// parseRanged parses a decimal value in [0, limit).
func parseRanged(s, what string, limit int) (uint8, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v >= limit {
		return 0, fmt.Errorf("invalid %s %q, expected 0-%d", what, s, limit-1)
	}
	return uint8(v), nil
}

func parsePosition(args []string) (lcd.Chip, uint8, uint8, error) {
	c, err := parseChip(args[0])
	if err != nil {
		return 0, 0, 0, err
	}
	page, err := parseRanged(args[1], "page", lcd.Pages)
	if err != nil {
		return 0, 0, 0, err
	}
	col, err := parseRanged(args[2], "column", lcd.PageWidth)
	if err != nil {
		return 0, 0, 0, err
	}
	return c, page, col, nil
}

func parseStrips(args []string) ([]byte, error) {
	strips := make([]byte, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(a), "0x"), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid strip %q, expected a hex byte", a)
		}
		strips[i] = byte(v)
	}
	return strips, nil
}
