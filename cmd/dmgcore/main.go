// Package main provides the dmgcore CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/emulator"
	"github.com/richardwooding/dmgcore/internal/log"
	"github.com/richardwooding/dmgcore/internal/ppu"
	"github.com/richardwooding/dmgcore/internal/testrom"
	"github.com/richardwooding/dmgcore/internal/video"
)

var (
	// ErrTestFailed indicates a test ROM failed.
	ErrTestFailed = errors.New("test failed")

	// ErrScaleRange indicates a scale factor outside the range the CLI accepts.
	ErrScaleRange = errors.New("scale must be between 1 and 10")
)

// Globals holds the flags shared by every command.
type Globals struct {
	Config   kong.ConfigFlag `help:"JSON configuration file." placeholder:"FILE"`
	LogLevel string          `help:"Log level (debug, info, warn, error)." default:"warn" env:"DMGCORE_LOG_LEVEL"`
	BootROM  string          `help:"Path to a 256-byte boot ROM image." type:"path" env:"DMGCORE_BOOT_ROM"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

// CLI represents the command-line interface structure.
type CLI struct {
	Globals

	Info    InfoCmd    `cmd:"" help:"Display cartridge information."`
	Run     RunCmd     `cmd:"" help:"Run a ROM in a window."`
	Test    TestCmd    `cmd:"" help:"Run a test ROM and report results."`
	Capture CaptureCmd `cmd:"" help:"Run a ROM headless and save the last frame as PNG."`
}

func (g *Globals) logger() (log.Logger, error) {
	level, err := log.ParseLevel(g.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.New(g.Stderr, level), nil
}

// options builds the emulator options from the global flags.
func (g *Globals) options() ([]emulator.Option, error) {
	logger, err := g.logger()
	if err != nil {
		return nil, err
	}
	opts := []emulator.Option{emulator.WithLogger(logger)}

	if g.BootROM != "" {
		// #nosec G304 - path is provided by the user via CLI flag
		boot, err := os.ReadFile(g.BootROM)
		if err != nil {
			return nil, fmt.Errorf("failed to read boot ROM: %w", err)
		}
		opts = append(opts, emulator.WithBootROM(boot))
	}
	return opts, nil
}

// InfoCmd displays cartridge header information.
type InfoCmd struct {
	ROM string `arg:"" type:"existingfile" help:"Path to ROM file."`
}

// Run executes the info command.
func (c *InfoCmd) Run(g *Globals) error {
	data, err := cartridge.LoadFile(c.ROM)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	cart, err := cartridge.New(data, nil)
	if err != nil {
		return fmt.Errorf("failed to load cartridge: %w", err)
	}

	header := cart.Header()
	fmt.Fprintf(g.Stdout, "ROM Information:\n")
	fmt.Fprintf(g.Stdout, "  Title:          %s\n", header.Title)
	fmt.Fprintf(g.Stdout, "  Cartridge Type: %s (0x%02X)\n", header.Type, byte(header.Type))
	fmt.Fprintf(g.Stdout, "  ROM Size:       %d KiB (image %d KiB)\n", header.ROMSizeBytes()/1024, len(data)/1024)
	fmt.Fprintf(g.Stdout, "  CGB Flag:       0x%02X\n", header.CGBFlag)
	fmt.Fprintf(g.Stdout, "  SGB Flag:       0x%02X\n", header.SGBFlag)
	fmt.Fprintf(g.Stdout, "  Checksum:       0x%02X (valid: %v)\n", header.Checksum, header.ChecksumValid)

	return nil
}

// RunCmd runs a ROM in a window.
type RunCmd struct {
	ROM   string            `arg:"" type:"existingfile" help:"Path to ROM file."`
	Scale int               `help:"Display scale factor (1-10)." default:"3"`
	Keys  map[string]string `help:"Key bindings as button=key pairs, e.g. a=J;b=K." placeholder:"BUTTON=KEY;..."`
}

// Run executes the run command.
func (c *RunCmd) Run(g *Globals) error {
	if c.Scale < 1 || c.Scale > 10 {
		return fmt.Errorf("%w: got %d", ErrScaleRange, c.Scale)
	}

	keys, err := keyBindings(c.Keys)
	if err != nil {
		return err
	}

	data, err := cartridge.LoadFile(c.ROM)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	opts, err := g.options()
	if err != nil {
		return err
	}

	display := NewDisplay(keys)
	emu, err := emulator.New(data, append(opts, emulator.WithPresenter(display))...)
	if err != nil {
		return fmt.Errorf("failed to create emulator: %w", err)
	}
	display.Attach(emu)

	ebiten.SetWindowTitle("dmgcore - " + emu.Cart.Header().Title)
	ebiten.SetWindowSize(ppu.ScreenWidth*c.Scale, ppu.ScreenHeight*c.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(display); err != nil {
		return fmt.Errorf("emulator error: %w", err)
	}

	return nil
}

// TestCmd runs a test ROM and reports results.
type TestCmd struct {
	ROM     string        `arg:"" type:"existingfile" help:"Path to test ROM file."`
	Timeout time.Duration `default:"30s" help:"Time allowed without new serial output."`
	Verbose bool          `short:"v" help:"Show detailed output."`
}

// Run executes the test command.
func (c *TestCmd) Run(g *Globals) error {
	opts, err := g.options()
	if err != nil {
		return err
	}

	fmt.Fprintf(g.Stdout, "Running test ROM: %s\n", c.ROM)

	result := testrom.Run(c.ROM, c.Timeout, opts...)

	fmt.Fprintf(g.Stdout, "Result: %s (%d frames)\n", result, result.Frames)

	if c.Verbose || !result.IsSuccess() {
		fmt.Fprintf(g.Stdout, "\nOutput:\n%s\n", result.Output)
	}

	if !result.IsSuccess() {
		return ErrTestFailed
	}

	return nil
}

// CaptureCmd runs a ROM without a window and writes the final frame.
type CaptureCmd struct {
	ROM    string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Output string `short:"o" help:"PNG file to write." default:"frame.png" type:"path"`
	Frames int    `help:"Number of frames to run." default:"60"`
	Scale  int    `help:"Image scale factor (1-10)." default:"1"`
}

// Run executes the capture command.
func (c *CaptureCmd) Run(g *Globals) error {
	if c.Scale < 1 || c.Scale > 10 {
		return fmt.Errorf("%w: got %d", ErrScaleRange, c.Scale)
	}

	data, err := cartridge.LoadFile(c.ROM)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	opts, err := g.options()
	if err != nil {
		return err
	}

	emu, err := emulator.New(data, opts...)
	if err != nil {
		return fmt.Errorf("failed to create emulator: %w", err)
	}

	for i := 0; i < c.Frames; i++ {
		if err := emu.RunFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}

	return writeCapture(g.Stdout, c.Output, emu.Frame(), c.Scale)
}

func writeCapture(stdout io.Writer, path string, frame *video.Frame, scale int) error {
	// #nosec G304 - path is provided by the user via CLI flag
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := video.WritePNG(f, frame, scale); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s %016x\n", path, frame.Digest())
	return nil
}

func newParser(cli *CLI) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("dmgcore"),
		kong.Description("A cycle-stepped DMG handheld emulator core."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.config/dmgcore.json"),
		kong.Bind(&cli.Globals),
	)
}

func main() {
	cli := &CLI{Globals: Globals{Stdout: os.Stdout, Stderr: os.Stderr}}
	parser, err := newParser(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
