// Package main provides the fusedact CLI: activation lookup and gated
// activation benchmarks.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/born-ml/fusedact/backend/cpu"
	"github.com/born-ml/fusedact/backend/webgpu"
	"github.com/born-ml/fusedact/nn"
	"github.com/born-ml/fusedact/tensor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "v0.1.0-dev"

var errUsage = errors.New("usage")

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("fusedact failed")
	}
}

// run dispatches a subcommand. Output goes to w; logs go to the global logger.
func run(args []string, w io.Writer) error {
	if len(args) == 0 {
		printUsage(w)
		return errUsage
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(w, "fusedact %s (%s)\n", version, runtime.Version())
		return nil
	case "info":
		return runInfo(w)
	case "activations":
		return runActivations(w)
	case "resolve":
		return runResolve(args[1:], w)
	case "bench":
		return runBench(args[1:], w)
	case "help", "-h", "--help":
		printUsage(w)
		return nil
	default:
		printUsage(w)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "fusedact %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version                 Show version")
	fmt.Fprintln(w, "  info                    Show backends and CPU features")
	fmt.Fprintln(w, "  activations             List recognized activation names")
	fmt.Fprintln(w, "  resolve <name> [x...]   Resolve an activation and apply it to x")
	fmt.Fprintln(w, "  bench [flags]           Benchmark the gated SiLU-and-multiply kernel")
}

// setLogLevel parses a zerolog level name and applies it globally.
func setLogLevel(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func runInfo(w io.Writer) error {
	backend := cpu.New()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "version\t%s\n", version)
	fmt.Fprintf(tw, "go\t%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(tw, "cpu backend\t%s, %d threads\n", backend.Name(), runtime.NumCPU())
	fmt.Fprintf(tw, "cpu features\t%s\n", strings.Join(backend.Features(), " "))
	fmt.Fprintf(tw, "fused dtypes (cpu)\t%s\n", strings.Join(fusedDTypes(backend, tensor.CPU), " "))
	fmt.Fprintf(tw, "webgpu\t%s\n", availability(webgpu.IsAvailable()))
	return tw.Flush()
}

func fusedDTypes(b tensor.FusedSiLUAndMulBackend, device tensor.Device) []string {
	var names []string
	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float64, tensor.Float16} {
		if b.SupportsSiLUAndMul(dt, device) {
			names = append(names, dt.String())
		}
	}
	return names
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "not available"
}

func runActivations(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND")
	for _, name := range nn.Names() {
		act, err := nn.Resolve(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, act.Kind())
	}
	return tw.Flush()
}

func runResolve(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(w)
	dtypeName := fs.String("dtype", "float64", "Element type (float32, float64, float16)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: resolve <name> [x...]", errUsage)
	}

	act, err := nn.Resolve(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s -> %s\n", fs.Arg(0), act)

	values := make([]float64, 0, fs.NArg()-1)
	for _, s := range fs.Args()[1:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", s, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil
	}

	dtype, ok := tensor.ParseDataType(*dtypeName)
	if !ok {
		return fmt.Errorf("unknown dtype %q", *dtypeName)
	}

	raw, err := tensor.NewRaw(tensor.Shape{len(values)}, dtype, tensor.CPU)
	if err != nil {
		return err
	}
	if err := fillFloat64(raw, values); err != nil {
		return err
	}

	out, err := act.ApplyRaw(cpu.New(), raw)
	if err != nil {
		return err
	}
	for i, y := range rawToFloat64(out) {
		fmt.Fprintf(w, "%s(%g) = %.9g\n", act, values[i], y)
	}
	return nil
}
