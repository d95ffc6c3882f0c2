package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/born-ml/fusedact/backend/cpu"
	"github.com/born-ml/fusedact/backend/webgpu"
	"github.com/born-ml/fusedact/nn"
	"github.com/born-ml/fusedact/tensor"
	"github.com/rs/zerolog/log"
	"github.com/x448/float16"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// benchConfig holds the bench subcommand flags.
type benchConfig struct {
	rows        int
	dim         int
	iters       int
	concurrency int
	dtype       tensor.DataType
	backend     string
	composed    bool
	verify      bool
	seed        int64
}

// benchResult summarizes one bench run.
type benchResult struct {
	kernel   string
	elapsed  time.Duration
	iters    int
	elements int
	maxDiff  float64 // max-norm distance fused vs composed; NaN when not verified
}

func runBench(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(w)

	var cfg benchConfig
	fs.IntVar(&cfg.rows, "rows", 512, "Number of rows N")
	fs.IntVar(&cfg.dim, "dim", 4096, "Output width D (input is N x 2D)")
	fs.IntVar(&cfg.iters, "iters", 100, "Iterations")
	fs.IntVar(&cfg.concurrency, "concurrency", 1, "Concurrent callers")
	dtypeName := fs.String("dtype", "float32", "Element type (float32, float64, float16)")
	fs.StringVar(&cfg.backend, "backend", "cpu", "Backend (cpu, webgpu)")
	fs.BoolVar(&cfg.composed, "composed", false, "Force the composed (un-fused) path")
	fs.BoolVar(&cfg.verify, "verify", false, "Compare fused and composed outputs")
	fs.Int64Var(&cfg.seed, "seed", 1, "Random seed for the input")
	enableOTel := fs.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := setLogLevel(*logLevel); err != nil {
		return err
	}
	dtype, ok := tensor.ParseDataType(*dtypeName)
	if !ok {
		return fmt.Errorf("unknown dtype %q", *dtypeName)
	}
	cfg.dtype = dtype
	if err := cfg.validate(); err != nil {
		return err
	}

	ctx := context.Background()
	if *enableOTel {
		shutdown, err := initTracer()
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("tracer shutdown")
			}
		}()
	}
	if *metricsAddr != "" {
		srv := startMetricsServer(*metricsAddr)
		defer srv.Close()
	}

	res, err := benchOnBackend(ctx, cfg)
	if err != nil {
		return err
	}
	printBenchResult(w, cfg, res)
	return nil
}

func (c benchConfig) validate() error {
	switch {
	case c.rows < 0 || c.dim < 0:
		return fmt.Errorf("rows and dim must be non-negative, got %d and %d", c.rows, c.dim)
	case c.iters <= 0:
		return fmt.Errorf("iters must be positive, got %d", c.iters)
	case c.concurrency <= 0:
		return fmt.Errorf("concurrency must be positive, got %d", c.concurrency)
	case c.backend != "cpu" && c.backend != "webgpu":
		return fmt.Errorf("unknown backend %q", c.backend)
	case c.backend == "webgpu" && c.dtype != tensor.Float32:
		return fmt.Errorf("webgpu backend supports float32 only, got %s", c.dtype)
	}
	return nil
}

// benchOnBackend instantiates the requested backend and element type.
func benchOnBackend(ctx context.Context, cfg benchConfig) (benchResult, error) {
	if cfg.backend == "webgpu" {
		gpu, err := webgpu.New()
		if err != nil {
			return benchResult{}, err
		}
		defer gpu.Release()
		return benchGated[float32](ctx, cfg, gpu)
	}

	backend := cpu.New()
	switch cfg.dtype {
	case tensor.Float64:
		return benchGated[float64](ctx, cfg, backend)
	case tensor.Float16:
		return benchGated[float16.Float16](ctx, cfg, backend)
	default:
		return benchGated[float32](ctx, cfg, backend)
	}
}

// benchGated runs cfg.iters forward passes split over cfg.concurrency
// goroutines, each writing into its own output buffer.
func benchGated[T tensor.DType, B tensor.Backend](ctx context.Context, cfg benchConfig, backend B) (benchResult, error) {
	tracer := otel.Tracer("fusedact-bench")
	ctx, span := tracer.Start(ctx, "bench")
	defer span.End()
	span.SetAttributes(
		attribute.String("backend", backend.Name()),
		attribute.String("dtype", cfg.dtype.String()),
		attribute.Int("rows", cfg.rows),
		attribute.Int("dim", cfg.dim),
		attribute.Bool("composed", cfg.composed),
	)

	var opts []nn.GatedOption
	if cfg.composed {
		opts = append(opts, nn.WithComposedOnly())
	}
	act := nn.NewSiluAndMul[T](backend, opts...)

	rng := rand.New(rand.NewSource(cfg.seed)) //nolint:gosec // G404: benchmark input
	x := tensor.Rand[T](tensor.Shape{cfg.rows, 2 * cfg.dim}, -4, 4, rng, backend)
	res := benchResult{
		kernel:   act.Kernel(x.Raw()).Name(),
		iters:    cfg.iters,
		elements: cfg.rows * cfg.dim,
		maxDiff:  math.NaN(),
	}

	log.Debug().
		Str("backend", backend.Name()).
		Str("kernel", res.kernel).
		Int("rows", cfg.rows).
		Int("dim", cfg.dim).
		Msg("bench starting")

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for worker := 0; worker < cfg.concurrency; worker++ {
		n := cfg.iters / cfg.concurrency
		if worker < cfg.iters%cfg.concurrency {
			n++
		}
		g.Go(func() error {
			out := tensor.Zeros[T](tensor.Shape{cfg.rows, cfg.dim}, backend)
			for i := 0; i < n; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				_, iterSpan := tracer.Start(gctx, "silu_and_mul")
				err := act.ForwardInto(out, x)
				endSpan(iterSpan, err)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return benchResult{}, err
	}
	res.elapsed = time.Since(start)

	if cfg.verify {
		diff, err := verifyGated(act, nn.NewSiluAndMul[T](backend, nn.WithComposedOnly()), x)
		if err != nil {
			return benchResult{}, err
		}
		res.maxDiff = diff
		span.SetAttributes(attribute.Float64("max_diff", diff))
	}

	return res, nil
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// verifyGated returns the max-norm distance between the outputs of two
// gated activations on x.
func verifyGated[T tensor.DType, B tensor.Backend](a, b *nn.SiluAndMul[T, B], x *tensor.Tensor[T, B]) (float64, error) {
	ya, err := a.Forward(x)
	if err != nil {
		return 0, err
	}
	yb, err := b.Forward(x)
	if err != nil {
		return 0, err
	}
	va, vb := rawToFloat64(ya.Raw()), rawToFloat64(yb.Raw())
	if len(va) == 0 {
		return 0, nil
	}
	return floats.Distance(va, vb, math.Inf(1)), nil
}

func printBenchResult(w io.Writer, cfg benchConfig, res benchResult) {
	perIter := res.elapsed / time.Duration(res.iters)
	throughput := float64(res.elements) * float64(res.iters) / res.elapsed.Seconds()

	fmt.Fprintf(w, "backend=%s dtype=%s kernel=%s shape=(%d, %d)->(%d, %d) concurrency=%d\n",
		cfg.backend, cfg.dtype, res.kernel, cfg.rows, 2*cfg.dim, cfg.rows, cfg.dim, cfg.concurrency)
	fmt.Fprintf(w, "iters=%d total=%s per_iter=%s throughput=%.3g elem/s\n",
		res.iters, res.elapsed.Round(time.Microsecond), perIter, throughput)
	if !math.IsNaN(res.maxDiff) {
		fmt.Fprintf(w, "verify: max |fused - composed| = %.3g\n", res.maxDiff)
	}
}

// fillFloat64 writes values into raw, converting to its dtype.
func fillFloat64(raw *tensor.RawTensor, values []float64) error {
	switch raw.DType() {
	case tensor.Float32:
		dst := raw.AsFloat32()
		for i, v := range values {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		copy(raw.AsFloat64(), values)
	case tensor.Float16:
		dst := raw.AsFloat16()
		for i, v := range values {
			dst[i] = float16.Fromfloat32(float32(v))
		}
	default:
		return fmt.Errorf("unsupported dtype %s", raw.DType())
	}
	return nil
}

// rawToFloat64 copies raw's elements into a float64 slice.
func rawToFloat64(raw *tensor.RawTensor) []float64 {
	out := make([]float64, raw.NumElements())
	switch raw.DType() {
	case tensor.Float32:
		for i, v := range raw.AsFloat32() {
			out[i] = float64(v)
		}
	case tensor.Float64:
		copy(out, raw.AsFloat64())
	case tensor.Float16:
		for i, v := range raw.AsFloat16() {
			out[i] = float64(v.Float32())
		}
	}
	return out
}
