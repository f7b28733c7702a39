package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sprout-ml/sprout/backend/webgpu"
	"github.com/sprout-ml/sprout/data"
	"github.com/sprout-ml/sprout/nn"
	"github.com/sprout-ml/sprout/tensor"
)

var benchFlags struct {
	arch    string
	size    int
	classes int
	steps   int
	gpu     bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark training steps on synthetic data",
	Long: `Run timed training steps against random inputs and report throughput
for the host backend, and for the GPU when requested. The GPU run also
cross-checks its output against the host to catch divergence.`,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVar(&benchFlags.arch, "arch", "mlp", "network architecture (mlp, cnn)")
	f.IntVar(&benchFlags.size, "size", 28, "synthetic input edge length")
	f.IntVar(&benchFlags.classes, "classes", 10, "synthetic class count")
	f.IntVar(&benchFlags.steps, "steps", 200, "training steps per backend")
	f.BoolVar(&benchFlags.gpu, "gpu", false, "also benchmark the WebGPU backend")
}

func runBench(cmd *cobra.Command, args []string) error {
	in := tensor.D2(benchFlags.size, benchFlags.size)
	net, err := buildNetwork(benchFlags.arch, in, benchFlags.classes)
	if err != nil {
		return err
	}
	slog.Info("benchmarking", "arch", benchFlags.arch,
		"parameters", net.ParameterCount(), "steps", benchFlags.steps)

	rng := rand.New(rand.NewSource(42))
	inputs := make([]*tensor.Tensor, 16)
	targets := make([]*tensor.Tensor, 16)
	for i := range inputs {
		t := tensor.New(in)
		for j := range t.Data() {
			t.Data()[j] = rng.Float32()
		}
		inputs[i] = t
		targets[i] = data.OneHot(rng.Intn(benchFlags.classes), benchFlags.classes, 0, 1)
	}
	h := nn.Hyper{LearningRate: 0.01, Momentum: 0.9}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Backend", "Steps", "Total", "Steps/sec"})

	hostStart := time.Now()
	for i := 0; i < benchFlags.steps; i++ {
		net.Train(inputs[i%len(inputs)], targets[i%len(targets)], h)
	}
	hostTotal := time.Since(hostStart)
	table.Append(benchRow("cpu", benchFlags.steps, hostTotal))

	if benchFlags.gpu {
		if !webgpu.IsAvailable() {
			return fmt.Errorf("webgpu is not available on this system")
		}
		ctx, err := webgpu.NewContext()
		if err != nil {
			return err
		}
		defer ctx.Release()
		slog.Info("using GPU", "adapter", ctx.Name())

		// fresh network so both backends start from a comparable state
		gpuNet, err := buildNetwork(benchFlags.arch, in, benchFlags.classes)
		if err != nil {
			return err
		}
		prog, err := webgpu.Compile(ctx, gpuNet)
		if err != nil {
			return err
		}
		defer prog.Release()

		// parity check before timing: same weights, same input
		hostOut := gpuNet.FeedForward(inputs[0])
		gpuOut, err := prog.Forward(inputs[0])
		if err != nil {
			return err
		}
		if d := maxDelta(hostOut.Data(), gpuOut.Data()); d > 1e-3 {
			return fmt.Errorf("backend divergence: max output delta %g", d)
		}

		gpuStart := time.Now()
		for i := 0; i < benchFlags.steps; i++ {
			if _, err := prog.Train(inputs[i%len(inputs)], targets[i%len(targets)], h); err != nil {
				return fmt.Errorf("gpu step failed: %w", err)
			}
		}
		gpuTotal := time.Since(gpuStart)
		table.Append(benchRow(ctx.Name(), benchFlags.steps, gpuTotal))
	}

	table.Render()
	return nil
}

func benchRow(backend string, steps int, total time.Duration) []string {
	perSec := float64(steps) / total.Seconds()
	return []string{
		backend,
		fmt.Sprintf("%d", steps),
		total.Round(time.Millisecond).String(),
		fmt.Sprintf("%.1f", perSec),
	}
}

func maxDelta(a, b []float32) float64 {
	var max float64
	for i := range a {
		d := float64(a[i] - b[i])
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}
