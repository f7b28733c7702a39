package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sprout-ml/sprout/backend/cpu"
	"github.com/sprout-ml/sprout/backend/webgpu"
	"github.com/sprout-ml/sprout/data"
	"github.com/sprout-ml/sprout/nn"
	"github.com/sprout-ml/sprout/tensor"
)

var trainFlags struct {
	images  string
	labels  string
	pngDir  string
	pngSize int

	arch     string
	epochs   int
	lr       float64
	anneal   float64
	momentum float64
	decay    float64
	holdout  float64
	limit    int
	seed     int64
	gpu      bool
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a classifier on an IDX or PNG corpus",
	Long: `Train a classifier online, one sample per step.

Corpora:
  --images/--labels   paired IDX files (MNIST layout)
  --png-dir           a directory of class subdirectories of PNG files`,
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainFlags.images, "images", "", "IDX image file")
	f.StringVar(&trainFlags.labels, "labels", "", "IDX label file")
	f.StringVar(&trainFlags.pngDir, "png-dir", "", "directory of class subdirectories of PNGs")
	f.IntVar(&trainFlags.pngSize, "png-size", 28, "edge length PNG inputs are resized to")
	f.StringVar(&trainFlags.arch, "arch", "mlp", "network architecture (mlp, cnn)")
	f.IntVar(&trainFlags.epochs, "epochs", 5, "training epochs")
	f.Float64Var(&trainFlags.lr, "lr", 0.01, "learning rate")
	f.Float64Var(&trainFlags.anneal, "anneal", 0.1, "learning rate annealing per epoch")
	f.Float64Var(&trainFlags.momentum, "momentum", 0.9, "momentum")
	f.Float64Var(&trainFlags.decay, "decay", 0.0, "weight decay")
	f.Float64Var(&trainFlags.holdout, "holdout", 0.1, "fraction of samples held out for evaluation")
	f.IntVar(&trainFlags.limit, "limit", 0, "max samples to use (0 = all)")
	f.Int64Var(&trainFlags.seed, "seed", 1, "shuffle seed")
	f.BoolVar(&trainFlags.gpu, "gpu", false, "train on the GPU via WebGPU")
}

func runTrain(cmd *cobra.Command, args []string) error {
	set, err := loadCorpus()
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(trainFlags.seed))
	set.Shuffle(rng)
	if trainFlags.limit > 0 && trainFlags.limit < set.Len() {
		set.Samples = set.Samples[:trainFlags.limit]
	}
	eval, train := set.Split(trainFlags.holdout)

	inShape := train.Samples[0].Input.Dims()
	net, err := buildNetwork(trainFlags.arch, inShape, set.Classes)
	if err != nil {
		return err
	}
	slog.Info("network built",
		"arch", trainFlags.arch,
		"input", inShape.String(),
		"classes", set.Classes,
		"parameters", net.ParameterCount(),
		"train", train.Len(),
		"eval", eval.Len(),
	)

	h := nn.Hyper{
		LearningRate: float32(trainFlags.lr),
		AnnealRate:   float32(trainFlags.anneal),
		Momentum:     float32(trainFlags.momentum),
		Decay:        float32(trainFlags.decay),
	}

	step := func(in, want *tensor.Tensor, eh nn.Hyper) (float32, error) {
		return net.Train(in, want, eh), nil
	}
	var prog *webgpu.Program
	if trainFlags.gpu {
		if !webgpu.IsAvailable() {
			return fmt.Errorf("webgpu is not available on this system")
		}
		ctx, err := webgpu.NewContext()
		if err != nil {
			return err
		}
		defer ctx.Release()
		slog.Info("using GPU", "adapter", ctx.Name())

		prog, err = webgpu.Compile(ctx, net)
		if err != nil {
			return err
		}
		defer prog.Release()
		step = prog.Train
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Epoch", "Loss", "Accuracy", "LR", "Time"})

	for epoch := 0; epoch < trainFlags.epochs; epoch++ {
		eh := h.Annealed(epoch)
		start := time.Now()

		train.Shuffle(rng)
		var total float32
		for i := range train.Samples {
			loss, err := step(train.Samples[i].Input, train.Expected(i), eh)
			if err != nil {
				return fmt.Errorf("training step failed: %w", err)
			}
			total += loss
		}
		avg := total / float32(train.Len())

		// accuracy is measured on the host; on the GPU path the
		// program owns the weights, so sync before evaluating
		if prog != nil {
			if err := prog.SyncHost(); err != nil {
				return fmt.Errorf("syncing parameters to host: %w", err)
			}
		}
		acc := accuracy(net, eval)

		elapsed := time.Since(start).Round(time.Millisecond)
		slog.Info("epoch complete", "epoch", epoch+1, "loss", avg, "accuracy", acc)
		table.Append([]string{
			fmt.Sprintf("%d", epoch+1),
			fmt.Sprintf("%.4f", avg),
			fmt.Sprintf("%.2f%%", acc*100),
			fmt.Sprintf("%.5f", eh.LearningRate),
			elapsed.String(),
		})
	}

	table.Render()
	return nil
}

func loadCorpus() (*data.Set, error) {
	switch {
	case trainFlags.pngDir != "":
		set, classes, err := data.LoadPNGClasses(trainFlags.pngDir,
			tensor.D3(trainFlags.pngSize, trainFlags.pngSize, 1))
		if err != nil {
			return nil, err
		}
		slog.Info("loaded PNG corpus", "dir", trainFlags.pngDir, "classes", fmt.Sprint(classes))
		return set, nil
	case trainFlags.images != "" && trainFlags.labels != "":
		set, err := data.LoadIDX(trainFlags.images, trainFlags.labels)
		if err != nil {
			return nil, err
		}
		slog.Info("loaded IDX corpus", "images", trainFlags.images, "samples", set.Len())
		return set, nil
	}
	return nil, fmt.Errorf("no corpus: pass --images/--labels or --png-dir")
}

// buildNetwork assembles one of the stock architectures for the given
// input shape and class count.
func buildNetwork(arch string, in tensor.Dims, classes int) (*nn.Network, error) {
	out := nn.NewOutput(nn.Softmax, tensor.D1(classes))
	flat := tensor.D1(in.Volume())

	switch arch {
	case "mlp":
		hidden := tensor.D1(128)
		return nn.New(out,
			nn.NewReshape(in, flat),
			nn.NewDense(flat, hidden),
			nn.NewNonlinearity(nn.ReLU, hidden),
			nn.NewDense(hidden, tensor.D1(classes)),
		)
	case "cnn":
		convDims := tensor.D3(in.Width, in.Height, in.Depth)
		convW := cpu.CorrelateOutputDim(in.Width, 5, 1, 0)
		convH := cpu.CorrelateOutputDim(in.Height, 5, 1, 0)
		if convW < 2 || convH < 2 || convW%2 != 0 || convH%2 != 0 {
			return nil, fmt.Errorf("input %s does not fit the cnn architecture", in)
		}
		convOut := tensor.D3(convW, convH, 8)
		poolOut := tensor.D3(convW/2, convH/2, 8)
		pooledFlat := tensor.D1(poolOut.Volume())
		return nn.New(out,
			nn.NewReshape(in, convDims),
			nn.NewConv(convDims, 5, 5, 8, 1, 0),
			nn.NewNonlinearity(nn.ReLU, convOut),
			nn.NewMaxPool(convOut, poolOut),
			nn.NewReshape(poolOut, pooledFlat),
			nn.NewDense(pooledFlat, tensor.D1(classes)),
		)
	}
	return nil, fmt.Errorf("unknown architecture %q", arch)
}

// accuracy scores the network on a held-out set.
func accuracy(net *nn.Network, eval *data.Set) float64 {
	if eval.Len() == 0 {
		return 0
	}
	correct := 0
	for i := range eval.Samples {
		out := net.FeedForward(eval.Samples[i].Input)
		if cpu.Argmax(out) == eval.Samples[i].Label {
			correct++
		}
	}
	return float64(correct) / float64(eval.Len())
}
