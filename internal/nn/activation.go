package nn

import (
	"fmt"

	"github.com/sprout-ml/sprout/internal/backend/cpu"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// Activation identifies an element-wise nonlinearity. Softmax is only
// valid as an output activation paired with cross-entropy, where its
// derivative cancels out of the delta.
type Activation int

const (
	Linear Activation = iota
	ReLU
	Sigmoid
	Tanh
	Softmax
)

func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	case Softmax:
		return "softmax"
	}
	return fmt.Sprintf("activation(%d)", int(a))
}

// apply writes a(src) into dst. dst and src may alias.
func (a Activation) apply(dst, src []float32) {
	switch a {
	case Linear:
		copy(dst, src)
	case ReLU:
		cpu.Relu(dst, src)
	case Sigmoid:
		cpu.Sigmoid(dst, src)
	case Tanh:
		cpu.TanhOf(dst, src)
	case Softmax:
		cpu.Softmax(dst, src)
	default:
		panic(fmt.Sprintf("nn: unknown activation %v", a))
	}
}

// derivOnOutput writes a'(x) into dst given y = a(x). Every supported
// activation has a derivative expressible in terms of its own output,
// which is what lets the backward pass avoid caching pre-activations.
// Softmax panics: its Jacobian is not element-wise and is never needed,
// because the output delta folds it into the cross-entropy gradient.
func (a Activation) derivOnOutput(dst, y []float32) {
	switch a {
	case Linear:
		for i := range dst {
			dst[i] = 1
		}
	case ReLU:
		cpu.ReluDeriv(dst, y)
	case Sigmoid:
		cpu.SigmoidDeriv(dst, y)
	case Tanh:
		cpu.TanhDeriv(dst, y)
	case Softmax:
		panic("nn: softmax has no element-wise derivative; use it only as an output activation")
	default:
		panic(fmt.Sprintf("nn: unknown activation %v", a))
	}
}

// Nonlinearity applies an activation element-wise. It carries no
// trainable parameters and preserves the input shape.
type Nonlinearity struct {
	act  Activation
	dims tensor.Dims
}

// NewNonlinearity returns a shape-preserving activation layer.
func NewNonlinearity(act Activation, dims tensor.Dims) *Nonlinearity {
	if act == Softmax {
		panic("nn: softmax belongs in the output policy, not a hidden layer")
	}
	if err := dims.Validate(); err != nil {
		panic(fmt.Sprintf("nn: %v", err))
	}
	return &Nonlinearity{act: act, dims: dims}
}

// Kind returns the activation this layer applies.
func (n *Nonlinearity) Kind() Activation { return n.act }

func (n *Nonlinearity) InputShape() tensor.Dims  { return n.dims }
func (n *Nonlinearity) OutputShape() tensor.Dims { return n.dims }
func (n *Nonlinearity) ParameterCount() int      { return 0 }

func (n *Nonlinearity) Forward(input *tensor.Tensor) *tensor.Tensor {
	checkShape("nonlinearity input", input.Dims(), n.dims)
	out := tensor.New(n.dims)
	n.act.apply(out.Data(), input.Data())
	return out
}

// BackwardAndUpdate recomputes the forward output to evaluate the
// derivative on it, then scales the incoming gradient element-wise.
func (n *Nonlinearity) BackwardAndUpdate(input, grad *tensor.Tensor, _ Hyper) *tensor.Tensor {
	checkShape("nonlinearity input", input.Dims(), n.dims)
	checkShape("nonlinearity gradient", grad.Dims(), n.dims)
	if n.act == Linear {
		return grad.Clone()
	}
	out := tensor.New(n.dims)
	n.act.apply(out.Data(), input.Data())
	n.act.derivOnOutput(out.Data(), out.Data())
	cpu.Mul(out.Data(), grad.Data())
	return out
}

func checkShape(what string, got, want tensor.Dims) {
	if !got.Equal(want) {
		panic(fmt.Sprintf("nn: %s shape %v does not match %v", what, got, want))
	}
}
