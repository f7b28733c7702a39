package webgpu

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/sprout-ml/sprout/internal/nn"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// pass is one encoded compute dispatch: a pipeline, its bindings, and
// the workgroup grid.
type pass struct {
	pipeline  *wgpu.ComputePipeline
	bindGroup *wgpu.BindGroup
	counts    [3]uint32
}

// mirror ties a device parameter buffer back to the host slices it was
// uploaded from, in order, so SyncHost can split a packed buffer.
type mirror struct {
	buf  *wgpu.Buffer
	size uint64
	dst  [][]float32
}

// Program is a network compiled for one device. Parameters and
// optimizer state live in resident buffers; every Forward or Train
// call is a single command submission followed by one blocking
// readback of the output vector.
//
// A Program holds references into the network's layers: after device
// steps, SyncHost copies the trained parameters back into them.
type Program struct {
	ctx *Context
	net *nn.Network

	// acts[i] is the boundary buffer feeding layer i; the last entry
	// is the raw pre-activation output. Reshape and identity layers
	// alias their neighbor instead of allocating.
	acts   []*wgpu.Buffer
	grads  []*wgpu.Buffer
	actOut *wgpu.Buffer

	expected *wgpu.Buffer
	hyper    *wgpu.Buffer

	forward  []pass
	backward []pass

	mirrors []mirror

	owned      []*wgpu.Buffer
	bindGroups []*wgpu.BindGroup
}

// Compile lowers every layer of net into device pipelines and uploads
// the current parameters. The network must only contain the built-in
// layer types.
func Compile(ctx *Context, net *nn.Network) (*Program, error) {
	p := &Program{ctx: ctx, net: net}

	layers := net.Layers()
	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

	// Boundary activation buffers. Shape adapters and identity
	// activations alias instead of copying.
	p.acts = make([]*wgpu.Buffer, len(layers)+1)
	p.acts[0] = p.newBuffer(uint64(net.InputShape().Volume())*4, storage)
	for i, l := range layers {
		if passesThrough(l) {
			p.acts[i+1] = p.acts[i]
			continue
		}
		p.acts[i+1] = p.newBuffer(uint64(l.OutputShape().Volume())*4, storage)
	}

	p.grads = make([]*wgpu.Buffer, len(layers)+1)
	p.grads[len(layers)] = p.newBuffer(uint64(net.OutputShape().Volume())*4, storage)
	for i := len(layers) - 1; i >= 0; i-- {
		if passesThrough(layers[i]) {
			p.grads[i] = p.grads[i+1]
			continue
		}
		p.grads[i] = p.newBuffer(uint64(layers[i].InputShape().Volume())*4, storage)
	}

	outVol := net.OutputShape().Volume()
	p.expected = p.newBuffer(uint64(outVol)*4, storage)

	var hyperInit paramPacker
	hyperInit.f32(0)
	hyperInit.f32(0)
	hyperInit.f32(0)
	p.hyper = p.ctx.createUniformBuffer(hyperInit.bytes())
	p.owned = append(p.owned, p.hyper)

	// Lower the stack. Backward passes for layer i are collected and
	// appended in reverse layer order after the delta pass.
	backward := make([][]pass, len(layers))
	for i, l := range layers {
		var err error
		switch layer := l.(type) {
		case *nn.Dense:
			err = p.compileDense(i, layer)
		case *nn.Conv:
			err = p.compileConv(i, layer)
		case *nn.MaxPool:
			p.compilePool(i, layer)
		case *nn.Nonlinearity:
			p.compileNonlinearity(i, layer)
		case *nn.Reshape:
			// pure aliasing, nothing to dispatch
		default:
			err = fmt.Errorf("webgpu: cannot compile layer %d (%T)", i, l)
		}
		if err != nil {
			p.Release()
			return nil, err
		}
		backward[i] = p.takeBackward()
	}

	p.compileOutput(outVol)
	for i := len(layers) - 1; i >= 0; i-- {
		p.backward = append(p.backward, backward[i]...)
	}

	return p, nil
}

// takeBackward drains the backward passes the current layer appended,
// so Compile can re-emit them in reverse layer order.
func (p *Program) takeBackward() []pass {
	tail := p.backward
	p.backward = nil
	return tail
}

func passesThrough(l nn.Layer) bool {
	switch layer := l.(type) {
	case *nn.Reshape:
		return true
	case *nn.Nonlinearity:
		return layer.Kind() == nn.Linear
	}
	return false
}

func (p *Program) newBuffer(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	buf := p.ctx.createEmptyBuffer(size, usage)
	p.owned = append(p.owned, buf)
	return buf
}

func (p *Program) uploadBuffer(data []float32, usage wgpu.BufferUsage) *wgpu.Buffer {
	buf := p.ctx.createBuffer(floatBytes(data), usage)
	p.owned = append(p.owned, buf)
	return buf
}

func (p *Program) uniform(pk *paramPacker) *wgpu.Buffer {
	buf := p.ctx.createUniformBuffer(pk.bytes())
	p.owned = append(p.owned, buf)
	return buf
}

func (p *Program) bindGroup(pipeline *wgpu.ComputePipeline, entries []wgpu.BindGroupEntry) *wgpu.BindGroup {
	layout := pipeline.GetBindGroupLayout(0)
	bg := p.ctx.device.CreateBindGroupSimple(layout, entries)
	p.bindGroups = append(p.bindGroups, bg)
	return bg
}

func bufEntry(binding uint32, buf *wgpu.Buffer, floats int) wgpu.BindGroupEntry {
	return wgpu.BufferBindingEntry(binding, buf, 0, uint64(floats)*4)
}

func (p *Program) compileDense(i int, layer *nn.Dense) error {
	n := layer.InputShape().Volume()
	m := layer.OutputShape().Volume()
	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

	weights := p.uploadBuffer(layer.Weights().Data(), storage)
	velocity := p.uploadBuffer(layer.State().Velocity(), storage)
	p.mirrors = append(p.mirrors,
		mirror{buf: weights, size: uint64((n + 1) * m * 4), dst: [][]float32{layer.Weights().Data()}},
		mirror{buf: velocity, size: uint64((n + 1) * m * 4), dst: [][]float32{layer.State().Velocity()}},
	)

	var dims paramPacker
	dims.u32(uint32(n))
	dims.u32(uint32(m))
	dimsBuf := p.uniform(&dims)

	fwdWG := linearShape(m)
	fwd := p.ctx.pipeline(
		fmt.Sprintf("dense_forward_wg%d", fwdWG[0]),
		denseForwardWGSL(fwdWG),
	)
	p.forward = append(p.forward, pass{
		pipeline: fwd,
		bindGroup: p.bindGroup(fwd, []wgpu.BindGroupEntry{
			bufEntry(0, p.acts[i], n),
			bufEntry(1, weights, (n+1)*m),
			bufEntry(2, p.acts[i+1], m),
			wgpu.BufferBindingEntry(3, dimsBuf, 0, 16),
		}),
		counts: dispatchCounts(tensor.D1(m), fwdWG),
	})

	gradWG := linearShape(n)
	inputGrad := p.ctx.pipeline(
		fmt.Sprintf("dense_input_grad_wg%d", gradWG[0]),
		denseInputGradWGSL(gradWG),
	)
	p.backward = append(p.backward, pass{
		pipeline: inputGrad,
		bindGroup: p.bindGroup(inputGrad, []wgpu.BindGroupEntry{
			bufEntry(0, p.grads[i+1], m),
			bufEntry(1, weights, (n+1)*m),
			bufEntry(2, p.grads[i], n),
			wgpu.BufferBindingEntry(3, dimsBuf, 0, 16),
		}),
		counts: dispatchCounts(tensor.D1(n), gradWG),
	})

	updWG := linearShape((n + 1) * m)
	update := p.ctx.pipeline(
		fmt.Sprintf("dense_update_wg%d", updWG[0]),
		denseUpdateWGSL(updWG),
	)
	p.backward = append(p.backward, pass{
		pipeline: update,
		bindGroup: p.bindGroup(update, []wgpu.BindGroupEntry{
			bufEntry(0, p.acts[i], n),
			bufEntry(1, p.grads[i+1], m),
			bufEntry(2, weights, (n+1)*m),
			bufEntry(3, velocity, (n+1)*m),
			wgpu.BufferBindingEntry(4, dimsBuf, 0, 16),
			wgpu.BufferBindingEntry(5, p.hyper, 0, 16),
		}),
		counts: dispatchCounts(tensor.D1((n+1)*m), updWG),
	})
	return nil
}

func (p *Program) compileConv(i int, layer *nn.Conv) error {
	if layer.Stride() != 1 {
		return fmt.Errorf("webgpu: conv layer %d has stride %d, only unit stride is supported", i, layer.Stride())
	}
	in := layer.InputShape()
	out := layer.OutputShape()
	kernels := layer.Kernels()
	kDims := kernels[0].Dims()
	kvol := kDims.Volume()
	count := len(kernels)
	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

	// Kernels and their velocities are packed into single buffers.
	packed := make([]float32, 0, count*kvol)
	packedVel := make([]float32, 0, count*kvol)
	kernelDst := make([][]float32, 0, count)
	velDst := make([][]float32, 0, count)
	for k, kt := range kernels {
		packed = append(packed, kt.Data()...)
		packedVel = append(packedVel, layer.KernelState()[k].Velocity()...)
		kernelDst = append(kernelDst, kt.Data())
		velDst = append(velDst, layer.KernelState()[k].Velocity())
	}
	kernelBuf := p.uploadBuffer(packed, storage)
	kernelVel := p.uploadBuffer(packedVel, storage)
	biasBuf := p.uploadBuffer(layer.Biases(), storage)
	biasVel := p.uploadBuffer(layer.BiasState().Velocity(), storage)
	p.mirrors = append(p.mirrors,
		mirror{buf: kernelBuf, size: uint64(count * kvol * 4), dst: kernelDst},
		mirror{buf: kernelVel, size: uint64(count * kvol * 4), dst: velDst},
		mirror{buf: biasBuf, size: uint64(count * 4), dst: [][]float32{layer.Biases()}},
		mirror{buf: biasVel, size: uint64(count * 4), dst: [][]float32{layer.BiasState().Velocity()}},
	)

	var dims paramPacker
	dims.u32(uint32(in.Width))
	dims.u32(uint32(in.Height))
	dims.u32(uint32(in.Depth))
	dims.u32(uint32(out.Width))
	dims.u32(uint32(out.Height))
	dims.u32(uint32(kDims.Width))
	dims.u32(uint32(kDims.Height))
	dims.i32(int32(layer.Inset()))
	dims.u32(uint32(count))
	dimsBuf := p.uniform(&dims)

	fwdWG := workgroupShape(out)
	fwd := p.ctx.pipeline(
		fmt.Sprintf("conv_forward_wg%dx%dx%d", fwdWG[0], fwdWG[1], fwdWG[2]),
		convForwardWGSL(fwdWG),
	)
	p.forward = append(p.forward, pass{
		pipeline: fwd,
		bindGroup: p.bindGroup(fwd, []wgpu.BindGroupEntry{
			bufEntry(0, p.acts[i], in.Volume()),
			bufEntry(1, kernelBuf, count*kvol),
			bufEntry(2, biasBuf, count),
			bufEntry(3, p.acts[i+1], out.Volume()),
			wgpu.BufferBindingEntry(4, dimsBuf, 0, 48),
		}),
		counts: dispatchCounts(out, fwdWG),
	})

	gradWG := workgroupShape(in)
	inputGrad := p.ctx.pipeline(
		fmt.Sprintf("conv_input_grad_wg%dx%dx%d", gradWG[0], gradWG[1], gradWG[2]),
		convInputGradWGSL(gradWG),
	)
	p.backward = append(p.backward, pass{
		pipeline: inputGrad,
		bindGroup: p.bindGroup(inputGrad, []wgpu.BindGroupEntry{
			bufEntry(0, p.grads[i+1], out.Volume()),
			bufEntry(1, kernelBuf, count*kvol),
			bufEntry(2, p.grads[i], in.Volume()),
			wgpu.BufferBindingEntry(3, dimsBuf, 0, 48),
		}),
		counts: dispatchCounts(in, gradWG),
	})

	kUpdWG := linearShape(count * kvol)
	kernelUpdate := p.ctx.pipeline(
		fmt.Sprintf("conv_kernel_update_wg%d", kUpdWG[0]),
		convKernelUpdateWGSL(kUpdWG),
	)
	p.backward = append(p.backward, pass{
		pipeline: kernelUpdate,
		bindGroup: p.bindGroup(kernelUpdate, []wgpu.BindGroupEntry{
			bufEntry(0, p.acts[i], in.Volume()),
			bufEntry(1, p.grads[i+1], out.Volume()),
			bufEntry(2, kernelBuf, count*kvol),
			bufEntry(3, kernelVel, count*kvol),
			wgpu.BufferBindingEntry(4, dimsBuf, 0, 48),
			wgpu.BufferBindingEntry(5, p.hyper, 0, 16),
		}),
		counts: dispatchCounts(tensor.D1(count*kvol), kUpdWG),
	})

	var biasDims paramPacker
	biasDims.u32(uint32(out.Width))
	biasDims.u32(uint32(out.Height))
	biasDims.u32(uint32(count))
	biasDimsBuf := p.uniform(&biasDims)

	bUpdWG := linearShape(count)
	biasUpdate := p.ctx.pipeline(
		fmt.Sprintf("conv_bias_update_wg%d", bUpdWG[0]),
		convBiasUpdateWGSL(bUpdWG),
	)
	p.backward = append(p.backward, pass{
		pipeline: biasUpdate,
		bindGroup: p.bindGroup(biasUpdate, []wgpu.BindGroupEntry{
			bufEntry(0, p.grads[i+1], out.Volume()),
			bufEntry(1, biasBuf, count),
			bufEntry(2, biasVel, count),
			wgpu.BufferBindingEntry(3, biasDimsBuf, 0, 16),
			wgpu.BufferBindingEntry(4, p.hyper, 0, 16),
		}),
		counts: dispatchCounts(tensor.D1(count), bUpdWG),
	})
	return nil
}

func (p *Program) compilePool(i int, layer *nn.MaxPool) {
	in := layer.InputShape()
	out := layer.OutputShape()
	argmax := p.newBuffer(uint64(out.Volume())*4, wgpu.BufferUsageStorage)

	var dims paramPacker
	dims.u32(uint32(in.Width))
	dims.u32(uint32(in.Height))
	dims.u32(uint32(out.Width))
	dims.u32(uint32(out.Height))
	dims.u32(uint32(in.Width / out.Width))
	dims.u32(uint32(in.Height / out.Height))
	dims.u32(uint32(in.Depth))
	dimsBuf := p.uniform(&dims)

	fwdWG := workgroupShape(out)
	fwd := p.ctx.pipeline(
		fmt.Sprintf("pool_forward_wg%dx%dx%d", fwdWG[0], fwdWG[1], fwdWG[2]),
		poolForwardWGSL(fwdWG),
	)
	p.forward = append(p.forward, pass{
		pipeline: fwd,
		bindGroup: p.bindGroup(fwd, []wgpu.BindGroupEntry{
			bufEntry(0, p.acts[i], in.Volume()),
			bufEntry(1, p.acts[i+1], out.Volume()),
			bufEntry(2, argmax, out.Volume()),
			wgpu.BufferBindingEntry(3, dimsBuf, 0, 32),
		}),
		counts: dispatchCounts(out, fwdWG),
	})

	bwdWG := workgroupShape(in)
	bwd := p.ctx.pipeline(
		fmt.Sprintf("pool_backward_wg%dx%dx%d", bwdWG[0], bwdWG[1], bwdWG[2]),
		poolBackwardWGSL(bwdWG),
	)
	p.backward = append(p.backward, pass{
		pipeline: bwd,
		bindGroup: p.bindGroup(bwd, []wgpu.BindGroupEntry{
			bufEntry(0, p.grads[i+1], out.Volume()),
			bufEntry(1, argmax, out.Volume()),
			bufEntry(2, p.grads[i], in.Volume()),
			wgpu.BufferBindingEntry(3, dimsBuf, 0, 32),
		}),
		counts: dispatchCounts(in, bwdWG),
	})
}

func (p *Program) compileNonlinearity(i int, layer *nn.Nonlinearity) {
	if layer.Kind() == nn.Linear {
		return
	}
	kind := layer.Kind().String()
	vol := layer.InputShape().Volume()

	var size paramPacker
	size.u32(uint32(vol))
	sizeBuf := p.uniform(&size)

	wg := linearShape(vol)
	fwd := p.ctx.pipeline(
		fmt.Sprintf("%s_forward_wg%d", kind, wg[0]),
		activationForwardWGSL(kind, wg),
	)
	p.forward = append(p.forward, pass{
		pipeline: fwd,
		bindGroup: p.bindGroup(fwd, []wgpu.BindGroupEntry{
			bufEntry(0, p.acts[i], vol),
			bufEntry(1, p.acts[i+1], vol),
			wgpu.BufferBindingEntry(2, sizeBuf, 0, 16),
		}),
		counts: dispatchCounts(tensor.D1(vol), wg),
	})

	bwd := p.ctx.pipeline(
		fmt.Sprintf("%s_backward_wg%d", kind, wg[0]),
		activationBackwardWGSL(kind, wg),
	)
	p.backward = append(p.backward, pass{
		pipeline: bwd,
		bindGroup: p.bindGroup(bwd, []wgpu.BindGroupEntry{
			bufEntry(0, p.acts[i], vol),
			bufEntry(1, p.grads[i+1], vol),
			bufEntry(2, p.grads[i], vol),
			wgpu.BufferBindingEntry(3, sizeBuf, 0, 16),
		}),
		counts: dispatchCounts(tensor.D1(vol), wg),
	})
}

// compileOutput lowers the output activation and the loss delta that
// seeds the backward pass.
func (p *Program) compileOutput(outVol int) {
	last := p.acts[len(p.acts)-1]
	kind := p.net.Output().Kind()
	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

	var size paramPacker
	size.u32(uint32(outVol))
	sizeBuf := p.uniform(&size)

	switch kind {
	case nn.Linear:
		p.actOut = last
	case nn.Softmax:
		p.actOut = p.newBuffer(uint64(outVol)*4, storage)
		pl := p.ctx.pipeline("softmax", softmaxWGSL)
		p.forward = append(p.forward, pass{
			pipeline: pl,
			bindGroup: p.bindGroup(pl, []wgpu.BindGroupEntry{
				bufEntry(0, last, outVol),
				bufEntry(1, p.actOut, outVol),
				wgpu.BufferBindingEntry(2, sizeBuf, 0, 16),
			}),
			counts: [3]uint32{1, 1, 1},
		})
	default:
		p.actOut = p.newBuffer(uint64(outVol)*4, storage)
		wg := linearShape(outVol)
		pl := p.ctx.pipeline(
			fmt.Sprintf("%s_forward_wg%d", kind.String(), wg[0]),
			activationForwardWGSL(kind.String(), wg),
		)
		p.forward = append(p.forward, pass{
			pipeline: pl,
			bindGroup: p.bindGroup(pl, []wgpu.BindGroupEntry{
				bufEntry(0, last, outVol),
				bufEntry(1, p.actOut, outVol),
				wgpu.BufferBindingEntry(2, sizeBuf, 0, 16),
			}),
			counts: dispatchCounts(tensor.D1(outVol), wg),
		})
	}

	deltaWG := linearShape(outVol)
	delta := p.ctx.pipeline(
		fmt.Sprintf("loss_delta_%s_wg%d", kind.String(), deltaWG[0]),
		lossDeltaWGSL(kind.String(), deltaWG),
	)
	gradLast := p.grads[len(p.grads)-1]
	p.backward = append([]pass{{
		pipeline: delta,
		bindGroup: p.bindGroup(delta, []wgpu.BindGroupEntry{
			bufEntry(0, p.expected, outVol),
			bufEntry(1, p.actOut, outVol),
			bufEntry(2, gradLast, outVol),
			wgpu.BufferBindingEntry(3, sizeBuf, 0, 16),
		}),
		counts: dispatchCounts(tensor.D1(outVol), deltaWG),
	}}, p.backward...)
}

func (p *Program) encodePasses(encoder *wgpu.CommandEncoder, passes []pass) {
	for _, ps := range passes {
		cp := encoder.BeginComputePass(nil)
		cp.SetPipeline(ps.pipeline)
		cp.SetBindGroup(0, ps.bindGroup, nil)
		cp.DispatchWorkgroups(ps.counts[0], ps.counts[1], ps.counts[2])
		cp.End()
	}
}

// Forward runs one inference pass on the device and reads the
// activated output back.
func (p *Program) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if !input.Dims().Equal(p.net.InputShape()) {
		panic(fmt.Sprintf("webgpu: input shape %v does not match %v", input.Dims(), p.net.InputShape()))
	}

	encoder := p.ctx.device.CreateCommandEncoder(nil)
	staging := p.ctx.stageUpload(encoder, p.acts[0], floatBytes(input.Data()))
	defer staging.Release()
	p.encodePasses(encoder, p.forward)

	cmd := encoder.Finish(nil)
	p.ctx.queue.Submit(cmd)

	return p.readOutput()
}

// Train runs one fused step: forward, loss delta, backward with
// in-place parameter updates, all in a single submission. The returned
// loss is measured before the update, on the host, from the same
// readback that synchronizes the step.
func (p *Program) Train(input, expected *tensor.Tensor, h nn.Hyper) (float32, error) {
	if !input.Dims().Equal(p.net.InputShape()) {
		panic(fmt.Sprintf("webgpu: input shape %v does not match %v", input.Dims(), p.net.InputShape()))
	}
	if !expected.Dims().Equal(p.net.OutputShape()) {
		panic(fmt.Sprintf("webgpu: expected shape %v does not match %v", expected.Dims(), p.net.OutputShape()))
	}

	var hp paramPacker
	hp.f32(h.LearningRate)
	hp.f32(h.Momentum)
	hp.f32(h.Decay)

	encoder := p.ctx.device.CreateCommandEncoder(nil)
	stagings := []*wgpu.Buffer{
		p.ctx.stageUpload(encoder, p.acts[0], floatBytes(input.Data())),
		p.ctx.stageUpload(encoder, p.expected, floatBytes(expected.Data())),
		p.ctx.stageUpload(encoder, p.hyper, hp.bytes()),
	}
	p.encodePasses(encoder, p.forward)
	p.encodePasses(encoder, p.backward)

	cmd := encoder.Finish(nil)
	p.ctx.queue.Submit(cmd)
	for _, s := range stagings {
		s.Release()
	}

	actual, err := p.readOutput()
	if err != nil {
		return 0, err
	}
	return p.net.Output().Loss(expected, actual), nil
}

func (p *Program) readOutput() (*tensor.Tensor, error) {
	outVol := p.net.OutputShape().Volume()
	data, err := p.ctx.readFloats(p.actOut, outVol)
	if err != nil {
		return nil, fmt.Errorf("webgpu: reading output: %w", err)
	}
	out, err := tensor.FromSlice(data, p.net.OutputShape())
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SyncHost copies every trained parameter and its optimizer state back
// into the host network, so training can continue on the CPU or the
// network can be inspected and saved.
func (p *Program) SyncHost() error {
	for _, m := range p.mirrors {
		raw, err := p.ctx.readBuffer(m.buf, m.size)
		if err != nil {
			return fmt.Errorf("webgpu: syncing parameters: %w", err)
		}
		data := bytesToFloats(raw)
		off := 0
		for _, dst := range m.dst {
			copy(dst, data[off:off+len(dst)])
			off += len(dst)
		}
	}
	return nil
}

// Network returns the host network this program was compiled from.
func (p *Program) Network() *nn.Network { return p.net }

// Release frees every buffer and bind group owned by the program.
// Pipelines stay cached in the Context.
func (p *Program) Release() {
	for _, bg := range p.bindGroups {
		bg.Release()
	}
	p.bindGroups = nil
	for _, buf := range p.owned {
		buf.Release()
	}
	p.owned = nil
}
