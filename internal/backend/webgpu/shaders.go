package webgpu

import "fmt"

// WGSL kernels are generated per layer so the workgroup shape can be
// sized to the layer's output. Using string templates instead of embed
// for simplicity.

// denseForwardWGSL computes out = [in 1] @ W for one sample. The bias
// row sits at row n of the (n+1) x m weight matrix.
func denseForwardWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> weights: array<f32>;
@group(0) @binding(2) var<storage, read_write> output: array<f32>;

struct Params {
    n: u32,
    m: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let col = global_id.x;
    if (col >= params.m) {
        return;
    }
    var sum: f32 = weights[params.n * params.m + col];
    for (var i: u32 = 0u; i < params.n; i = i + 1u) {
        sum = sum + input[i] * weights[i * params.m + col];
    }
    output[col] = sum;
}
`, wg[0])
}

// denseInputGradWGSL computes prev = g @ W^T, dropping the bias row.
func denseInputGradWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read> weights: array<f32>;
@group(0) @binding(2) var<storage, read_write> prev: array<f32>;

struct Params {
    n: u32,
    m: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.n) {
        return;
    }
    var sum: f32 = 0.0;
    for (var j: u32 = 0u; j < params.m; j = j + 1u) {
        sum = sum + grad[j] * weights[row * params.m + j];
    }
    prev[row] = sum;
}
`, wg[0])
}

// denseUpdateWGSL applies the fused SGD step to every weight:
// v = momentum*v + lr*(aug[r] * g[c]); w = (1 - lr*decay)*w + v.
func denseUpdateWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> weights: array<f32>;
@group(0) @binding(3) var<storage, read_write> velocity: array<f32>;

struct Params {
    n: u32,
    m: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

struct Hyper {
    lr: f32,
    momentum: f32,
    decay: f32,
}
@group(0) @binding(5) var<uniform> hyper: Hyper;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= (params.n + 1u) * params.m) {
        return;
    }
    let row = idx / params.m;
    let col = idx %% params.m;
    var a: f32 = 1.0;
    if (row < params.n) {
        a = input[row];
    }
    let g = a * grad[col];
    let v = hyper.momentum * velocity[idx] + hyper.lr * g;
    velocity[idx] = v;
    weights[idx] = (1.0 - hyper.lr * hyper.decay) * weights[idx] + v;
}
`, wg[0])
}

// convParamsWGSL is the uniform block shared by the correlation
// kernels: source extents, output extents, kernel extents, the signed
// window inset, and the kernel count.
const convParamsWGSL = `
struct Params {
    src_w: u32,
    src_h: u32,
    src_d: u32,
    out_w: u32,
    out_h: u32,
    k_w: u32,
    k_h: u32,
    inset: i32,
    kcount: u32,
}
`

// convForwardWGSL cross-correlates every kernel against the source,
// one output plane per kernel. Reads outside the source are zero, which
// is what gives a negative inset its implicit padding.
func convForwardWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read> kernels: array<f32>;
@group(0) @binding(2) var<storage, read> biases: array<f32>;
@group(0) @binding(3) var<storage, read_write> output: array<f32>;
%s
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(%d, %d, %d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    if (global_id.x >= params.out_w || global_id.y >= params.out_h || global_id.z >= params.kcount) {
        return;
    }
    let k = global_id.z;
    let kvol = params.k_w * params.k_h * params.src_d;
    var sum: f32 = biases[k];
    for (var kz: u32 = 0u; kz < params.src_d; kz = kz + 1u) {
        for (var ky: u32 = 0u; ky < params.k_h; ky = ky + 1u) {
            for (var kx: u32 = 0u; kx < params.k_w; kx = kx + 1u) {
                let sx = i32(global_id.x) + i32(kx) + params.inset;
                let sy = i32(global_id.y) + i32(ky) + params.inset;
                if (sx < 0 || sx >= i32(params.src_w) || sy < 0 || sy >= i32(params.src_h)) {
                    continue;
                }
                let s = src[(kz * params.src_h + u32(sy)) * params.src_w + u32(sx)];
                let w = kernels[k * kvol + (kz * params.k_h + ky) * params.k_w + kx];
                sum = sum + s * w;
            }
        }
    }
    output[(k * params.out_h + global_id.y) * params.out_w + global_id.x] = sum;
}
`, convParamsWGSL, wg[0], wg[1], wg[2])
}

// convInputGradWGSL gathers the input gradient: each source cell sums
// the output-gradient cells whose windows covered it, weighted by the
// kernel tap that touched it.
func convInputGradWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read> kernels: array<f32>;
@group(0) @binding(2) var<storage, read_write> prev: array<f32>;
%s
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d, %d, %d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    if (global_id.x >= params.src_w || global_id.y >= params.src_h || global_id.z >= params.src_d) {
        return;
    }
    let z = global_id.z;
    let kvol = params.k_w * params.k_h * params.src_d;
    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.kcount; k = k + 1u) {
        for (var ky: u32 = 0u; ky < params.k_h; ky = ky + 1u) {
            for (var kx: u32 = 0u; kx < params.k_w; kx = kx + 1u) {
                let ox = i32(global_id.x) - i32(kx) - params.inset;
                let oy = i32(global_id.y) - i32(ky) - params.inset;
                if (ox < 0 || ox >= i32(params.out_w) || oy < 0 || oy >= i32(params.out_h)) {
                    continue;
                }
                let g = grad[(k * params.out_h + u32(oy)) * params.out_w + u32(ox)];
                let w = kernels[k * kvol + (z * params.k_h + ky) * params.k_w + kx];
                sum = sum + g * w;
            }
        }
    }
    prev[(z * params.src_h + global_id.y) * params.src_w + global_id.x] = sum;
}
`, convParamsWGSL, wg[0], wg[1], wg[2])
}

// convKernelUpdateWGSL computes each kernel tap's gradient by
// correlating the source with the output gradient, then applies the
// fused SGD step.
func convKernelUpdateWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> kernels: array<f32>;
@group(0) @binding(3) var<storage, read_write> velocity: array<f32>;
%s
@group(0) @binding(4) var<uniform> params: Params;

struct Hyper {
    lr: f32,
    momentum: f32,
    decay: f32,
}
@group(0) @binding(5) var<uniform> hyper: Hyper;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let kvol = params.k_w * params.k_h * params.src_d;
    if (idx >= params.kcount * kvol) {
        return;
    }
    let k = idx / kvol;
    let rem = idx %% kvol;
    let kz = rem / (params.k_w * params.k_h);
    let rem2 = rem %% (params.k_w * params.k_h);
    let ky = rem2 / params.k_w;
    let kx = rem2 %% params.k_w;

    var g: f32 = 0.0;
    for (var oy: u32 = 0u; oy < params.out_h; oy = oy + 1u) {
        for (var ox: u32 = 0u; ox < params.out_w; ox = ox + 1u) {
            let sx = i32(ox) + i32(kx) + params.inset;
            let sy = i32(oy) + i32(ky) + params.inset;
            if (sx < 0 || sx >= i32(params.src_w) || sy < 0 || sy >= i32(params.src_h)) {
                continue;
            }
            let s = src[(kz * params.src_h + u32(sy)) * params.src_w + u32(sx)];
            g = g + s * grad[(k * params.out_h + oy) * params.out_w + ox];
        }
    }
    let v = hyper.momentum * velocity[idx] + hyper.lr * g;
    velocity[idx] = v;
    kernels[idx] = (1.0 - hyper.lr * hyper.decay) * kernels[idx] + v;
}
`, convParamsWGSL, wg[0])
}

// convBiasUpdateWGSL sums each output plane into its bias gradient and
// applies the fused SGD step.
func convBiasUpdateWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read_write> biases: array<f32>;
@group(0) @binding(2) var<storage, read_write> velocity: array<f32>;

struct Params {
    out_w: u32,
    out_h: u32,
    kcount: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

struct Hyper {
    lr: f32,
    momentum: f32,
    decay: f32,
}
@group(0) @binding(4) var<uniform> hyper: Hyper;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let k = global_id.x;
    if (k >= params.kcount) {
        return;
    }
    var g: f32 = 0.0;
    let plane = params.out_w * params.out_h;
    for (var i: u32 = 0u; i < plane; i = i + 1u) {
        g = g + grad[k * plane + i];
    }
    let v = hyper.momentum * velocity[k] + hyper.lr * g;
    velocity[k] = v;
    biases[k] = (1.0 - hyper.lr * hyper.decay) * biases[k] + v;
}
`, wg[0])
}

// poolParamsWGSL is shared by the pooling kernels. Pooling preserves
// depth, so src_d bounds the z axis in both directions.
const poolParamsWGSL = `
struct Params {
    src_w: u32,
    src_h: u32,
    out_w: u32,
    out_h: u32,
    win_w: u32,
    win_h: u32,
    src_d: u32,
}
`

// poolForwardWGSL takes the maximum over each non-overlapping window
// and records the winning source index for the backward pass.
func poolForwardWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;
@group(0) @binding(2) var<storage, read_write> argmax: array<u32>;
%s
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d, %d, %d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    if (global_id.x >= params.out_w || global_id.y >= params.out_h || global_id.z >= params.src_d) {
        return;
    }
    let z = global_id.z;
    let x0 = global_id.x * params.win_w;
    let y0 = global_id.y * params.win_h;
    var best_idx: u32 = (z * params.src_h + y0) * params.src_w + x0;
    var best: f32 = src[best_idx];
    for (var wy: u32 = 0u; wy < params.win_h; wy = wy + 1u) {
        for (var wx: u32 = 0u; wx < params.win_w; wx = wx + 1u) {
            let idx = (z * params.src_h + y0 + wy) * params.src_w + x0 + wx;
            if (src[idx] > best) {
                best = src[idx];
                best_idx = idx;
            }
        }
    }
    let o = (z * params.out_h + global_id.y) * params.out_w + global_id.x;
    output[o] = best;
    argmax[o] = best_idx;
}
`, poolParamsWGSL, wg[0], wg[1], wg[2])
}

// poolBackwardWGSL routes each gradient cell to the source position
// that won its window. Written as a gather over source cells so no
// zero-fill pass is needed.
func poolBackwardWGSL(wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read> argmax: array<u32>;
@group(0) @binding(2) var<storage, read_write> prev: array<f32>;
%s
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d, %d, %d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    if (global_id.x >= params.src_w || global_id.y >= params.src_h || global_id.z >= params.src_d) {
        return;
    }
    let z = global_id.z;
    let s = (z * params.src_h + global_id.y) * params.src_w + global_id.x;
    let o = (z * params.out_h + global_id.y / params.win_h) * params.out_w + global_id.x / params.win_w;
    if (argmax[o] == s) {
        prev[s] = grad[o];
    } else {
        prev[s] = 0.0;
    }
}
`, poolParamsWGSL, wg[0], wg[1], wg[2])
}

// activationExprWGSL returns the forward expression for x.
func activationExprWGSL(kind string) string {
	switch kind {
	case "relu":
		return "max(x, 0.0)"
	case "sigmoid":
		return "1.0 / (1.0 + exp(-x))"
	case "tanh":
		return "tanh(x)"
	}
	panic("webgpu: no forward expression for activation " + kind)
}

// activationDerivExprWGSL returns the derivative expression in terms
// of the activation output y, mirroring the host backend's
// derivative-on-output convention.
func activationDerivExprWGSL(kind string) string {
	switch kind {
	case "relu":
		return "select(0.0, 1.0, y > 0.0)"
	case "sigmoid":
		return "y * (1.0 - y)"
	case "tanh":
		return "1.0 - y * y"
	case "linear":
		return "1.0"
	}
	panic("webgpu: no derivative expression for activation " + kind)
}

// activationForwardWGSL applies an element-wise activation.
func activationForwardWGSL(kind string, wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let x = input[idx];
        output[idx] = %s;
    }
}
`, wg[0], activationExprWGSL(kind))
}

// activationBackwardWGSL recomputes the activation output from the
// forward input and scales the gradient by its derivative.
func activationBackwardWGSL(kind string, wg [3]int) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> prev: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let x = input[idx];
        let y = %s;
        prev[idx] = grad[idx] * (%s);
    }
}
`, wg[0], activationExprWGSL(kind), activationDerivExprWGSL(kind))
}

// softmaxWGSL normalizes the whole output vector in one thread, with
// the usual max subtraction for stability. Output vectors are small,
// so the serial reduce is cheaper than a cross-workgroup one.
const softmaxWGSL = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    if (global_id.x != 0u) {
        return;
    }
    var max_val: f32 = input[0];
    for (var i: u32 = 1u; i < params.size; i = i + 1u) {
        max_val = max(max_val, input[i]);
    }
    var sum: f32 = 0.0;
    for (var i: u32 = 0u; i < params.size; i = i + 1u) {
        let e = exp(input[i] - max_val);
        output[i] = e;
        sum = sum + e;
    }
    for (var i: u32 = 0u; i < params.size; i = i + 1u) {
        output[i] = output[i] / sum;
    }
}
`

// lossDeltaWGSL seeds the backward pass with (expected - actual),
// scaled by the output activation's derivative on the actual output.
// Softmax uses a factor of one: cross-entropy cancels its Jacobian.
func lossDeltaWGSL(kind string, wg [3]int) string {
	factor := "1.0"
	if kind != "softmax" {
		expr := activationDerivExprWGSL(kind)
		factor = "(" + replaceY(expr) + ")"
	}
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> expected: array<f32>;
@group(0) @binding(1) var<storage, read> actual: array<f32>;
@group(0) @binding(2) var<storage, read_write> delta: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let a = actual[idx];
        delta[idx] = (expected[idx] - a) * %s;
    }
}
`, wg[0], factor)
}

// replaceY rewrites a derivative-on-output expression to read the
// actual output variable a.
func replaceY(expr string) string {
	out := make([]byte, 0, len(expr))
	for i := 0; i < len(expr); i++ {
		if expr[i] == 'y' {
			out = append(out, 'a')
		} else {
			out = append(out, expr[i])
		}
	}
	return string(out)
}
