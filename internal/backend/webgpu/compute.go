package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Context's shaders map.
func (c *Context) compileShader(name, code string) *wgpu.ShaderModule {
	c.mu.RLock()
	if shader, exists := c.shaders[name]; exists {
		c.mu.RUnlock()
		return shader
	}
	c.mu.RUnlock()

	shader := c.device.CreateShaderModuleWGSL(code)

	c.mu.Lock()
	c.shaders[name] = shader
	c.mu.Unlock()

	return shader
}

// pipeline returns a cached ComputePipeline for the named shader,
// compiling both on first use.
func (c *Context) pipeline(name, code string) *wgpu.ComputePipeline {
	c.mu.RLock()
	if p, exists := c.pipelines[name]; exists {
		c.mu.RUnlock()
		return p
	}
	c.mu.RUnlock()

	shader := c.compileShader(name, code)
	p := c.device.CreateComputePipelineSimple(nil, shader, "main")

	c.mu.Lock()
	c.pipelines[name] = p
	c.mu.Unlock()

	return p
}

// createBuffer creates a storage buffer and uploads initial data.
func (c *Context) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createEmptyBuffer creates a zero-initialized storage buffer.
func (c *Context) createEmptyBuffer(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	return c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// createUniformBuffer creates a uniform buffer with proper alignment.
// Uniform buffers require 16-byte alignment.
func (c *Context) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// stageUpload encodes a copy of data into dst through a transient
// staging buffer. The returned staging buffer must be released after
// the encoder's commands are submitted.
func (c *Context) stageUpload(encoder *wgpu.CommandEncoder, dst *wgpu.Buffer, data []byte) *wgpu.Buffer {
	staging := c.createBuffer(data, wgpu.BufferUsageCopySrc)
	encoder.CopyBufferToBuffer(staging, 0, dst, 0, uint64(len(data)))
	return staging
}

// readBuffer reads data back from a GPU buffer to CPU memory through a
// staging buffer, blocking until the device catches up. This is the
// only synchronization point in a step.
func (c *Context) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := c.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmdBuffer := encoder.Finish(nil)
	c.queue.Submit(cmdBuffer)

	err := staging.MapAsync(c.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()

	return result, nil
}

// readFloats reads a float32 buffer back into host memory.
func (c *Context) readFloats(src *wgpu.Buffer, count int) ([]float32, error) {
	raw, err := c.readBuffer(src, uint64(count)*4)
	if err != nil {
		return nil, err
	}
	return bytesToFloats(raw), nil
}

func floatBytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func bytesToFloats(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// paramPacker accumulates uniform struct fields in declaration order.
type paramPacker struct {
	buf []byte
}

func (p *paramPacker) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	p.buf = append(p.buf, b[:]...)
}

func (p *paramPacker) i32(v int32) {
	p.u32(uint32(v))
}

func (p *paramPacker) f32(v float32) {
	p.u32(math.Float32bits(v))
}

// bytes pads the packed fields to the 16-byte uniform boundary.
func (p *paramPacker) bytes() []byte {
	for len(p.buf)%16 != 0 {
		p.buf = append(p.buf, 0)
	}
	return p.buf
}
