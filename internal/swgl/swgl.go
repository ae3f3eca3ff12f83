// SPDX-License-Identifier: Unlicense OR MIT

// Package swgl implements gl.Functions in software. It executes the
// subset of OpenGL ES 3 the compositor issues: textures, framebuffers,
// framebuffer blits, clears, readback and textured quads drawn as
// triangle strips. Shader sources are not interpreted; a linked program
// samples the texture on the unit of its "tex" sampler at the "uv"
// attribute and places vertices at the "pos" attribute.
package swgl

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"strings"

	"gioui.org/vmdisplay/internal/gl"
)

const (
	maxTextureSize = 16384
	maxAttribs     = 16
	maxUnits       = 8
)

// Resources counts the live objects of a Functions.
type Resources struct {
	Textures     int
	Framebuffers int
	Programs     int
	Shaders      int
	Buffers      int
	VertexArrays int
	Syncs        int
}

// Total returns the sum of all counts.
func (r Resources) Total() int {
	return r.Textures + r.Framebuffers + r.Programs + r.Shaders + r.Buffers + r.VertexArrays + r.Syncs
}

// Surface is the color buffer behind the default framebuffer.
type Surface struct {
	tex *texture
}

// Functions is a software GL context. It is not safe for concurrent use,
// like the GL contexts it stands in for.
type Functions struct {
	version [2]int
	exts    []string

	err  gl.Enum
	next uint

	textures     map[uint]*texture
	framebuffers map[uint]*framebuffer
	programs     map[uint]*program
	shaders      map[uint]*shader
	buffers      map[uint][]byte
	vaos         map[uint]*vertexArray
	syncs        map[uintptr]bool

	surface     *Surface
	viewportSet bool

	activeUnit  int
	units       [maxUnits]uint
	readFBO     uint
	drawFBO     uint
	arrayBuffer uint
	vao         uint
	defaultVAO  vertexArray
	program     uint

	clearColor  [4]float32
	viewport    image.Rectangle
	scissor     image.Rectangle
	scissorTest bool
	blend       bool
	srcFactor   gl.Enum
	dstFactor   gl.Enum

	packRowLength   int
	unpackRowLength int
}

type framebuffer struct {
	color uint
}

type shader struct {
	typ      gl.Enum
	src      string
	compiled bool
	log      string
}

type program struct {
	shaders  []uint
	attribs  map[string]gl.Attrib
	linked   bool
	log      string
	uniforms []string
	values   map[int]int
}

type attrib struct {
	enabled bool
	size    int
	ty      gl.Enum
	stride  int
	offset  int
	buffer  uint
}

type vertexArray struct {
	attribs [maxAttribs]attrib
}

// New returns a context reporting OpenGL ES version major.minor.
func New(major, minor int) *Functions {
	return &Functions{
		version: [2]int{major, minor},
		exts: []string{
			"GL_EXT_texture_format_BGRA8888",
			"GL_EXT_read_format_bgra",
			"GL_OES_rgb8_rgba8",
		},
		textures:     make(map[uint]*texture),
		framebuffers: make(map[uint]*framebuffer),
		programs:     make(map[uint]*program),
		shaders:      make(map[uint]*shader),
		buffers:      make(map[uint][]byte),
		vaos:         make(map[uint]*vertexArray),
		syncs:        make(map[uintptr]bool),
		srcFactor:    gl.ONE,
		dstFactor:    gl.ZERO,
	}
}

var _ gl.Functions = (*Functions)(nil)

// NewSurface allocates a cleared color buffer.
func NewSurface(width, height int) *Surface {
	return &Surface{tex: newTexture(width, height, LayoutRGBA)}
}

func (s *Surface) Size() image.Point {
	return image.Pt(s.tex.Width, s.tex.Height)
}

// Storage returns the pixel memory of the surface.
func (s *Surface) Storage() Storage {
	return s.tex.Storage
}

func newTexture(width, height int, layout Layout) *texture {
	return &texture{
		Storage: Storage{
			Width:  width,
			Height: height,
			Stride: width * 4,
			Layout: layout,
			Pix:    make([]byte, width*height*4),
		},
		magFilter: gl.NEAREST,
	}
}

// SetSurface binds s as the default framebuffer; nil leaves the context
// surfaceless. The viewport and scissor box take the size of the first
// surface.
func (f *Functions) SetSurface(s *Surface) {
	f.surface = s
	if s != nil && !f.viewportSet {
		f.viewportSet = true
		f.viewport = s.tex.bounds()
		f.scissor = f.viewport
	}
}

// Surface returns the surface bound by SetSurface.
func (f *Functions) Surface() *Surface {
	return f.surface
}

// Resources returns the number of live objects.
func (f *Functions) Resources() Resources {
	return Resources{
		Textures:     len(f.textures),
		Framebuffers: len(f.framebuffers),
		Programs:     len(f.programs),
		Shaders:      len(f.shaders),
		Buffers:      len(f.buffers),
		VertexArrays: len(f.vaos),
		Syncs:        len(f.syncs),
	}
}

// SetExternalStorage replaces the storage of texture t with memory owned
// elsewhere. release runs when the storage is replaced or the texture is
// deleted.
func (f *Functions) SetExternalStorage(t gl.Texture, s Storage, release func()) error {
	tex, ok := f.textures[t.V]
	if !ok {
		return fmt.Errorf("swgl: no texture %d", t.V)
	}
	if s.Width <= 0 || s.Height <= 0 || s.Width > maxTextureSize || s.Height > maxTextureSize {
		return fmt.Errorf("swgl: invalid texture size %dx%d", s.Width, s.Height)
	}
	if s.Stride < s.Width*4 || len(s.Pix) < (s.Height-1)*s.Stride+s.Width*4 {
		return fmt.Errorf("swgl: storage of %d bytes with stride %d too small for %dx%d", len(s.Pix), s.Stride, s.Width, s.Height)
	}
	tex.drop()
	tex.Storage = s
	tex.release = release
	return nil
}

// TextureStorage returns the storage of texture t.
func (f *Functions) TextureStorage(t gl.Texture) (Storage, bool) {
	tex, ok := f.textures[t.V]
	if !ok || tex.Pix == nil {
		return Storage{}, false
	}
	return tex.Storage, true
}

// Release deletes every object and drops external storage.
func (f *Functions) Release() {
	for name, t := range f.textures {
		t.drop()
		delete(f.textures, name)
	}
	clear(f.framebuffers)
	clear(f.programs)
	clear(f.shaders)
	clear(f.buffers)
	clear(f.vaos)
	clear(f.syncs)
	f.surface = nil
}

func (f *Functions) setError(e gl.Enum) {
	if f.err == gl.NO_ERROR {
		f.err = e
	}
}

func (f *Functions) name() uint {
	f.next++
	return f.next
}

func (f *Functions) ActiveTexture(texture gl.Enum) {
	unit := int(texture) - gl.TEXTURE0
	if unit < 0 || unit >= len(f.units) {
		f.setError(gl.INVALID_ENUM)
		return
	}
	f.activeUnit = unit
}

func (f *Functions) AttachShader(p gl.Program, s gl.Shader) {
	prog, ok := f.programs[p.V]
	if !ok || f.shaders[s.V] == nil {
		f.setError(gl.INVALID_VALUE)
		return
	}
	prog.shaders = append(prog.shaders, s.V)
}

func (f *Functions) BindAttribLocation(p gl.Program, a gl.Attrib, name string) {
	prog, ok := f.programs[p.V]
	if !ok || int(a) >= maxAttribs {
		f.setError(gl.INVALID_VALUE)
		return
	}
	prog.attribs[name] = a
}

func (f *Functions) BindBuffer(target gl.Enum, b gl.Buffer) {
	if target != gl.ARRAY_BUFFER {
		f.setError(gl.INVALID_ENUM)
		return
	}
	if _, ok := f.buffers[b.V]; b.Valid() && !ok {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	f.arrayBuffer = b.V
}

func (f *Functions) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) {
	if _, ok := f.framebuffers[fb.V]; fb.Valid() && !ok {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	switch target {
	case gl.FRAMEBUFFER:
		f.readFBO, f.drawFBO = fb.V, fb.V
	case gl.READ_FRAMEBUFFER:
		f.readFBO = fb.V
	case gl.DRAW_FRAMEBUFFER:
		f.drawFBO = fb.V
	default:
		f.setError(gl.INVALID_ENUM)
	}
}

func (f *Functions) BindTexture(target gl.Enum, t gl.Texture) {
	if target != gl.TEXTURE_2D {
		f.setError(gl.INVALID_ENUM)
		return
	}
	if _, ok := f.textures[t.V]; t.Valid() && !ok {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	f.units[f.activeUnit] = t.V
}

func (f *Functions) BindVertexArray(a gl.VertexArray) {
	if _, ok := f.vaos[a.V]; a.Valid() && !ok {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	f.vao = a.V
}

func (f *Functions) BlendFunc(sfactor, dfactor gl.Enum) {
	f.srcFactor, f.dstFactor = sfactor, dfactor
}

func (f *Functions) BufferData(target gl.Enum, src []byte, usage gl.Enum) {
	if target != gl.ARRAY_BUFFER {
		f.setError(gl.INVALID_ENUM)
		return
	}
	if f.arrayBuffer == 0 {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	f.buffers[f.arrayBuffer] = append([]byte(nil), src...)
}

func (f *Functions) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	name := f.drawFBO
	if target == gl.READ_FRAMEBUFFER {
		name = f.readFBO
	}
	_, status := f.attachment(name)
	return status
}

// attachment returns the color buffer of framebuffer name and its
// completeness.
func (f *Functions) attachment(name uint) (*texture, gl.Enum) {
	if name == 0 {
		if f.surface == nil {
			return nil, gl.FRAMEBUFFER_UNDEFINED
		}
		return f.surface.tex, gl.FRAMEBUFFER_COMPLETE
	}
	fb := f.framebuffers[name]
	if fb == nil || fb.color == 0 {
		return nil, gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT
	}
	t, ok := f.textures[fb.color]
	if !ok || t.Pix == nil {
		return nil, gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT
	}
	return t, gl.FRAMEBUFFER_COMPLETE
}

func (f *Functions) ClearColor(red, green, blue, alpha float32) {
	f.clearColor = [4]float32{red, green, blue, alpha}
}

func (f *Functions) ClientWaitSync(s gl.Sync, flags gl.Enum, timeout uint64) gl.Enum {
	if !f.syncs[s.V] {
		f.setError(gl.INVALID_VALUE)
		return gl.WAIT_FAILED
	}
	// Commands execute on submission.
	return gl.ALREADY_SIGNALED
}

func (f *Functions) CompileShader(s gl.Shader) {
	sh, ok := f.shaders[s.V]
	if !ok {
		f.setError(gl.INVALID_VALUE)
		return
	}
	sh.compiled = sh.src != ""
	sh.log = ""
	if !sh.compiled {
		sh.log = "empty shader source"
	}
}

func (f *Functions) CreateBuffer() gl.Buffer {
	n := f.name()
	f.buffers[n] = nil
	return gl.Buffer{V: n}
}

func (f *Functions) CreateFramebuffer() gl.Framebuffer {
	n := f.name()
	f.framebuffers[n] = new(framebuffer)
	return gl.Framebuffer{V: n}
}

func (f *Functions) CreateProgram() gl.Program {
	n := f.name()
	f.programs[n] = &program{attribs: make(map[string]gl.Attrib), values: make(map[int]int)}
	return gl.Program{V: n}
}

func (f *Functions) CreateShader(ty gl.Enum) gl.Shader {
	if ty != gl.VERTEX_SHADER && ty != gl.FRAGMENT_SHADER {
		f.setError(gl.INVALID_ENUM)
		return gl.Shader{}
	}
	n := f.name()
	f.shaders[n] = &shader{typ: ty}
	return gl.Shader{V: n}
}

func (f *Functions) CreateTexture() gl.Texture {
	n := f.name()
	f.textures[n] = &texture{magFilter: gl.NEAREST}
	return gl.Texture{V: n}
}

func (f *Functions) CreateVertexArray() gl.VertexArray {
	n := f.name()
	f.vaos[n] = new(vertexArray)
	return gl.VertexArray{V: n}
}

func (f *Functions) DeleteBuffer(v gl.Buffer) {
	delete(f.buffers, v.V)
	if f.arrayBuffer == v.V {
		f.arrayBuffer = 0
	}
}

func (f *Functions) DeleteFramebuffer(v gl.Framebuffer) {
	delete(f.framebuffers, v.V)
	if f.readFBO == v.V {
		f.readFBO = 0
	}
	if f.drawFBO == v.V {
		f.drawFBO = 0
	}
}

func (f *Functions) DeleteProgram(p gl.Program) {
	delete(f.programs, p.V)
	if f.program == p.V {
		f.program = 0
	}
}

func (f *Functions) DeleteShader(s gl.Shader) {
	delete(f.shaders, s.V)
}

func (f *Functions) DeleteSync(s gl.Sync) {
	delete(f.syncs, s.V)
}

func (f *Functions) DeleteTexture(v gl.Texture) {
	t, ok := f.textures[v.V]
	if !ok {
		return
	}
	t.drop()
	delete(f.textures, v.V)
	for i, u := range f.units {
		if u == v.V {
			f.units[i] = 0
		}
	}
	// Deleting a texture detaches it from the bound framebuffers.
	for _, name := range []uint{f.readFBO, f.drawFBO} {
		if fb := f.framebuffers[name]; fb != nil && fb.color == v.V {
			fb.color = 0
		}
	}
}

func (f *Functions) DeleteVertexArray(a gl.VertexArray) {
	delete(f.vaos, a.V)
	if f.vao == a.V {
		f.vao = 0
	}
}

func (f *Functions) Disable(cap gl.Enum) {
	f.setCap(cap, false)
}

func (f *Functions) Enable(cap gl.Enum) {
	f.setCap(cap, true)
}

func (f *Functions) setCap(cap gl.Enum, on bool) {
	switch cap {
	case gl.BLEND:
		f.blend = on
	case gl.SCISSOR_TEST:
		f.scissorTest = on
	default:
		f.setError(gl.INVALID_ENUM)
	}
}

func (f *Functions) currentVAO() *vertexArray {
	if f.vao == 0 {
		return &f.defaultVAO
	}
	return f.vaos[f.vao]
}

func (f *Functions) EnableVertexAttribArray(a gl.Attrib) {
	if int(a) >= maxAttribs {
		f.setError(gl.INVALID_VALUE)
		return
	}
	f.currentVAO().attribs[a].enabled = true
}

func (f *Functions) FenceSync(condition gl.Enum, flags gl.Enum) gl.Sync {
	if condition != gl.SYNC_GPU_COMMANDS_COMPLETE {
		f.setError(gl.INVALID_ENUM)
		return gl.Sync{}
	}
	n := uintptr(f.name())
	f.syncs[n] = true
	return gl.Sync{V: n}
}

func (f *Functions) Finish() {}

func (f *Functions) Flush() {}

func (f *Functions) FramebufferTexture2D(target, attachment, texTarget gl.Enum, t gl.Texture, level int) {
	name := f.drawFBO
	if target == gl.READ_FRAMEBUFFER {
		name = f.readFBO
	}
	fb := f.framebuffers[name]
	switch {
	case fb == nil:
		f.setError(gl.INVALID_OPERATION)
	case attachment != gl.COLOR_ATTACHMENT0 || texTarget != gl.TEXTURE_2D:
		f.setError(gl.INVALID_ENUM)
	case level != 0:
		f.setError(gl.INVALID_VALUE)
	default:
		if _, ok := f.textures[t.V]; t.Valid() && !ok {
			f.setError(gl.INVALID_OPERATION)
			return
		}
		fb.color = t.V
	}
}

func (f *Functions) GetError() gl.Enum {
	e := f.err
	f.err = gl.NO_ERROR
	return e
}

func (f *Functions) GetInteger(pname gl.Enum) int {
	switch pname {
	case gl.ACTIVE_TEXTURE:
		return gl.TEXTURE0 + f.activeUnit
	case gl.ARRAY_BUFFER_BINDING:
		return int(f.arrayBuffer)
	case gl.CURRENT_PROGRAM:
		return int(f.program)
	case gl.FRAMEBUFFER_BINDING:
		return int(f.drawFBO)
	case gl.READ_FRAMEBUFFER_BINDING:
		return int(f.readFBO)
	case gl.MAX_TEXTURE_SIZE:
		return maxTextureSize
	case gl.NUM_EXTENSIONS:
		return len(f.exts)
	case gl.TEXTURE_BINDING_2D:
		return int(f.units[f.activeUnit])
	case gl.VERTEX_ARRAY_BINDING:
		return int(f.vao)
	}
	f.setError(gl.INVALID_ENUM)
	return 0
}

func (f *Functions) GetProgrami(p gl.Program, pname gl.Enum) int {
	prog, ok := f.programs[p.V]
	if !ok {
		f.setError(gl.INVALID_VALUE)
		return 0
	}
	switch pname {
	case gl.LINK_STATUS:
		if prog.linked {
			return gl.TRUE
		}
		return gl.FALSE
	case gl.INFO_LOG_LENGTH:
		return len(prog.log)
	}
	f.setError(gl.INVALID_ENUM)
	return 0
}

func (f *Functions) GetProgramInfoLog(p gl.Program) string {
	if prog, ok := f.programs[p.V]; ok {
		return prog.log
	}
	return ""
}

func (f *Functions) GetShaderi(s gl.Shader, pname gl.Enum) int {
	sh, ok := f.shaders[s.V]
	if !ok {
		f.setError(gl.INVALID_VALUE)
		return 0
	}
	switch pname {
	case gl.COMPILE_STATUS:
		if sh.compiled {
			return gl.TRUE
		}
		return gl.FALSE
	case gl.INFO_LOG_LENGTH:
		return len(sh.log)
	}
	f.setError(gl.INVALID_ENUM)
	return 0
}

func (f *Functions) GetShaderInfoLog(s gl.Shader) string {
	if sh, ok := f.shaders[s.V]; ok {
		return sh.log
	}
	return ""
}

func (f *Functions) GetString(pname gl.Enum) string {
	switch pname {
	case gl.VENDOR:
		return "vmdisplay"
	case gl.RENDERER:
		return "swgl"
	case gl.VERSION:
		return fmt.Sprintf("OpenGL ES %d.%d swgl", f.version[0], f.version[1])
	case gl.SHADING_LANGUAGE_VERSION:
		if f.version[0] >= 3 {
			return "OpenGL ES GLSL ES 3.00"
		}
		return "OpenGL ES GLSL ES 1.00"
	case gl.EXTENSIONS:
		return strings.Join(f.exts, " ")
	}
	f.setError(gl.INVALID_ENUM)
	return ""
}

func (f *Functions) GetStringi(pname gl.Enum, index int) string {
	if pname != gl.EXTENSIONS {
		f.setError(gl.INVALID_ENUM)
		return ""
	}
	if index < 0 || index >= len(f.exts) {
		f.setError(gl.INVALID_VALUE)
		return ""
	}
	return f.exts[index]
}

func (f *Functions) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	prog, ok := f.programs[p.V]
	if !ok || !prog.linked {
		f.setError(gl.INVALID_OPERATION)
		return gl.Uniform{V: -1}
	}
	for i, n := range prog.uniforms {
		if n == name {
			return gl.Uniform{V: i}
		}
	}
	prog.uniforms = append(prog.uniforms, name)
	return gl.Uniform{V: len(prog.uniforms) - 1}
}

func (f *Functions) LinkProgram(p gl.Program) {
	prog, ok := f.programs[p.V]
	if !ok {
		f.setError(gl.INVALID_VALUE)
		return
	}
	var vs, fs bool
	for _, name := range prog.shaders {
		sh := f.shaders[name]
		if sh == nil || !sh.compiled {
			continue
		}
		vs = vs || sh.typ == gl.VERTEX_SHADER
		fs = fs || sh.typ == gl.FRAGMENT_SHADER
	}
	prog.linked = vs && fs
	prog.log = ""
	if !prog.linked {
		prog.log = "program needs a compiled vertex and fragment shader"
	}
}

func (f *Functions) PixelStorei(pname gl.Enum, param int) {
	switch pname {
	case gl.PACK_ROW_LENGTH:
		f.packRowLength = param
	case gl.UNPACK_ROW_LENGTH:
		f.unpackRowLength = param
	case gl.PACK_ALIGNMENT, gl.UNPACK_ALIGNMENT:
		// Rows of 32 bit texels are always aligned.
	default:
		f.setError(gl.INVALID_ENUM)
	}
}

func (f *Functions) Scissor(x, y, width, height int) {
	if width < 0 || height < 0 {
		f.setError(gl.INVALID_VALUE)
		return
	}
	f.scissor = image.Rect(x, y, x+width, y+height)
}

func (f *Functions) ShaderSource(s gl.Shader, src string) {
	sh, ok := f.shaders[s.V]
	if !ok {
		f.setError(gl.INVALID_VALUE)
		return
	}
	sh.src = src
}

func (f *Functions) TexImage2D(target gl.Enum, level int, internalFormat gl.Enum, width, height int, format, ty gl.Enum) {
	t := f.boundTexture(target)
	if t == nil {
		return
	}
	if level != 0 || width <= 0 || height <= 0 || width > maxTextureSize || height > maxTextureSize {
		f.setError(gl.INVALID_VALUE)
		return
	}
	var layout Layout
	switch internalFormat {
	case gl.RGBA, gl.RGBA8:
		layout = LayoutRGBA
	case gl.BGRA_EXT:
		layout = LayoutBGRA
	default:
		f.setError(gl.INVALID_ENUM)
		return
	}
	if ty != gl.UNSIGNED_BYTE {
		f.setError(gl.INVALID_ENUM)
		return
	}
	t.drop()
	t.Storage = newTexture(width, height, layout).Storage
}

func (f *Functions) boundTexture(target gl.Enum) *texture {
	if target != gl.TEXTURE_2D {
		f.setError(gl.INVALID_ENUM)
		return nil
	}
	t := f.textures[f.units[f.activeUnit]]
	if t == nil {
		f.setError(gl.INVALID_OPERATION)
	}
	return t
}

func (f *Functions) TexParameteri(target, pname gl.Enum, param int) {
	t := f.boundTexture(target)
	if t == nil {
		return
	}
	switch pname {
	case gl.TEXTURE_MAG_FILTER:
		t.magFilter = gl.Enum(param)
	case gl.TEXTURE_MIN_FILTER, gl.TEXTURE_WRAP_S, gl.TEXTURE_WRAP_T:
		// Quads sample at or above texel size and never wrap.
	default:
		f.setError(gl.INVALID_ENUM)
	}
}

func (f *Functions) TexSubImage2D(target gl.Enum, level int, x, y, width, height int, format, ty gl.Enum, data []byte) {
	t := f.boundTexture(target)
	if t == nil {
		return
	}
	r := image.Rect(x, y, x+width, y+height)
	if level != 0 || t.Pix == nil || !r.In(t.bounds()) {
		f.setError(gl.INVALID_VALUE)
		return
	}
	if ty != gl.UNSIGNED_BYTE || (format != gl.RGBA && format != gl.BGRA_EXT) {
		f.setError(gl.INVALID_ENUM)
		return
	}
	stride := rowStride(f.unpackRowLength, width)
	if height > 0 && len(data) < (height-1)*stride+width*4 {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	for row := 0; row < height; row++ {
		src := data[row*stride:]
		for col := 0; col < width; col++ {
			t.setRGBA(x+col, y+row, decode(format, src[col*4:col*4+4]))
		}
	}
}

func rowStride(rowLength, width int) int {
	if rowLength > 0 {
		return rowLength * 4
	}
	return width * 4
}

func (f *Functions) Uniform1i(dst gl.Uniform, v int) {
	prog := f.programs[f.program]
	if prog == nil || dst.V < 0 || dst.V >= len(prog.uniforms) {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	prog.values[dst.V] = v
}

func (f *Functions) UseProgram(p gl.Program) {
	if prog, ok := f.programs[p.V]; p.Valid() && (!ok || !prog.linked) {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	f.program = p.V
}

func (f *Functions) VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int) {
	if int(dst) >= maxAttribs || size < 1 || size > 4 || stride < 0 {
		f.setError(gl.INVALID_VALUE)
		return
	}
	if ty != gl.FLOAT {
		f.setError(gl.INVALID_ENUM)
		return
	}
	if f.arrayBuffer == 0 {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	a := &f.currentVAO().attribs[dst]
	a.size, a.ty, a.stride, a.offset, a.buffer = size, ty, stride, offset, f.arrayBuffer
}

func (f *Functions) Viewport(x, y, width, height int) {
	if width < 0 || height < 0 {
		f.setError(gl.INVALID_VALUE)
		return
	}
	f.viewportSet = true
	f.viewport = image.Rect(x, y, x+width, y+height)
}

// vertex reads component pair i of attribute a.
func (f *Functions) vertex(a attrib, i int) ([2]float64, bool) {
	data := f.buffers[a.buffer]
	stride := a.stride
	if stride == 0 {
		stride = a.size * 4
	}
	off := a.offset + i*stride
	if a.size < 2 || off < 0 || off+8 > len(data) {
		return [2]float64{}, false
	}
	x := math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))
	return [2]float64{float64(x), float64(y)}, true
}
