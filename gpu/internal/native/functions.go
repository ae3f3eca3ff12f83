// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux && cgo

package native

/*
#cgo CFLAGS: -Werror
#cgo LDFLAGS: -lEGL

#include <stdlib.h>
#include <stdint.h>
#include <EGL/egl.h>
#include <GLES3/gl3.h>

// vm_gl holds the entry points of one context, resolved through
// eglGetProcAddress so that desktop and ES contexts share the table.
struct vm_gl {
	void (*ActiveTexture)(GLenum texture);
	void (*AttachShader)(GLuint program, GLuint shader);
	void (*BindAttribLocation)(GLuint program, GLuint index, const GLchar *name);
	void (*BindBuffer)(GLenum target, GLuint buffer);
	void (*BindFramebuffer)(GLenum target, GLuint framebuffer);
	void (*BindTexture)(GLenum target, GLuint texture);
	void (*BindVertexArray)(GLuint array);
	void (*BlendFunc)(GLenum sfactor, GLenum dfactor);
	void (*BlitFramebuffer)(GLint sx0, GLint sy0, GLint sx1, GLint sy1, GLint dx0, GLint dy0, GLint dx1, GLint dy1, GLbitfield mask, GLenum filter);
	void (*BufferData)(GLenum target, GLsizeiptr size, const void *data, GLenum usage);
	GLenum (*CheckFramebufferStatus)(GLenum target);
	void (*Clear)(GLbitfield mask);
	void (*ClearColor)(GLfloat r, GLfloat g, GLfloat b, GLfloat a);
	GLenum (*ClientWaitSync)(GLsync sync, GLbitfield flags, GLuint64 timeout);
	void (*CompileShader)(GLuint shader);
	void (*GenBuffers)(GLsizei n, GLuint *buffers);
	void (*GenFramebuffers)(GLsizei n, GLuint *framebuffers);
	GLuint (*CreateProgram)(void);
	GLuint (*CreateShader)(GLenum type);
	void (*GenTextures)(GLsizei n, GLuint *textures);
	void (*GenVertexArrays)(GLsizei n, GLuint *arrays);
	void (*DeleteBuffers)(GLsizei n, const GLuint *buffers);
	void (*DeleteFramebuffers)(GLsizei n, const GLuint *framebuffers);
	void (*DeleteProgram)(GLuint program);
	void (*DeleteShader)(GLuint shader);
	void (*DeleteSync)(GLsync sync);
	void (*DeleteTextures)(GLsizei n, const GLuint *textures);
	void (*DeleteVertexArrays)(GLsizei n, const GLuint *arrays);
	void (*Disable)(GLenum cap);
	void (*DrawArrays)(GLenum mode, GLint first, GLsizei count);
	void (*Enable)(GLenum cap);
	void (*EnableVertexAttribArray)(GLuint index);
	GLsync (*FenceSync)(GLenum condition, GLbitfield flags);
	void (*Finish)(void);
	void (*Flush)(void);
	void (*FramebufferTexture2D)(GLenum target, GLenum attachment, GLenum textarget, GLuint texture, GLint level);
	GLenum (*GetError)(void);
	void (*GetIntegerv)(GLenum pname, GLint *data);
	void (*GetProgramiv)(GLuint program, GLenum pname, GLint *params);
	void (*GetProgramInfoLog)(GLuint program, GLsizei bufSize, GLsizei *length, GLchar *infoLog);
	void (*GetShaderiv)(GLuint shader, GLenum pname, GLint *params);
	void (*GetShaderInfoLog)(GLuint shader, GLsizei bufSize, GLsizei *length, GLchar *infoLog);
	const GLubyte *(*GetString)(GLenum name);
	const GLubyte *(*GetStringi)(GLenum name, GLuint index);
	GLint (*GetUniformLocation)(GLuint program, const GLchar *name);
	void (*LinkProgram)(GLuint program);
	void (*PixelStorei)(GLenum pname, GLint param);
	void (*ReadPixels)(GLint x, GLint y, GLsizei width, GLsizei height, GLenum format, GLenum type, void *pixels);
	void (*Scissor)(GLint x, GLint y, GLsizei width, GLsizei height);
	void (*ShaderSource)(GLuint shader, GLsizei count, const GLchar *const *string, const GLint *length);
	void (*TexImage2D)(GLenum target, GLint level, GLint internalformat, GLsizei width, GLsizei height, GLint border, GLenum format, GLenum type, const void *pixels);
	void (*TexParameteri)(GLenum target, GLenum pname, GLint param);
	void (*TexSubImage2D)(GLenum target, GLint level, GLint xoffset, GLint yoffset, GLsizei width, GLsizei height, GLenum format, GLenum type, const void *pixels);
	void (*Uniform1i)(GLint location, GLint v0);
	void (*UseProgram)(GLuint program);
	void (*VertexAttribPointer)(GLuint index, GLint size, GLenum type, GLboolean normalized, GLsizei stride, const void *pointer);
	void (*Viewport)(GLint x, GLint y, GLsizei width, GLsizei height);
	void (*EGLImageTargetTexture2DOES)(GLenum target, void *image);
};

#define VM_LOAD(f, name) (f)->name = (__typeof__((f)->name))eglGetProcAddress("gl" #name)
#define VM_REQUIRE(f, name) do { VM_LOAD(f, name); if ((f)->name == NULL) return "gl" #name; } while (0)

// vm_gl_load resolves the table for the current context and returns the
// name of the first missing required entry point, or NULL.
static const char *vm_gl_load(struct vm_gl *f) {
	VM_REQUIRE(f, ActiveTexture);
	VM_REQUIRE(f, AttachShader);
	VM_REQUIRE(f, BindAttribLocation);
	VM_REQUIRE(f, BindBuffer);
	VM_REQUIRE(f, BindFramebuffer);
	VM_REQUIRE(f, BindTexture);
	VM_REQUIRE(f, BlendFunc);
	VM_REQUIRE(f, BufferData);
	VM_REQUIRE(f, CheckFramebufferStatus);
	VM_REQUIRE(f, Clear);
	VM_REQUIRE(f, ClearColor);
	VM_REQUIRE(f, CompileShader);
	VM_REQUIRE(f, GenBuffers);
	VM_REQUIRE(f, GenFramebuffers);
	VM_REQUIRE(f, CreateProgram);
	VM_REQUIRE(f, CreateShader);
	VM_REQUIRE(f, GenTextures);
	VM_REQUIRE(f, DeleteBuffers);
	VM_REQUIRE(f, DeleteFramebuffers);
	VM_REQUIRE(f, DeleteProgram);
	VM_REQUIRE(f, DeleteShader);
	VM_REQUIRE(f, DeleteTextures);
	VM_REQUIRE(f, Disable);
	VM_REQUIRE(f, DrawArrays);
	VM_REQUIRE(f, Enable);
	VM_REQUIRE(f, EnableVertexAttribArray);
	VM_REQUIRE(f, Finish);
	VM_REQUIRE(f, Flush);
	VM_REQUIRE(f, FramebufferTexture2D);
	VM_REQUIRE(f, GetError);
	VM_REQUIRE(f, GetIntegerv);
	VM_REQUIRE(f, GetProgramiv);
	VM_REQUIRE(f, GetProgramInfoLog);
	VM_REQUIRE(f, GetShaderiv);
	VM_REQUIRE(f, GetShaderInfoLog);
	VM_REQUIRE(f, GetString);
	VM_REQUIRE(f, GetUniformLocation);
	VM_REQUIRE(f, LinkProgram);
	VM_REQUIRE(f, PixelStorei);
	VM_REQUIRE(f, ReadPixels);
	VM_REQUIRE(f, Scissor);
	VM_REQUIRE(f, ShaderSource);
	VM_REQUIRE(f, TexImage2D);
	VM_REQUIRE(f, TexParameteri);
	VM_REQUIRE(f, TexSubImage2D);
	VM_REQUIRE(f, Uniform1i);
	VM_REQUIRE(f, UseProgram);
	VM_REQUIRE(f, VertexAttribPointer);
	VM_REQUIRE(f, Viewport);
	// Entry points of OpenGL ES 3 and extensions.
	VM_LOAD(f, BindVertexArray);
	VM_LOAD(f, GenVertexArrays);
	VM_LOAD(f, DeleteVertexArrays);
	VM_LOAD(f, BlitFramebuffer);
	VM_LOAD(f, FenceSync);
	VM_LOAD(f, ClientWaitSync);
	VM_LOAD(f, DeleteSync);
	VM_LOAD(f, GetStringi);
	VM_LOAD(f, EGLImageTargetTexture2DOES);
	return NULL;
}

static void vm_glBindVertexArray(struct vm_gl *f, GLuint a) {
	if (f->BindVertexArray != NULL) {
		f->BindVertexArray(a);
	}
}

static void vm_glBlitFramebuffer(struct vm_gl *f, GLint sx0, GLint sy0, GLint sx1, GLint sy1, GLint dx0, GLint dy0, GLint dx1, GLint dy1, GLbitfield mask, GLenum filter) {
	if (f->BlitFramebuffer != NULL) {
		f->BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1, mask, filter);
	}
}

static GLenum vm_glClientWaitSync(struct vm_gl *f, uintptr_t s, GLbitfield flags, GLuint64 timeout) {
	if (f->ClientWaitSync == NULL) {
		return GL_WAIT_FAILED;
	}
	return f->ClientWaitSync((GLsync)s, flags, timeout);
}

static GLuint vm_glGenVertexArray(struct vm_gl *f) {
	GLuint a = 0;
	if (f->GenVertexArrays != NULL) {
		f->GenVertexArrays(1, &a);
	}
	return a;
}

static void vm_glDeleteVertexArray(struct vm_gl *f, GLuint a) {
	if (f->DeleteVertexArrays != NULL) {
		f->DeleteVertexArrays(1, &a);
	}
}

static void vm_glDeleteSync(struct vm_gl *f, uintptr_t s) {
	if (f->DeleteSync != NULL) {
		f->DeleteSync((GLsync)s);
	}
}

static uintptr_t vm_glFenceSync(struct vm_gl *f, GLenum condition, GLbitfield flags) {
	if (f->FenceSync == NULL) {
		return 0;
	}
	return (uintptr_t)f->FenceSync(condition, flags);
}

static const GLubyte *vm_glGetStringi(struct vm_gl *f, GLenum name, GLuint index) {
	if (f->GetStringi == NULL) {
		return NULL;
	}
	return f->GetStringi(name, index);
}

static void vm_glShaderSource(struct vm_gl *f, GLuint s, const GLchar *src) {
	f->ShaderSource(s, 1, &src, NULL);
}

// The pointer-free version of glVertexAttribPointer, to avoid the Cgo pointer checks.
static void vm_glVertexAttribPointer(struct vm_gl *f, GLuint index, GLint size, GLenum type, GLboolean normalized, GLsizei stride, uintptr_t offset) {
	f->VertexAttribPointer(index, size, type, normalized, stride, (const void *)offset);
}

static int vm_glEGLImageTargetTexture2D(struct vm_gl *f, GLenum target, uintptr_t image) {
	if (f->EGLImageTargetTexture2DOES == NULL) {
		return 0;
	}
	f->EGLImageTargetTexture2DOES(target, (void *)image);
	return 1;
}

static void vm_glActiveTexture(struct vm_gl *f, GLenum t) { f->ActiveTexture(t); }
static void vm_glAttachShader(struct vm_gl *f, GLuint p, GLuint s) { f->AttachShader(p, s); }
static void vm_glBindAttribLocation(struct vm_gl *f, GLuint p, GLuint i, const GLchar *n) { f->BindAttribLocation(p, i, n); }
static void vm_glBindBuffer(struct vm_gl *f, GLenum t, GLuint b) { f->BindBuffer(t, b); }
static void vm_glBindFramebuffer(struct vm_gl *f, GLenum t, GLuint b) { f->BindFramebuffer(t, b); }
static void vm_glBindTexture(struct vm_gl *f, GLenum t, GLuint b) { f->BindTexture(t, b); }
static void vm_glBlendFunc(struct vm_gl *f, GLenum s, GLenum d) { f->BlendFunc(s, d); }
static void vm_glBufferData(struct vm_gl *f, GLenum t, GLsizeiptr n, const void *d, GLenum u) { f->BufferData(t, n, d, u); }
static GLenum vm_glCheckFramebufferStatus(struct vm_gl *f, GLenum t) { return f->CheckFramebufferStatus(t); }
static void vm_glClear(struct vm_gl *f, GLbitfield m) { f->Clear(m); }
static void vm_glClearColor(struct vm_gl *f, GLfloat r, GLfloat g, GLfloat b, GLfloat a) { f->ClearColor(r, g, b, a); }
static void vm_glCompileShader(struct vm_gl *f, GLuint s) { f->CompileShader(s); }
static void vm_glGenBuffers(struct vm_gl *f, GLsizei n, GLuint *v) { f->GenBuffers(n, v); }
static void vm_glGenFramebuffers(struct vm_gl *f, GLsizei n, GLuint *v) { f->GenFramebuffers(n, v); }
static GLuint vm_glCreateProgram(struct vm_gl *f) { return f->CreateProgram(); }
static GLuint vm_glCreateShader(struct vm_gl *f, GLenum t) { return f->CreateShader(t); }
static void vm_glGenTextures(struct vm_gl *f, GLsizei n, GLuint *v) { f->GenTextures(n, v); }
static void vm_glDeleteBuffers(struct vm_gl *f, GLsizei n, const GLuint *v) { f->DeleteBuffers(n, v); }
static void vm_glDeleteFramebuffers(struct vm_gl *f, GLsizei n, const GLuint *v) { f->DeleteFramebuffers(n, v); }
static void vm_glDeleteProgram(struct vm_gl *f, GLuint p) { f->DeleteProgram(p); }
static void vm_glDeleteShader(struct vm_gl *f, GLuint s) { f->DeleteShader(s); }
static void vm_glDeleteTextures(struct vm_gl *f, GLsizei n, const GLuint *v) { f->DeleteTextures(n, v); }
static void vm_glDisable(struct vm_gl *f, GLenum c) { f->Disable(c); }
static void vm_glDrawArrays(struct vm_gl *f, GLenum m, GLint first, GLsizei n) { f->DrawArrays(m, first, n); }
static void vm_glEnable(struct vm_gl *f, GLenum c) { f->Enable(c); }
static void vm_glEnableVertexAttribArray(struct vm_gl *f, GLuint i) { f->EnableVertexAttribArray(i); }
static void vm_glFinish(struct vm_gl *f) { f->Finish(); }
static void vm_glFlush(struct vm_gl *f) { f->Flush(); }
static void vm_glFramebufferTexture2D(struct vm_gl *f, GLenum t, GLenum a, GLenum tt, GLuint tex, GLint l) { f->FramebufferTexture2D(t, a, tt, tex, l); }
static GLenum vm_glGetError(struct vm_gl *f) { return f->GetError(); }
static void vm_glGetIntegerv(struct vm_gl *f, GLenum p, GLint *v) { f->GetIntegerv(p, v); }
static void vm_glGetProgramiv(struct vm_gl *f, GLuint p, GLenum n, GLint *v) { f->GetProgramiv(p, n, v); }
static void vm_glGetProgramInfoLog(struct vm_gl *f, GLuint p, GLsizei n, GLchar *log) { f->GetProgramInfoLog(p, n, NULL, log); }
static void vm_glGetShaderiv(struct vm_gl *f, GLuint s, GLenum n, GLint *v) { f->GetShaderiv(s, n, v); }
static void vm_glGetShaderInfoLog(struct vm_gl *f, GLuint s, GLsizei n, GLchar *log) { f->GetShaderInfoLog(s, n, NULL, log); }
static const GLubyte *vm_glGetString(struct vm_gl *f, GLenum n) { return f->GetString(n); }
static GLint vm_glGetUniformLocation(struct vm_gl *f, GLuint p, const GLchar *n) { return f->GetUniformLocation(p, n); }
static void vm_glLinkProgram(struct vm_gl *f, GLuint p) { f->LinkProgram(p); }
static void vm_glPixelStorei(struct vm_gl *f, GLenum n, GLint v) { f->PixelStorei(n, v); }
static void vm_glReadPixels(struct vm_gl *f, GLint x, GLint y, GLsizei w, GLsizei h, GLenum fmt, GLenum ty, void *d) { f->ReadPixels(x, y, w, h, fmt, ty, d); }
static void vm_glScissor(struct vm_gl *f, GLint x, GLint y, GLsizei w, GLsizei h) { f->Scissor(x, y, w, h); }
static void vm_glTexImage2D(struct vm_gl *f, GLenum t, GLint l, GLint ifmt, GLsizei w, GLsizei h, GLenum fmt, GLenum ty) { f->TexImage2D(t, l, ifmt, w, h, 0, fmt, ty, NULL); }
static void vm_glTexParameteri(struct vm_gl *f, GLenum t, GLenum n, GLint v) { f->TexParameteri(t, n, v); }
static void vm_glTexSubImage2D(struct vm_gl *f, GLenum t, GLint l, GLint x, GLint y, GLsizei w, GLsizei h, GLenum fmt, GLenum ty, const void *d) { f->TexSubImage2D(t, l, x, y, w, h, fmt, ty, d); }
static void vm_glUniform1i(struct vm_gl *f, GLint u, GLint v) { f->Uniform1i(u, v); }
static void vm_glUseProgram(struct vm_gl *f, GLuint p) { f->UseProgram(p); }
static void vm_glViewport(struct vm_gl *f, GLint x, GLint y, GLsizei w, GLsizei h) { f->Viewport(x, y, w, h); }
*/
import "C"

import (
	"errors"
	"unsafe"

	"gioui.org/vmdisplay/internal/gl"
)

// functions implements gl.Functions over a table resolved for one
// context.
type functions struct {
	c     *C.struct_vm_gl
	ints  [100]C.GLint
	uints [100]C.GLuint
}

var _ gl.Functions = (*functions)(nil)

// loadFunctions resolves the entry points of the current context.
func loadFunctions() (*functions, error) {
	c := (*C.struct_vm_gl)(C.calloc(1, C.size_t(unsafe.Sizeof(C.struct_vm_gl{}))))
	if missing := C.vm_gl_load(c); missing != nil {
		C.free(unsafe.Pointer(c))
		return nil, errors.New("native: missing " + C.GoString(missing))
	}
	return &functions{c: c}, nil
}

func (f *functions) release() {
	if f.c != nil {
		C.free(unsafe.Pointer(f.c))
		f.c = nil
	}
}

func (f *functions) hasBlit() bool {
	return f.c.BlitFramebuffer != nil
}

func (f *functions) hasSync() bool {
	return f.c.FenceSync != nil && f.c.ClientWaitSync != nil && f.c.DeleteSync != nil
}

func (f *functions) hasVertexArrays() bool {
	return f.c.BindVertexArray != nil && f.c.GenVertexArrays != nil && f.c.DeleteVertexArrays != nil
}

// eglImageTargetTexture2D specifies the storage of the texture bound to
// target as the EGLImage img. It reports false if the entry point is
// missing.
func (f *functions) eglImageTargetTexture2D(target gl.Enum, img uintptr) bool {
	return C.vm_glEGLImageTargetTexture2D(f.c, C.GLenum(target), C.uintptr_t(img)) != 0
}

func glBool(v bool) C.GLboolean {
	if v {
		return C.GL_TRUE
	}
	return C.GL_FALSE
}

func (f *functions) ActiveTexture(texture gl.Enum) {
	C.vm_glActiveTexture(f.c, C.GLenum(texture))
}

func (f *functions) AttachShader(p gl.Program, s gl.Shader) {
	C.vm_glAttachShader(f.c, C.GLuint(p.V), C.GLuint(s.V))
}

func (f *functions) BindAttribLocation(p gl.Program, a gl.Attrib, name string) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	C.vm_glBindAttribLocation(f.c, C.GLuint(p.V), C.GLuint(a), cname)
}

func (f *functions) BindBuffer(target gl.Enum, b gl.Buffer) {
	C.vm_glBindBuffer(f.c, C.GLenum(target), C.GLuint(b.V))
}

func (f *functions) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) {
	C.vm_glBindFramebuffer(f.c, C.GLenum(target), C.GLuint(fb.V))
}

func (f *functions) BindTexture(target gl.Enum, t gl.Texture) {
	C.vm_glBindTexture(f.c, C.GLenum(target), C.GLuint(t.V))
}

func (f *functions) BindVertexArray(a gl.VertexArray) {
	C.vm_glBindVertexArray(f.c, C.GLuint(a.V))
}

func (f *functions) BlendFunc(sfactor, dfactor gl.Enum) {
	C.vm_glBlendFunc(f.c, C.GLenum(sfactor), C.GLenum(dfactor))
}

func (f *functions) BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask gl.Enum, filter gl.Enum) {
	C.vm_glBlitFramebuffer(f.c,
		C.GLint(sx0), C.GLint(sy0), C.GLint(sx1), C.GLint(sy1),
		C.GLint(dx0), C.GLint(dy0), C.GLint(dx1), C.GLint(dy1),
		C.GLbitfield(mask), C.GLenum(filter))
}

func (f *functions) BufferData(target gl.Enum, src []byte, usage gl.Enum) {
	var p unsafe.Pointer
	if len(src) > 0 {
		p = unsafe.Pointer(&src[0])
	}
	C.vm_glBufferData(f.c, C.GLenum(target), C.GLsizeiptr(len(src)), p, C.GLenum(usage))
}

func (f *functions) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	return gl.Enum(C.vm_glCheckFramebufferStatus(f.c, C.GLenum(target)))
}

func (f *functions) Clear(mask gl.Enum) {
	C.vm_glClear(f.c, C.GLbitfield(mask))
}

func (f *functions) ClearColor(red, green, blue, alpha float32) {
	C.vm_glClearColor(f.c, C.GLfloat(red), C.GLfloat(green), C.GLfloat(blue), C.GLfloat(alpha))
}

func (f *functions) ClientWaitSync(s gl.Sync, flags gl.Enum, timeout uint64) gl.Enum {
	return gl.Enum(C.vm_glClientWaitSync(f.c, C.uintptr_t(s.V), C.GLbitfield(flags), C.GLuint64(timeout)))
}

func (f *functions) CompileShader(s gl.Shader) {
	C.vm_glCompileShader(f.c, C.GLuint(s.V))
}

func (f *functions) CreateBuffer() gl.Buffer {
	C.vm_glGenBuffers(f.c, 1, &f.uints[0])
	return gl.Buffer{V: uint(f.uints[0])}
}

func (f *functions) CreateFramebuffer() gl.Framebuffer {
	C.vm_glGenFramebuffers(f.c, 1, &f.uints[0])
	return gl.Framebuffer{V: uint(f.uints[0])}
}

func (f *functions) CreateProgram() gl.Program {
	return gl.Program{V: uint(C.vm_glCreateProgram(f.c))}
}

func (f *functions) CreateShader(ty gl.Enum) gl.Shader {
	return gl.Shader{V: uint(C.vm_glCreateShader(f.c, C.GLenum(ty)))}
}

func (f *functions) CreateTexture() gl.Texture {
	C.vm_glGenTextures(f.c, 1, &f.uints[0])
	return gl.Texture{V: uint(f.uints[0])}
}

func (f *functions) CreateVertexArray() gl.VertexArray {
	return gl.VertexArray{V: uint(C.vm_glGenVertexArray(f.c))}
}

func (f *functions) DeleteBuffer(v gl.Buffer) {
	f.uints[0] = C.GLuint(v.V)
	C.vm_glDeleteBuffers(f.c, 1, &f.uints[0])
}

func (f *functions) DeleteFramebuffer(v gl.Framebuffer) {
	f.uints[0] = C.GLuint(v.V)
	C.vm_glDeleteFramebuffers(f.c, 1, &f.uints[0])
}

func (f *functions) DeleteProgram(p gl.Program) {
	C.vm_glDeleteProgram(f.c, C.GLuint(p.V))
}

func (f *functions) DeleteShader(s gl.Shader) {
	C.vm_glDeleteShader(f.c, C.GLuint(s.V))
}

func (f *functions) DeleteSync(s gl.Sync) {
	C.vm_glDeleteSync(f.c, C.uintptr_t(s.V))
}

func (f *functions) DeleteTexture(v gl.Texture) {
	f.uints[0] = C.GLuint(v.V)
	C.vm_glDeleteTextures(f.c, 1, &f.uints[0])
}

func (f *functions) DeleteVertexArray(a gl.VertexArray) {
	C.vm_glDeleteVertexArray(f.c, C.GLuint(a.V))
}

func (f *functions) Disable(cap gl.Enum) {
	C.vm_glDisable(f.c, C.GLenum(cap))
}

func (f *functions) DrawArrays(mode gl.Enum, first, count int) {
	C.vm_glDrawArrays(f.c, C.GLenum(mode), C.GLint(first), C.GLsizei(count))
}

func (f *functions) Enable(cap gl.Enum) {
	C.vm_glEnable(f.c, C.GLenum(cap))
}

func (f *functions) EnableVertexAttribArray(a gl.Attrib) {
	C.vm_glEnableVertexAttribArray(f.c, C.GLuint(a))
}

func (f *functions) FenceSync(condition gl.Enum, flags gl.Enum) gl.Sync {
	return gl.Sync{V: uintptr(C.vm_glFenceSync(f.c, C.GLenum(condition), C.GLbitfield(flags)))}
}

func (f *functions) Finish() {
	C.vm_glFinish(f.c)
}

func (f *functions) Flush() {
	C.vm_glFlush(f.c)
}

func (f *functions) FramebufferTexture2D(target, attachment, texTarget gl.Enum, t gl.Texture, level int) {
	C.vm_glFramebufferTexture2D(f.c, C.GLenum(target), C.GLenum(attachment), C.GLenum(texTarget), C.GLuint(t.V), C.GLint(level))
}

func (f *functions) GetError() gl.Enum {
	return gl.Enum(C.vm_glGetError(f.c))
}

func (f *functions) GetInteger(pname gl.Enum) int {
	C.vm_glGetIntegerv(f.c, C.GLenum(pname), &f.ints[0])
	return int(f.ints[0])
}

func (f *functions) GetProgrami(p gl.Program, pname gl.Enum) int {
	C.vm_glGetProgramiv(f.c, C.GLuint(p.V), C.GLenum(pname), &f.ints[0])
	return int(f.ints[0])
}

func (f *functions) GetProgramInfoLog(p gl.Program) string {
	n := f.GetProgrami(p, gl.INFO_LOG_LENGTH)
	if n == 0 {
		return ""
	}
	buf := make([]byte, n)
	C.vm_glGetProgramInfoLog(f.c, C.GLuint(p.V), C.GLsizei(len(buf)), (*C.GLchar)(unsafe.Pointer(&buf[0])))
	return string(buf[:n-1])
}

func (f *functions) GetShaderi(s gl.Shader, pname gl.Enum) int {
	C.vm_glGetShaderiv(f.c, C.GLuint(s.V), C.GLenum(pname), &f.ints[0])
	return int(f.ints[0])
}

func (f *functions) GetShaderInfoLog(s gl.Shader) string {
	n := f.GetShaderi(s, gl.INFO_LOG_LENGTH)
	if n == 0 {
		return ""
	}
	buf := make([]byte, n)
	C.vm_glGetShaderInfoLog(f.c, C.GLuint(s.V), C.GLsizei(len(buf)), (*C.GLchar)(unsafe.Pointer(&buf[0])))
	return string(buf[:n-1])
}

func (f *functions) GetString(pname gl.Enum) string {
	str := C.vm_glGetString(f.c, C.GLenum(pname))
	if str == nil {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(str)))
}

func (f *functions) GetStringi(pname gl.Enum, index int) string {
	str := C.vm_glGetStringi(f.c, C.GLenum(pname), C.GLuint(index))
	if str == nil {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(str)))
}

func (f *functions) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return gl.Uniform{V: int(C.vm_glGetUniformLocation(f.c, C.GLuint(p.V), cname))}
}

func (f *functions) LinkProgram(p gl.Program) {
	C.vm_glLinkProgram(f.c, C.GLuint(p.V))
}

func (f *functions) PixelStorei(pname gl.Enum, param int) {
	C.vm_glPixelStorei(f.c, C.GLenum(pname), C.GLint(param))
}

func (f *functions) ReadPixels(x, y, width, height int, format, ty gl.Enum, data []byte) {
	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	C.vm_glReadPixels(f.c, C.GLint(x), C.GLint(y), C.GLsizei(width), C.GLsizei(height), C.GLenum(format), C.GLenum(ty), p)
}

func (f *functions) Scissor(x, y, width, height int) {
	C.vm_glScissor(f.c, C.GLint(x), C.GLint(y), C.GLsizei(width), C.GLsizei(height))
}

func (f *functions) ShaderSource(s gl.Shader, src string) {
	csrc := C.CString(src)
	defer C.free(unsafe.Pointer(csrc))
	C.vm_glShaderSource(f.c, C.GLuint(s.V), csrc)
}

func (f *functions) TexImage2D(target gl.Enum, level int, internalFormat gl.Enum, width, height int, format, ty gl.Enum) {
	C.vm_glTexImage2D(f.c, C.GLenum(target), C.GLint(level), C.GLint(internalFormat), C.GLsizei(width), C.GLsizei(height), C.GLenum(format), C.GLenum(ty))
}

func (f *functions) TexParameteri(target, pname gl.Enum, param int) {
	C.vm_glTexParameteri(f.c, C.GLenum(target), C.GLenum(pname), C.GLint(param))
}

func (f *functions) TexSubImage2D(target gl.Enum, level int, x, y, width, height int, format, ty gl.Enum, data []byte) {
	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	C.vm_glTexSubImage2D(f.c, C.GLenum(target), C.GLint(level), C.GLint(x), C.GLint(y), C.GLsizei(width), C.GLsizei(height), C.GLenum(format), C.GLenum(ty), p)
}

func (f *functions) Uniform1i(dst gl.Uniform, v int) {
	C.vm_glUniform1i(f.c, C.GLint(dst.V), C.GLint(v))
}

func (f *functions) UseProgram(p gl.Program) {
	C.vm_glUseProgram(f.c, C.GLuint(p.V))
}

func (f *functions) VertexAttribPointer(dst gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int) {
	C.vm_glVertexAttribPointer(f.c, C.GLuint(dst), C.GLint(size), C.GLenum(ty), glBool(normalized), C.GLsizei(stride), C.uintptr_t(offset))
}

func (f *functions) Viewport(x, y, width, height int) {
	C.vm_glViewport(f.c, C.GLint(x), C.GLint(y), C.GLsizei(width), C.GLsizei(height))
}
