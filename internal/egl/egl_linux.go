// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux && cgo

// Package egl binds the EGL display, context and image entry points used
// to drive a DRM render node through a GBM device.
package egl

/*
#cgo CFLAGS: -Werror
#cgo LDFLAGS: -lEGL -lgbm

#include <stdlib.h>
#include <stdint.h>
#include <EGL/egl.h>
#include <gbm.h>

typedef EGLDisplay (*vm_getPlatformDisplayFn)(EGLenum platform, void *native, const EGLint *attribs);
typedef void *(*vm_createImageFn)(EGLDisplay dpy, EGLContext ctx, EGLenum target, EGLClientBuffer buffer, const EGLint *attribs);
typedef EGLBoolean (*vm_destroyImageFn)(EGLDisplay dpy, void *image);
typedef EGLBoolean (*vm_exportQueryFn)(EGLDisplay dpy, void *image, int *fourcc, int *planes, uint64_t *modifiers);
typedef EGLBoolean (*vm_exportFn)(EGLDisplay dpy, void *image, int *fds, EGLint *strides, EGLint *offsets);
typedef void *(*vm_createSyncFn)(EGLDisplay dpy, EGLenum type, const EGLint *attribs);
typedef EGLBoolean (*vm_destroySyncFn)(EGLDisplay dpy, void *sync);
typedef EGLint (*vm_dupFenceFn)(EGLDisplay dpy, void *sync);

static vm_getPlatformDisplayFn _eglGetPlatformDisplayEXT;
static vm_createImageFn _eglCreateImageKHR;
static vm_destroyImageFn _eglDestroyImageKHR;
static vm_exportQueryFn _eglExportDMABUFImageQueryMESA;
static vm_exportFn _eglExportDMABUFImageMESA;
static vm_createSyncFn _eglCreateSyncKHR;
static vm_destroySyncFn _eglDestroySyncKHR;
static vm_dupFenceFn _eglDupNativeFenceFDANDROID;

static void vm_loadExtensions(void) {
	_eglGetPlatformDisplayEXT = (vm_getPlatformDisplayFn)eglGetProcAddress("eglGetPlatformDisplayEXT");
	_eglCreateImageKHR = (vm_createImageFn)eglGetProcAddress("eglCreateImageKHR");
	_eglDestroyImageKHR = (vm_destroyImageFn)eglGetProcAddress("eglDestroyImageKHR");
	_eglExportDMABUFImageQueryMESA = (vm_exportQueryFn)eglGetProcAddress("eglExportDMABUFImageQueryMESA");
	_eglExportDMABUFImageMESA = (vm_exportFn)eglGetProcAddress("eglExportDMABUFImageMESA");
	_eglCreateSyncKHR = (vm_createSyncFn)eglGetProcAddress("eglCreateSyncKHR");
	_eglDestroySyncKHR = (vm_destroySyncFn)eglGetProcAddress("eglDestroySyncKHR");
	_eglDupNativeFenceFDANDROID = (vm_dupFenceFn)eglGetProcAddress("eglDupNativeFenceFDANDROID");
}

static EGLDisplay vm_getPlatformDisplay(EGLenum platform, void *native) {
	if (_eglGetPlatformDisplayEXT == NULL) {
		return EGL_NO_DISPLAY;
	}
	return _eglGetPlatformDisplayEXT(platform, native, NULL);
}

static EGLDisplay vm_getDisplay(uintptr_t native) {
	return eglGetDisplay((EGLNativeDisplayType)native);
}

static EGLSurface vm_createWindowSurface(EGLDisplay dpy, EGLConfig cfg, uintptr_t win) {
	return eglCreateWindowSurface(dpy, cfg, (EGLNativeWindowType)win, NULL);
}

static uintptr_t vm_createImage(EGLDisplay dpy, EGLContext ctx, EGLenum target, uintptr_t buffer, const EGLint *attribs) {
	if (_eglCreateImageKHR == NULL) {
		return 0;
	}
	return (uintptr_t)_eglCreateImageKHR(dpy, ctx, target, (EGLClientBuffer)buffer, attribs);
}

static EGLBoolean vm_destroyImage(EGLDisplay dpy, uintptr_t image) {
	if (_eglDestroyImageKHR == NULL) {
		return EGL_FALSE;
	}
	return _eglDestroyImageKHR(dpy, (void *)image);
}

static EGLBoolean vm_exportQuery(EGLDisplay dpy, uintptr_t image, int *fourcc, int *planes, uint64_t *modifier) {
	if (_eglExportDMABUFImageQueryMESA == NULL) {
		return EGL_FALSE;
	}
	return _eglExportDMABUFImageQueryMESA(dpy, (void *)image, fourcc, planes, modifier);
}

static EGLBoolean vm_export(EGLDisplay dpy, uintptr_t image, int *fd, EGLint *stride, EGLint *offset) {
	if (_eglExportDMABUFImageMESA == NULL) {
		return EGL_FALSE;
	}
	return _eglExportDMABUFImageMESA(dpy, (void *)image, fd, stride, offset);
}

static uintptr_t vm_createSync(EGLDisplay dpy, EGLenum type) {
	if (_eglCreateSyncKHR == NULL) {
		return 0;
	}
	return (uintptr_t)_eglCreateSyncKHR(dpy, type, NULL);
}

static void vm_destroySync(EGLDisplay dpy, uintptr_t sync) {
	if (_eglDestroySyncKHR != NULL) {
		_eglDestroySyncKHR(dpy, (void *)sync);
	}
}

static EGLint vm_dupNativeFence(EGLDisplay dpy, uintptr_t sync) {
	if (_eglDupNativeFenceFDANDROID == NULL) {
		return -1;
	}
	return _eglDupNativeFenceFDANDROID(dpy, (void *)sync);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"
)

// API is an EGL client API.
type API uint

// Attributes and tokens not present in every egl.h.
const (
	OPENGL_API    API = 0x30a2
	OPENGL_ES_API API = 0x30a0

	platformGBM = 0x31d7

	attribNone               = 0x3038
	attribSurfaceType        = 0x3033
	attribRenderableType     = 0x3040
	attribRedSize            = 0x3024
	attribGreenSize          = 0x3023
	attribBlueSize           = 0x3022
	attribAlphaSize          = 0x3021
	attribWidth              = 0x3057
	attribHeight             = 0x3056
	attribContextMajor       = 0x3098
	attribContextMinor       = 0x30fb
	attribContextProfileMask = 0x30fd
	attribContextDebug       = 0x31b0

	pbufferBit     = 0x0001
	windowBit      = 0x0004
	openGLES2Bit   = 0x0004
	openGLBit      = 0x0008
	openGLES3Bit   = 0x0040
	coreProfileBit = 0x0001

	imageGLTexture2D     = 0x30b1
	imagePreserved       = 0x30d2
	linuxDmaBuf          = 0x3270
	linuxDRMFourcc       = 0x3271
	dmaBufPlane0FD       = 0x3272
	dmaBufPlane0Offset   = 0x3273
	dmaBufPlane0Pitch    = 0x3274
	dmaBufPlane0ModLo    = 0x3443
	dmaBufPlane0ModHi    = 0x3444
	syncNativeFence      = 0x3144
	noNativeFenceFD      = -1
	modifierInvalid      = 0x00ffffffffffffff
	eglTrue              = 1
	extensionsQuery      = 0x3055
	vendorQuery          = 0x3053
)

// Error is a failed EGL call with the value of eglGetError.
type Error struct {
	Call string
	Code int
}

// Display is an initialized EGL display.
type Display struct {
	disp C.EGLDisplay
	gbm  *C.struct_gbm_device
	exts map[string]bool
	// Major and Minor are the EGL version of the display.
	Major, Minor int
	Vendor       string
}

// Context is an EGL context with the configuration it was created for.
type Context struct {
	disp *Display
	ctx  C.EGLContext
	cfg  C.EGLConfig
}

type Surface struct {
	disp *Display
	surf C.EGLSurface
}

// Image is an EGLImage handle.
type Image uintptr

// Sync is an EGL sync object.
type Sync uintptr

// Plane describes a single plane DMA-BUF for import and export.
type Plane struct {
	FD       int
	Width    int
	Height   int
	Fourcc   uint32
	Offset   int
	Stride   int
	Modifier uint64
}

var loadOnce sync.Once

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%x)", e.Call, ErrorString(e.Code), e.Code)
}

func lastError(call string) error {
	return &Error{Call: call, Code: int(C.eglGetError())}
}

// OpenGBM creates a GBM device on the render node descriptor fd and
// initializes the EGL display of the GBM platform. The descriptor stays
// owned by the caller and must outlive the display.
func OpenGBM(fd int) (*Display, error) {
	loadOnce.Do(func() { C.vm_loadExtensions() })
	clientExts := C.GoString(C.eglQueryString(nil, extensionsQuery))
	if !strings.Contains(clientExts, "EGL_MESA_platform_gbm") && !strings.Contains(clientExts, "EGL_KHR_platform_gbm") {
		return nil, errors.New("egl: the GBM platform is not supported")
	}
	gbm := C.gbm_create_device(C.int(fd))
	if gbm == nil {
		return nil, errors.New("egl: gbm_create_device failed")
	}
	disp := C.vm_getPlatformDisplay(platformGBM, unsafe.Pointer(gbm))
	if disp == nil {
		C.gbm_device_destroy(gbm)
		return nil, lastError("eglGetPlatformDisplayEXT")
	}
	d := &Display{disp: disp, gbm: gbm}
	if err := d.initialize(); err != nil {
		C.gbm_device_destroy(gbm)
		return nil, err
	}
	return d, nil
}

// OpenNative initializes the EGL display of a native window system
// display handle.
func OpenNative(native uintptr) (*Display, error) {
	loadOnce.Do(func() { C.vm_loadExtensions() })
	disp := C.vm_getDisplay(C.uintptr_t(native))
	if disp == nil {
		return nil, lastError("eglGetDisplay")
	}
	d := &Display{disp: disp}
	if err := d.initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Display) initialize() error {
	var major, minor C.EGLint
	if C.eglInitialize(d.disp, &major, &minor) != eglTrue {
		return lastError("eglInitialize")
	}
	d.Major, d.Minor = int(major), int(minor)
	d.Vendor = C.GoString(C.eglQueryString(d.disp, vendorQuery))
	d.exts = make(map[string]bool)
	for _, e := range strings.Fields(C.GoString(C.eglQueryString(d.disp, extensionsQuery))) {
		d.exts[e] = true
	}
	return nil
}

// Extensions returns the display extensions.
func (d *Display) Extensions() []string {
	exts := make([]string, 0, len(d.exts))
	for e := range d.exts {
		exts = append(exts, e)
	}
	return exts
}

func (d *Display) HasExtension(name string) bool {
	return d.exts[name]
}

// Terminate releases the display and its GBM device.
func (d *Display) Terminate() {
	C.eglMakeCurrent(d.disp, nil, nil, nil)
	C.eglTerminate(d.disp)
	C.eglReleaseThread()
	if d.gbm != nil {
		C.gbm_device_destroy(d.gbm)
		d.gbm = nil
	}
}

// CreateContext creates a context of exactly major.minor for api. core
// requests the core profile of desktop OpenGL. window requires a
// configuration that can back window surfaces.
func (d *Display) CreateContext(api API, major, minor int, core, debug, window bool, share *Context) (*Context, error) {
	if C.eglBindAPI(C.EGLenum(api)) != eglTrue {
		return nil, lastError("eglBindAPI")
	}
	cfg, err := d.chooseConfig(api, major, window)
	if err != nil {
		return nil, err
	}
	attribs := []C.EGLint{
		attribContextMajor, C.EGLint(major),
		attribContextMinor, C.EGLint(minor),
	}
	if api == OPENGL_API && core {
		attribs = append(attribs, attribContextProfileMask, coreProfileBit)
	}
	if debug {
		attribs = append(attribs, attribContextDebug, eglTrue)
	}
	attribs = append(attribs, attribNone)
	var shareCtx C.EGLContext
	if share != nil {
		shareCtx = share.ctx
	}
	ctx := C.eglCreateContext(d.disp, cfg, shareCtx, &attribs[0])
	if ctx == nil {
		return nil, lastError("eglCreateContext")
	}
	return &Context{disp: d, ctx: ctx, cfg: cfg}, nil
}

func (d *Display) chooseConfig(api API, major int, window bool) (C.EGLConfig, error) {
	renderable := C.EGLint(openGLBit)
	if api == OPENGL_ES_API {
		renderable = openGLES2Bit
		if major >= 3 {
			renderable = openGLES3Bit
		}
	}
	surfaces := []C.EGLint{pbufferBit}
	if window {
		surfaces = []C.EGLint{windowBit | pbufferBit, windowBit}
	} else {
		// GBM displays may offer no pbuffer configurations; contexts are
		// then only usable surfaceless.
		surfaces = append(surfaces, 0)
	}
	for _, st := range surfaces {
		attribs := []C.EGLint{
			attribRenderableType, renderable,
			attribSurfaceType, st,
			attribRedSize, 8,
			attribGreenSize, 8,
			attribBlueSize, 8,
			attribAlphaSize, 8,
			attribNone,
		}
		var cfg C.EGLConfig
		var n C.EGLint
		if C.eglChooseConfig(d.disp, &attribs[0], &cfg, 1, &n) != eglTrue {
			return nil, lastError("eglChooseConfig")
		}
		if n > 0 {
			return cfg, nil
		}
	}
	return nil, &Error{Call: "eglChooseConfig", Code: BAD_CONFIG}
}

// MakeCurrent binds c with s as draw and read surface, or with no surface
// if s is nil. A nil c releases the current context.
func (d *Display) MakeCurrent(c *Context, s *Surface) error {
	var ctx C.EGLContext
	var surf C.EGLSurface
	if c != nil {
		ctx = c.ctx
	}
	if s != nil {
		surf = s.surf
	}
	if C.eglMakeCurrent(d.disp, surf, surf, ctx) != eglTrue {
		return lastError("eglMakeCurrent")
	}
	return nil
}

// ReleaseCurrent unbinds the current context of api from the calling
// thread.
func (d *Display) ReleaseCurrent(api API) error {
	if C.eglBindAPI(C.EGLenum(api)) != eglTrue {
		return lastError("eglBindAPI")
	}
	if C.eglMakeCurrent(d.disp, nil, nil, nil) != eglTrue {
		return lastError("eglMakeCurrent")
	}
	return nil
}

func (c *Context) Destroy() {
	C.eglDestroyContext(c.disp.disp, c.ctx)
}

func (c *Context) CreatePbufferSurface(width, height int) (*Surface, error) {
	attribs := []C.EGLint{
		attribWidth, C.EGLint(width),
		attribHeight, C.EGLint(height),
		attribNone,
	}
	surf := C.eglCreatePbufferSurface(c.disp.disp, c.cfg, &attribs[0])
	if surf == nil {
		return nil, lastError("eglCreatePbufferSurface")
	}
	return &Surface{disp: c.disp, surf: surf}, nil
}

func (c *Context) CreateWindowSurface(win uintptr) (*Surface, error) {
	surf := C.vm_createWindowSurface(c.disp.disp, c.cfg, C.uintptr_t(win))
	if surf == nil {
		return nil, lastError("eglCreateWindowSurface")
	}
	return &Surface{disp: c.disp, surf: surf}, nil
}

// Size queries the width and height of the surface.
func (s *Surface) Size() (int, int) {
	var w, h C.EGLint
	C.eglQuerySurface(s.disp.disp, s.surf, attribWidth, &w)
	C.eglQuerySurface(s.disp.disp, s.surf, attribHeight, &h)
	return int(w), int(h)
}

func (s *Surface) Destroy() {
	C.eglDestroySurface(s.disp.disp, s.surf)
}

// ImportDmaBuf wraps a DMA-BUF plane in an image. The image does not own
// p.FD.
func (d *Display) ImportDmaBuf(p Plane) (Image, error) {
	attribs := []C.EGLint{
		attribWidth, C.EGLint(p.Width),
		attribHeight, C.EGLint(p.Height),
		linuxDRMFourcc, C.EGLint(p.Fourcc),
		dmaBufPlane0FD, C.EGLint(p.FD),
		dmaBufPlane0Offset, C.EGLint(p.Offset),
		dmaBufPlane0Pitch, C.EGLint(p.Stride),
	}
	if p.Modifier != modifierInvalid {
		attribs = append(attribs,
			dmaBufPlane0ModLo, C.EGLint(uint32(p.Modifier)),
			dmaBufPlane0ModHi, C.EGLint(uint32(p.Modifier>>32)),
		)
	}
	attribs = append(attribs, attribNone)
	img := C.vm_createImage(d.disp, nil, linuxDmaBuf, 0, &attribs[0])
	if img == 0 {
		return 0, lastError("eglCreateImageKHR")
	}
	return Image(img), nil
}

// TextureImage wraps the GL texture tex of c in an image.
func (c *Context) TextureImage(tex uint) (Image, error) {
	attribs := []C.EGLint{imagePreserved, eglTrue, attribNone}
	img := C.vm_createImage(c.disp.disp, c.ctx, imageGLTexture2D, C.uintptr_t(tex), &attribs[0])
	if img == 0 {
		return 0, lastError("eglCreateImageKHR")
	}
	return Image(img), nil
}

// ExportDmaBuf exports a single plane image. The returned descriptor is
// owned by the caller.
func (d *Display) ExportDmaBuf(img Image) (Plane, error) {
	var fourcc, planes C.int
	var mod C.uint64_t
	if C.vm_exportQuery(d.disp, C.uintptr_t(img), &fourcc, &planes, &mod) != eglTrue {
		return Plane{}, lastError("eglExportDMABUFImageQueryMESA")
	}
	if planes != 1 {
		return Plane{}, fmt.Errorf("egl: export: image has %d planes", planes)
	}
	var fd C.int
	var stride, offset C.EGLint
	if C.vm_export(d.disp, C.uintptr_t(img), &fd, &stride, &offset) != eglTrue {
		return Plane{}, lastError("eglExportDMABUFImageMESA")
	}
	return Plane{
		FD:       int(fd),
		Fourcc:   uint32(fourcc),
		Offset:   int(offset),
		Stride:   int(stride),
		Modifier: uint64(mod),
	}, nil
}

func (d *Display) DestroyImage(img Image) {
	C.vm_destroyImage(d.disp, C.uintptr_t(img))
}

// CreateNativeFence inserts a native fence sync in the command stream of
// the current context. The fence materializes once the commands are
// flushed.
func (d *Display) CreateNativeFence() (Sync, error) {
	s := C.vm_createSync(d.disp, syncNativeFence)
	if s == 0 {
		return 0, lastError("eglCreateSyncKHR")
	}
	return Sync(s), nil
}

// DupNativeFence returns a sync file for s, owned by the caller.
func (d *Display) DupNativeFence(s Sync) (int, error) {
	fd := C.vm_dupNativeFence(d.disp, C.uintptr_t(s))
	if fd == noNativeFenceFD {
		return -1, lastError("eglDupNativeFenceFDANDROID")
	}
	return int(fd), nil
}

func (d *Display) DestroySync(s Sync) {
	C.vm_destroySync(d.disp, C.uintptr_t(s))
}
