// SPDX-License-Identifier: Unlicense OR MIT

// Package gl defines the OpenGL (ES) entry points, enums and object
// handles used by the compositor. Implementations live in the native EGL
// backend and in the software rasterizer.
package gl

type (
	Attrib uint
	Enum   uint
)

const (
	ACTIVE_TEXTURE                            = 0x84e0
	ALREADY_SIGNALED                          = 0x911a
	ARRAY_BUFFER                              = 0x8892
	ARRAY_BUFFER_BINDING                      = 0x8894
	BGRA_EXT                                  = 0x80e1
	BLEND                                     = 0xbe2
	CLAMP_TO_EDGE                             = 0x812f
	COLOR_ATTACHMENT0                         = 0x8ce0
	COLOR_BUFFER_BIT                          = 0x4000
	COMPILE_STATUS                            = 0x8b81
	CONDITION_SATISFIED                       = 0x911c
	CURRENT_PROGRAM                           = 0x8b8d
	DRAW_FRAMEBUFFER                          = 0x8ca9
	EXTENSIONS                                = 0x1f03
	FALSE                                     = 0
	FLOAT                                     = 0x1406
	FRAGMENT_SHADER                           = 0x8b30
	FRAMEBUFFER                               = 0x8d40
	FRAMEBUFFER_BINDING                       = 0x8ca6
	FRAMEBUFFER_COMPLETE                      = 0x8cd5
	FRAMEBUFFER_INCOMPLETE_ATTACHMENT         = 0x8cd6
	FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT = 0x8cd7
	FRAMEBUFFER_UNDEFINED                     = 0x8219
	FRAMEBUFFER_UNSUPPORTED                   = 0x8cdd
	INFO_LOG_LENGTH                           = 0x8b84
	INVALID_ENUM                              = 0x500
	INVALID_FRAMEBUFFER_OPERATION             = 0x506
	INVALID_OPERATION                         = 0x502
	INVALID_VALUE                             = 0x501
	LINEAR                                    = 0x2601
	LINK_STATUS                               = 0x8b82
	MAX_TEXTURE_SIZE                          = 0xd33
	NEAREST                                   = 0x2600
	NO_ERROR                                  = 0x0
	NUM_EXTENSIONS                            = 0x821d
	ONE                                       = 0x1
	ONE_MINUS_SRC_ALPHA                       = 0x303
	OUT_OF_MEMORY                             = 0x505
	PACK_ALIGNMENT                            = 0xd05
	PACK_ROW_LENGTH                           = 0xd02
	READ_FRAMEBUFFER                          = 0x8ca8
	READ_FRAMEBUFFER_BINDING                  = 0x8caa
	RENDERER                                  = 0x1f01
	RGBA                                      = 0x1908
	RGBA8                                     = 0x8058
	SCISSOR_TEST                              = 0xc11
	SHADING_LANGUAGE_VERSION                  = 0x8b8c
	SRC_ALPHA                                 = 0x302
	STATIC_DRAW                               = 0x88e4
	SYNC_FLUSH_COMMANDS_BIT                   = 0x1
	SYNC_GPU_COMMANDS_COMPLETE                = 0x9117
	TEXTURE0                                  = 0x84c0
	TEXTURE_2D                                = 0xde1
	TEXTURE_BINDING_2D                        = 0x8069
	TEXTURE_MAG_FILTER                        = 0x2800
	TEXTURE_MIN_FILTER                        = 0x2801
	TEXTURE_WRAP_S                            = 0x2802
	TEXTURE_WRAP_T                            = 0x2803
	TIMEOUT_EXPIRED                           = 0x911b
	TRIANGLE_STRIP                            = 0x5
	TRUE                                      = 1
	UNPACK_ALIGNMENT                          = 0xcf5
	UNPACK_ROW_LENGTH                         = 0xcf2
	UNSIGNED_BYTE                             = 0x1401
	VENDOR                                    = 0x1f00
	VERSION                                   = 0x1f02
	VERTEX_ARRAY_BINDING                      = 0x85b5
	VERTEX_SHADER                             = 0x8b31
	VIEWPORT                                  = 0xba2
	WAIT_FAILED                               = 0x911d
	ZERO                                      = 0x0
)

// TIMEOUT_IGNORED is the infinite timeout for ClientWaitSync.
const TIMEOUT_IGNORED = ^uint64(0)
