// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import "gioui.org/shader"

// DefaultShaders returns a program that samples the source texture
// without conversion.
func DefaultShaders() Shaders {
	return Shaders{Vertex: blitVert, Fragment: blitFrag}
}

var (
	blitVert = shader.Sources{
		Name: "blit.vert",
		Inputs: []shader.InputLocation{
			{Name: "pos", Location: 0, Semantic: "POSITION", SemanticIndex: 0, Type: shader.DataTypeFloat, Size: 2},
			{Name: "uv", Location: 1, Semantic: "TEXCOORD", SemanticIndex: 0, Type: shader.DataTypeFloat, Size: 2},
		},
		GLSL100ES: `#version 100

attribute vec2 pos;
attribute vec2 uv;
varying vec2 vUV;

void main()
{
    vUV = uv;
    gl_Position = vec4(pos, 0.0, 1.0);
}

`,
		GLSL150: `#version 150

in vec2 pos;
in vec2 uv;
out vec2 vUV;

void main()
{
    vUV = uv;
    gl_Position = vec4(pos, 0.0, 1.0);
}

`,
	}
	blitFrag = shader.Sources{
		Name:     "blit.frag",
		Textures: []shader.TextureBinding{{Name: "tex", Binding: 0}},
		GLSL100ES: `#version 100
precision mediump float;
precision highp int;

uniform mediump sampler2D tex;

varying vec2 vUV;

void main()
{
    gl_FragData[0] = texture2D(tex, vUV);
}

`,
		GLSL150: `#version 150

uniform sampler2D tex;

in vec2 vUV;
out vec4 fragColor;

void main()
{
    fragColor = texture(tex, vUV);
}

`,
	}
)
