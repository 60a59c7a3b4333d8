// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// GroundVertexShader is the vertex shader for sector ground meshes.
//
//go:embed ground.vert
var GroundVertexShader string

// GroundFragmentShader decodes biome indices from the vertex color.
//
//go:embed ground.frag
var GroundFragmentShader string

// WaterVertexShader is the vertex shader for sector water meshes.
//
//go:embed water.vert
var WaterVertexShader string

// WaterFragmentShader is the fragment shader for sector water meshes.
//
//go:embed water.frag
var WaterFragmentShader string
