// Package fuzztests houses Go fuzz harnesses for the text boundaries of
// mdref: type expressions, request files and TOML assembly images. They
// guard against panics and unstable rendering on arbitrary input.
package fuzztests
