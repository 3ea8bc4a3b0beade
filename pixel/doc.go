// Package pixel implements the packed pixel formats used by framebuffers and panels.
//
// The formats are compatible with Go's native [color.Color] and [image.Image] /
// [draw.Image] interfaces. Frames are normally rendered into an [image.RGBA] canvas
// and converted to the native layout with [Copy].
package pixel
