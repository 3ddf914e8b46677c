// Adapted from Richard Cornwell's S370 util/hex package, Copyright 2024,
// used under its MIT-style license.
//
// Package hex formats raw bytes and 16-bit words as hexadecimal text,
// used by the console's memory-dump commands to render Central Memory
// and PP local storage ranges.
package hex

import "strings"

var hexMap = "0123456789ABCDEF"

// FormatHalf appends half (16-bit PP words) to str as 4-digit hex
// groups, each followed by a space if space is true (otherwise one
// trailing space after the whole run).
func FormatHalf(str *strings.Builder, space bool, half []uint16) {
	for _, word := range half {
		shift := 12
		for range 4 {
			str.WriteByte(hexMap[(word>>shift)&0xf])
			shift -= 4
		}
		if space {
			str.WriteByte(' ')
		}
	}
	if !space {
		str.WriteByte(' ')
	}
}

// FormatBytes appends data to str as 2-digit hex byte groups, each
// followed by a space if space is true.
func FormatBytes(str *strings.Builder, space bool, data []uint8) {
	for _, by := range data {
		str.WriteByte(hexMap[(by>>4)&0xf])
		str.WriteByte(hexMap[by&0xf])
		if space {
			str.WriteByte(' ')
		}
	}
}
