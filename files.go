/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/Seednode/sizeconv/units"
)

// humanReadableSize picks the largest unit that keeps the value at or above one.
func humanReadableSize(bytes int64) string {
	all := units.All()
	for i := len(all) - 1; i > 0; i-- {
		u := all[i]
		if float64(bytes) >= u.Multiplier() {
			return units.Group(units.Convert(float64(bytes), units.B, u), 1) + " " + u.String()
		}
	}

	return units.Group(float64(bytes), 0) + " B"
}
