package hotkeys

import (
	"slices"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestIgnoreMasks(t *testing.T) {
	caps := uint16(xproto.ModMaskLock)
	num := uint16(xproto.ModMask2)
	scroll := uint16(xproto.ModMask5)

	tests := []struct {
		name        string
		num, scroll uint16
		want        []uint16
	}{
		{name: "caps only", want: []uint16{0, caps}},
		{name: "caps and num lock", num: num, want: []uint16{0, caps, num, caps | num}},
		{name: "all three", num: num, scroll: scroll, want: []uint16{
			0, caps, num, caps | num, scroll, caps | scroll, num | scroll, caps | num | scroll,
		}},
		{name: "num lock shares caps mask", num: caps, want: []uint16{0, caps}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IgnoreMasks(caps, tt.num, tt.scroll)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("IgnoreMasks = %v, want %v", got, tt.want)
			}
		})
	}
}
