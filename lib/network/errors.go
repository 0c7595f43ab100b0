package network

import "errors"

// ErrTapExhausted is returned when no tap{N} index is free under
// /sys/class/net (practically unreachable, but the scan is bounded).
var ErrTapExhausted = errors.New("no free tap device index")

// ErrInterfaceBusy is returned when an operation expects an interface to be
// absent but finds one already attached to a different bridge.
var ErrInterfaceBusy = errors.New("interface already attached to a different bridge")
