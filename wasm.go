//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/loon/loon"
)

func main() {
	js.Global().Set("CheckSubtype", js.FuncOf(loon.CheckSubtype))
	js.Global().Set("ResolveCall", js.FuncOf(loon.ResolveCall))

	// wait indefinitely so that Go does not terminate execution
	// and the functions remain available
	<-make(chan struct{})
}
