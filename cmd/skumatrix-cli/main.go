package main

import (
	"skumatrix/cmd/skumatrix-cli/commands"
	"skumatrix/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
