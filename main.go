package main

import (
	_ "github.com/manifest-network/upgrade-helper/internal/alpnfix" // Disable ALPN enforcement for gRPC endpoints that don't support it

	"github.com/manifest-network/upgrade-helper/cmd/upgradehelper"
)

func main() {
	upgradehelper.Execute()
}
