// Package alpnfix turns off grpc-go's ALPN enforcement, which public Cosmos
// gRPC endpoints behind older proxies fail. An explicit setting in the
// environment is left alone.
// Import with blank identifier before any grpc imports: _ "github.com/manifest-network/upgrade-helper/internal/alpnfix"
package alpnfix

import "os"

const envEnforceALPN = "GRPC_ENFORCE_ALPN_ENABLED"

func init() {
	if _, set := os.LookupEnv(envEnforceALPN); !set {
		os.Setenv(envEnforceALPN, "false")
	}
}
