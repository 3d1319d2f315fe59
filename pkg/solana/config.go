package solana

import "strings"

type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

var environmentMonikers = map[string]Environment{
	"devnet":       EnvironmentDev,
	"testnet":      EnvironmentTest,
	"mainnet":      EnvironmentProd,
	"mainnet-beta": EnvironmentProd,
}

// ResolveEndpoint expands a cluster moniker (devnet, testnet, mainnet-beta) to
// its public RPC url. Anything else is returned unchanged.
func ResolveEndpoint(endpoint string) string {
	if env, ok := environmentMonikers[strings.ToLower(strings.TrimSpace(endpoint))]; ok {
		return string(env)
	}
	return endpoint
}
