package common

const (
	ChainIDStrHome    = "home"
	ChainIDStrForeign = "foreign"
)

// OtherChainID returns the counterpart of a bridged chain
func OtherChainID(chainID string) string {
	if chainID == ChainIDStrHome {
		return ChainIDStrForeign
	}

	return ChainIDStrHome
}

func IsKnownChainID(chainID string) bool {
	return chainID == ChainIDStrHome || chainID == ChainIDStrForeign
}
