package versioning

// Set at build time with -ldflags "-X github.com/Giveth/giveth-bridge/versioning.Commit=..."
var (
	Version   = "development"
	Commit    string
	Branch    string
	BuildTime string
)
