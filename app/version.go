package app

// AppVersion is the state machine version reported to CometBFT. It changes
// whenever the same txs would produce a different app hash.
const AppVersion uint64 = 1

// GitCommit is set with -ldflags "-X github.com/calehh/ballot-app/app.GitCommit=...".
var GitCommit string

const Version = "0.1.0"

func VersionWithCommit() string {
	vsn := Version
	if len(GitCommit) >= 8 {
		vsn += "-" + GitCommit[:8]
	}
	return vsn
}
