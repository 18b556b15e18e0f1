package sinceupdater

// BuildVersion is set at build time:
//
//	go build -ldflags "-X github.com/thrawn01/since-updater.BuildVersion=v1.0.0" ./cmd/since-updater
var BuildVersion = "dev"
