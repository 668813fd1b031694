package artifacts

// Channel selects how the bundle is provisioned. It is a closed set:
// Pinned and Latest are the only implementations.
type Channel interface {
	// Name is the configuration name of the channel.
	Name() string

	isChannel()
}

// Pinned ties the bundle to the running build version and a known SHA-512.
type Pinned struct {
	// Version is the build version; it is both the release tag and the marker content.
	Version string
	// SHA512 is the hex digest the downloaded archive must match.
	SHA512 string
}

// Latest always follows the newest release. There is no hash to verify against.
type Latest struct{}

// Name implements Channel.
func (Pinned) Name() string { return "pinned" }

// Name implements Channel.
func (Latest) Name() string { return "latest" }

func (Pinned) isChannel() {}

func (Latest) isChannel() {}
