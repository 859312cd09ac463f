package version

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// semver matches v-prefixed releases with an optional pre-release suffix.
var semver = regexp.MustCompile(`^v(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(-[0-9A-Za-z.-]+)?$`)

func TestVersion(t *testing.T) {
	assert.Regexp(t, semver, Version)

	for _, v := range []string{"v1.2.3", "v0.10.0-rc.1"} {
		assert.Regexp(t, semver, v)
	}
	for _, v := range []string{"", "0.1.0", "v1.2", "v01.2.3", "dev"} {
		assert.NotRegexp(t, semver, v)
	}
}
