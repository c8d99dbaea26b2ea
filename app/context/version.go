package context

import (
	"fmt"
	"regexp"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"go.hackfix.me/pkv"
)

// fallbackVersion is reported when neither the build nor the Go toolchain
// provide a release version.
const fallbackVersion = "0.1.0"

// vcsDescribe is the output of `git describe --tags --dirty --always`, set by
// release builds with:
//
//	-ldflags "-X go.hackfix.me/pkv/app/context.vcsDescribe=$(git describe --tags --dirty --always)"
var vcsDescribe string

var (
	// tag-distance-gSHA, as appended by git describe to non-tagged commits.
	describeRx = regexp.MustCompile(`^(.+)-(\d+)-g([0-9a-f]{7,40})$`)
	semverRx   = regexp.MustCompile(`^v?\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.+-]*)?$`)
	shaRx      = regexp.MustCompile(`^g?([0-9a-f]{7,40})$`)
)

// VersionInfo describes a build of pkv.
type VersionInfo struct {
	Semantic    string
	Commit      string
	TagDistance int // commits since the tag
	Dirty       bool
	Backend     string // storage engine compiled in
	Platform    string // Go version, OS and architecture
}

// GetVersion returns the version of the running binary. The description set
// at build time takes precedence over the VCS metadata embedded by the Go
// toolchain, which lacks the tag distance.
func GetVersion() (*VersionInfo, error) {
	vi := &VersionInfo{
		Backend:  pkv.Backend,
		Platform: fmt.Sprintf("%s, %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}

	if vcsDescribe != "" {
		if err := vi.UnmarshalText([]byte(vcsDescribe)); err != nil {
			return nil, fmt.Errorf("failed parsing build version %q: %w", vcsDescribe, err)
		}
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		vi.fromBuildInfo(bi)
	}
	if vi.Semantic == "" {
		vi.Semantic = fallbackVersion
	}

	return vi, nil
}

// String returns the version followed by the build details, e.g.
// "v1.2.3 (commit/1a2b3c4-4-dirty, badger backend, go1.23.0, linux/amd64)".
func (vi *VersionInfo) String() string {
	var details []string
	if vi.Commit != "" {
		commit := "commit/" + vi.Commit
		if vi.TagDistance > 0 {
			commit += "-" + strconv.Itoa(vi.TagDistance)
		}
		if vi.Dirty {
			commit += "-dirty"
		}
		details = append(details, commit)
	}
	if vi.Backend != "" {
		details = append(details, vi.Backend+" backend")
	}
	if vi.Platform != "" {
		details = append(details, vi.Platform)
	}

	if len(details) == 0 {
		return "v" + vi.Semantic
	}
	return fmt.Sprintf("v%s (%s)", vi.Semantic, strings.Join(details, ", "))
}

// UnmarshalText parses the output of `git describe --tags --dirty --always`:
// a tag, optionally followed by the distance to it and the abbreviated commit,
// or only the commit if the repository has no tags.
func (vi *VersionInfo) UnmarshalText(data []byte) error {
	desc := strings.TrimSpace(string(data))
	desc, vi.Dirty = strings.CutSuffix(desc, "-dirty")

	if m := describeRx.FindStringSubmatch(desc); m != nil {
		distance, err := strconv.Atoi(m[2])
		if err != nil {
			return fmt.Errorf("invalid tag distance: %w", err)
		}
		desc, vi.TagDistance, vi.Commit = m[1], distance, m[3]
	}

	switch {
	case semverRx.MatchString(desc):
		vi.Semantic = strings.TrimPrefix(desc, "v")
	case vi.Commit == "" && shaRx.MatchString(desc):
		vi.Commit = shaRx.FindStringSubmatch(desc)[1]
	default:
		return fmt.Errorf("unrecognized version %q", desc)
	}

	return nil
}

// fromBuildInfo fills in what the build description didn't provide.
func (vi *VersionInfo) fromBuildInfo(bi *debug.BuildInfo) {
	// Set by `go install go.hackfix.me/pkv/cmd/pkv@vX.Y.Z`.
	if vi.Semantic == "" && semverRx.MatchString(bi.Main.Version) {
		vi.Semantic = strings.TrimPrefix(bi.Main.Version, "v")
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if vi.Commit == "" {
				vi.Commit = s.Value[:min(len(s.Value), 10)]
			}
		case "vcs.modified":
			vi.Dirty = vi.Dirty || s.Value == "true"
		}
	}
}
