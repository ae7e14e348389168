package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

var ErrParse = errors.New("could not parse version")

type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", ErrParse.Error(), e.Input)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

var versionRe = regexp.MustCompile(`^([0-9]+)\.([0-9]+)\.([0-9]+)$`)

// Version is a plain major.minor.patch triple. Pre-release and build
// metadata are rejected by Parse.
type Version struct {
	v *semver.Version
}

func Parse(text string) (Version, error) {
	parts := versionRe.FindStringSubmatch(text)
	if parts == nil {
		return Version{}, &ParseError{Input: text}
	}
	nums := make([]uint64, 3)
	for i := range nums {
		n, err := strconv.ParseUint(parts[i+1], 10, 64)
		if err != nil {
			return Version{}, &ParseError{Input: text}
		}
		nums[i] = n
	}
	return Version{v: semver.New(nums[0], nums[1], nums[2], "", "")}, nil
}

func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) Major() uint64 { return v.v.Major() }
func (v Version) Minor() uint64 { return v.v.Minor() }
func (v Version) Patch() uint64 { return v.v.Patch() }

func (v Version) LessThan(other Version) bool {
	return v.v.LessThan(other.v)
}

func (v Version) LessThanEqual(other Version) bool {
	return v.v.Compare(other.v) <= 0
}

func (v Version) Equal(other Version) bool {
	return v.v.Equal(other.v)
}

func (v Version) String() string {
	return v.v.String()
}
