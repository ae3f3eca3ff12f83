// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package driver

import "fmt"

// Profile is a GL context profile.
type Profile uint8

const (
	// ProfileAny walks the core ladder, then the ES ladder.
	ProfileAny Profile = iota
	ProfileCore
	ProfileES
)

// Version is one rung of the context ladder.
type Version struct {
	Profile      Profile
	Major, Minor int
}

// Attempt records the outcome of one context creation.
type Attempt struct {
	Version Version
	Err     error
}

// Ladder lists context versions from most to least capable. OpenGL ES 2.0
// is the baseline.
var Ladder = []Version{
	{ProfileCore, 4, 6},
	{ProfileCore, 4, 5},
	{ProfileCore, 4, 4},
	{ProfileCore, 4, 3},
	{ProfileCore, 4, 2},
	{ProfileCore, 4, 1},
	{ProfileCore, 4, 0},
	{ProfileCore, 3, 3},
	{ProfileCore, 3, 2},
	{ProfileES, 3, 2},
	{ProfileES, 3, 1},
	{ProfileES, 3, 0},
	{ProfileES, 2, 0},
}

func (p Profile) String() string {
	switch p {
	case ProfileAny:
		return "any"
	case ProfileCore:
		return "core"
	case ProfileES:
		return "es"
	}
	return fmt.Sprintf("Profile(%d)", uint8(p))
}

func (p Profile) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Profile) UnmarshalText(text []byte) error {
	switch string(text) {
	case "any", "":
		*p = ProfileAny
	case "core":
		*p = ProfileCore
	case "es", "gles":
		*p = ProfileES
	default:
		return fmt.Errorf("unknown profile %q", text)
	}
	return nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d %s", v.Major, v.Minor, v.Profile)
}

func (a Attempt) String() string {
	if a.Err == nil {
		return a.Version.String()
	}
	return fmt.Sprintf("%s (%v)", a.Version, a.Err)
}

// WalkLadder calls create for every rung of the ladder matching p, in
// order, until one succeeds. It returns every attempt made; ok is false
// if all of them failed.
func WalkLadder[T any](p Profile, create func(Version) (T, error)) (res T, attempts []Attempt, ok bool) {
	for _, v := range Ladder {
		if p != ProfileAny && v.Profile != p {
			continue
		}
		r, err := create(v)
		attempts = append(attempts, Attempt{Version: v, Err: err})
		if err == nil {
			return r, attempts, true
		}
	}
	return res, attempts, false
}
