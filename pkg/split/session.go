package split

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// Containers are named
//
//	<subject>_<YYYY-MM-DD>_<HHh-MMm-SSs>_<task>_R001.xdf
//
// where subject is all digits and task may itself contain underscores.
// Matching is case-insensitive.
var sessionNamePattern = regexp.MustCompile(
	`(?i)^(\d+)_(\d{4}-\d{2}-\d{2})_(\d{2})h-(\d{2})m-(\d{2})s_(.+)_R001\.xdf$`)

// SessionInfo is the identity of one recording, recovered from its
// container file name.
type SessionInfo struct {
	SubjectID string
	Date      time.Time
	TaskID    string
	// Name and Dir are the container's base name and directory.
	Name string
	Dir  string
}

// Path returns the full container path this info was parsed from.
func (s SessionInfo) Path() string { return filepath.Join(s.Dir, s.Name) }

// DateString formats the session date as YYYY-MM-DD.
func (s SessionInfo) DateString() string { return s.Date.Format("2006-01-02") }

// StartTime returns the wall-clock instant encoded in the file name.
func (s SessionInfo) StartTime() time.Time { return s.Date }

// ParseSessionName recovers the session identity from a container path.
// Names that do not match the convention yield an UnparsableNameError.
func ParseSessionName(containerPath string) (SessionInfo, error) {
	name := filepath.Base(containerPath)
	m := sessionNamePattern.FindStringSubmatch(name)
	if m == nil {
		return SessionInfo{}, &UnparsableNameError{Name: name}
	}
	stamp := fmt.Sprintf("%sT%s:%s:%s", m[2], m[3], m[4], m[5])
	date, err := time.Parse("2006-01-02T15:04:05", stamp)
	if err != nil {
		return SessionInfo{}, &UnparsableNameError{Name: name}
	}
	return SessionInfo{
		SubjectID: m[1],
		Date:      date,
		TaskID:    m[6],
		Name:      name,
		Dir:       filepath.Dir(containerPath),
	}, nil
}
