// Package cache is a tagged, TTL-based read-through cache.
//
// Every entry is stored under a Key and registered with one or more Tags.
// PurgeTag drops every entry registered with a tag immediately, whatever its
// remaining TTL. The TTL only bounds staleness when a purge is missed.
package cache

// Tag groups cache entries for bulk invalidation. The zero Tag is invalid;
// tags are only built through the package-level values and constructors.
type Tag struct {
	kind string
	id   string
}

// Coarse tags shared by all entries of an entity kind.
var (
	TagCandidates = Tag{kind: "candidates"}
	TagJobs       = Tag{kind: "jobs"}
	TagUsers      = Tag{kind: "users"}
	TagSettings   = Tag{kind: "settings"}
)

// CandidateTag is the per-entity tag of one candidate.
func CandidateTag(id string) Tag { return Tag{kind: "candidate", id: id} }

// JobTag is the per-entity tag of one job.
func JobTag(id string) Tag { return Tag{kind: "job", id: id} }

// Kind is the tag family, used as a metrics label.
func (t Tag) Kind() string { return t.kind }

// String is the storage name of the tag, e.g. "candidates" or "candidate:42".
func (t Tag) String() string {
	if t.id == "" {
		return t.kind
	}
	return t.kind + ":" + t.id
}

// Valid reports whether t was built by this package.
func (t Tag) Valid() bool { return t.kind != "" }

func tagNames(tags []Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Valid() {
			out = append(out, t.String())
		}
	}
	return out
}

// Key names one cached query shape.
type Key string

// Aggregate view keys.
const (
	KeyCandidates      Key = "candidates:all"
	KeyCandidatesLean  Key = "candidates:lean"
	KeyPipelineSummary Key = "pipeline:summary"
	KeyJobs            Key = "jobs:all"
	KeyUsers           Key = "users:all"
	KeyInterviewers    Key = "users:interviewers"
	KeySyncLogs        Key = "settings:synclogs"
	KeyRejections      Key = "settings:rejections"
)

// CandidateKey is the detail key of one candidate.
func CandidateKey(id string) Key { return Key("candidate:" + id) }

// FeedbackKey is the feedback summary key of one candidate.
func FeedbackKey(id string) Key { return Key("candidate:" + id + ":feedback") }

// JobKey is the detail key of one job.
func JobKey(id string) Key { return Key("job:" + id) }

// View is the metrics label of k: the part before the first colon.
func (k Key) View() string {
	for i := 0; i < len(k); i++ {
		if k[i] == ':' {
			return string(k[:i])
		}
	}
	return string(k)
}
