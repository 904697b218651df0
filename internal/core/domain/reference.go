package domain

// ReferenceMode selects how the scoring reference vector is built.
type ReferenceMode string

const (
	// ModeProfile scores against the aggregate of historically
	// accepted candidates. Loose threshold.
	ModeProfile ReferenceMode = "profile"

	// ModeSession scores against a one-off reference supplied for a
	// single research request. Strict threshold. When active it fully
	// supersedes the profile; the two are never blended.
	ModeSession ReferenceMode = "session"
)

// Default thresholds per mode.
const (
	DefaultProfileThreshold = 0.4
	DefaultSessionThreshold = 0.6
)

// Reference is the target a candidate's feature vector is compared
// against. It is passed as a parameter to scoring and never persisted
// alongside candidate records.
type Reference struct {
	// Mode is profile or session.
	Mode ReferenceMode

	// Vector is the reference embedding.
	Vector []float32

	// Threshold is the minimum similarity for acceptance.
	Threshold float64
}

// ProfileReference builds a profile-mode reference from an aggregate
// vector.
func ProfileReference(vector []float32, threshold float64) Reference {
	if threshold <= 0 {
		threshold = DefaultProfileThreshold
	}
	return Reference{Mode: ModeProfile, Vector: vector, Threshold: threshold}
}

// SessionReference builds a session-mode reference from an explicit
// embedding.
func SessionReference(vector []float32, threshold float64) Reference {
	if threshold <= 0 {
		threshold = DefaultSessionThreshold
	}
	return Reference{Mode: ModeSession, Vector: vector, Threshold: threshold}
}

// MeanVector averages a set of equal-length vectors. Used to build the
// profile reference from accepted candidates. Returns nil for empty
// input or mismatched dimensions.
func MeanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	mean := make([]float32, dim)
	for i, s := range sum {
		mean[i] = float32(s / float64(len(vectors)))
	}
	return mean
}
