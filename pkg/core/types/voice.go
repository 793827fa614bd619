package types

// DefaultSpeaker is the voice used when an unknown speaker id is requested.
const DefaultSpeaker = "af_bella"

// Speakers is the fixed set of voice identifiers the synthesis service
// accepts. Anything outside this set falls back to DefaultSpeaker.
var Speakers = []string{
	"af_bella", "af_nicole", "af_sarah",
	"am_adam", "am_michael",
	"bf_emma", "bf_isabella",
	"bm_george", "bm_lewis",
}

// ValidSpeaker reports whether id is a known voice identifier.
func ValidSpeaker(id string) bool {
	for _, s := range Speakers {
		if s == id {
			return true
		}
	}
	return false
}

// NormalizeSpeaker returns id when valid, DefaultSpeaker otherwise.
func NormalizeSpeaker(id string) string {
	if ValidSpeaker(id) {
		return id
	}
	return DefaultSpeaker
}
