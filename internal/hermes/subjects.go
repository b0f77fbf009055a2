package hermes

const (
	SubjectMatchupRequest = "barter.matchup.request"

	StreamName   = "BARTER_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectMatchupCreated(key string) string { return "barter.matchup." + key + ".created" }
func SubjectMatchupRanked(key string) string  { return "barter.matchup." + key + ".ranked" }
func SubjectMatchupScored(key string) string  { return "barter.matchup." + key + ".scored" }
func SubjectMatchupTrades(key string) string  { return "barter.matchup." + key + ".trades" }
