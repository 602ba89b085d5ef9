package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Default number of questions per quiz
	QuestionsPerQuiz int
	// Default daily review target when the user has not set one
	DefaultItemsPerDay int
	// Number of rows shown by /history
	HistorySize int
	// Number of rows shown by /leaderboard
	LeaderboardSize int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		QuestionsPerQuiz:   10,
		DefaultItemsPerDay: 20,
		HistorySize:        10,
		LeaderboardSize:    10,
	}
}
