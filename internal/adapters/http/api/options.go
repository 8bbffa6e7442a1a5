package api

type serverConfig struct {
	defaultLimit int
	maxLimit     int
}

// Option configures the Server.
type Option func(*serverConfig)

// WithLimits sets the default and maximum GET /leaderboard limit.
func WithLimits(defaultN, maxN int) Option {
	return func(c *serverConfig) {
		if maxN > 0 {
			c.maxLimit = maxN
		}
		if defaultN > 0 && defaultN <= c.maxLimit {
			c.defaultLimit = defaultN
		}
		c.defaultLimit = min(c.defaultLimit, c.maxLimit)
	}
}
