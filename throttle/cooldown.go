package throttle

import "time"

// MaxLoginCooldown caps the wait imposed after repeated failed logins
const MaxLoginCooldown = 30 * time.Second

// LoginCooldown returns min(30s, 2^failCount seconds).
func LoginCooldown(failCount int) time.Duration {
	if failCount < 0 {
		failCount = 0
	}
	if failCount >= 5 {
		return MaxLoginCooldown
	}
	d := time.Duration(1<<failCount) * time.Second
	if d > MaxLoginCooldown {
		return MaxLoginCooldown
	}
	return d
}
