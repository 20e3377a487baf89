package instance

import "os"

// GetID returns the process instance identifier used in startup logs. Heroku
// dynos expose DYNO; containers usually expose HOSTNAME.
func GetID() string {
	for _, key := range []string{"SHOPCART_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
