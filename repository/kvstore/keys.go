package kvstore

const (
	// SessionKey holds the serialized signed-in user.
	SessionKey = "user"

	taskKeyPrefix = "tasks_"
)

// TaskKey returns the key holding userID's task collection.
func TaskKey(userID string) string {
	return taskKeyPrefix + userID
}
