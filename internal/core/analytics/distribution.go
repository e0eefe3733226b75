package analytics

// DistributeTimeByStatus sums task minutes per task status. Statuses that no
// task carries are absent from the result.
func DistributeTimeByStatus(records []LogRecord) map[TaskStatus]int {
	dist := make(map[TaskStatus]int)
	for _, r := range records {
		for _, t := range r.Tasks {
			dist[t.Status] += t.MinutesSpent
		}
	}
	return dist
}
