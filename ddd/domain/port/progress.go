package port

// ProgressCallback is invoked by executors to report percentage progress (0-100).
type ProgressCallback func(progress int)
