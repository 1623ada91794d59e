package tasks

// TaskSchedulerInterface is the surface the application uses to run
// background work: a worker pool fed by a periodic ticker, plus on-demand
// task submission.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
