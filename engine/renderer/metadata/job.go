package metadata

/** @brief Runs the job. Results are sent on the channel before returning. */
type JobStart func(params interface{}, results chan<- interface{}) error

/** @brief Receives the results of a job that succeeded. */
type JobOnComplete func(results <-chan interface{})

/** @brief Receives the error of a job that failed. */
type JobOnFailure func(err error)

/**
 * @brief Describes a job to be run by the job system.
 */
type JobTask struct {
	/** @brief Data to be passed to the entry point upon execution. */
	InputParams interface{}
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked when the job successfully completes. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked when the job fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Invoked after OnComplete or OnFailure, whatever the outcome. Optional. */
	OnCompletionCallback func()
}
