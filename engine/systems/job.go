package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-resources/engine/core"
)

/** @brief A unit of work picked up by a job system worker. */
type JobTask struct {
	/** @brief The work itself. Required. */
	Run func() error
	/** @brief Called after Run returned nil. */
	OnComplete func()
	/** @brief Called with the error Run returned. */
	OnFailure func(err error)
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	stopOnce sync.Once
}

/** @brief The configuration for the job system */
type JobSystemConfig struct {
	/** @brief Number of worker goroutines. 0 disables asynchronous loading. */
	Workers int `toml:"workers"`
	/** @brief Number of jobs which can be queued before Submit blocks. */
	QueueSize int `toml:"queue_size"`
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemShutdown = fmt.Errorf("job system is shut down")
var ErrInvalidJob = fmt.Errorf("job has nothing to run")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
		done:       make(chan struct{}),
	}
	js.start()

	core.LogDebug("Job system started with %d workers.", numWorkers)
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	defer func() {
		if r := recover(); r != nil {
			core.LogError("job panicked: %v", r)
			if job.OnFailure != nil {
				job.OnFailure(fmt.Errorf("job panicked: %v", r))
			}
		}
	}()

	if err := job.Run(); err != nil {
		core.LogError(err.Error())
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full, a job resubmitting from a worker can wait until Shutdown.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	if jt.Run == nil {
		return ErrInvalidJob
	}
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return ErrJobSystemShutdown
	}
	select {
	case js.jobQueue <- jt:
		return nil
	case <-js.done:
		return ErrJobSystemShutdown
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run, blocked submitters
 * get ErrJobSystemShutdown.
 */
func (js *JobSystem) Shutdown() error {
	js.stopOnce.Do(func() { close(js.done) })

	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}
