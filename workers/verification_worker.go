package workers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-hub/attendance-backend/realtime"
	"github.com/campus-hub/attendance-backend/recognition"
)

// Job status values
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// VerificationJob tracks one queued verification run.
type VerificationJob struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	SessionID   *uint      `json:"session_id,omitempty"`
	Status      string     `json:"status"`
	Message     string     `json:"message,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// VerificationProcessor serializes verification runs on a single worker. The
// camera is a shared device; one run in flight at a time is a correctness
// requirement, not a throughput tradeoff.
type VerificationProcessor struct {
	JobQueue chan *VerificationJob
	Verifier *recognition.Verifier
	Hub      *realtime.Hub

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	jobs    map[string]*VerificationJob
	pending map[string]string // studentID -> active job ID
	mutex   sync.Mutex
}

// NewVerificationProcessor starts the single verification worker.
func NewVerificationProcessor(verifier *recognition.Verifier, hub *realtime.Hub, queueSize int) *VerificationProcessor {
	if queueSize <= 0 {
		queueSize = 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	proc := &VerificationProcessor{
		JobQueue: make(chan *VerificationJob, queueSize),
		Verifier: verifier,
		Hub:      hub,
		cancel:   cancel,
		jobs:     make(map[string]*VerificationJob),
		pending:  make(map[string]string),
	}
	proc.wg.Add(1)
	go proc.worker(ctx)
	log.Printf("Started verification worker with queue size %d", queueSize)
	return proc
}

// Enqueue schedules a verification run for a student. A student can have at
// most one queued or running job at a time.
func (vp *VerificationProcessor) Enqueue(studentID, studentName string, sessionID *uint) (*VerificationJob, error) {
	jobID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job ID: %w", err)
	}

	job := &VerificationJob{
		ID:          jobID.String(),
		StudentID:   studentID,
		StudentName: studentName,
		SessionID:   sessionID,
		Status:      StatusQueued,
		EnqueuedAt:  time.Now(),
	}

	vp.mutex.Lock()
	if activeID, busy := vp.pending[studentID]; busy {
		vp.mutex.Unlock()
		return nil, fmt.Errorf("verification already in progress for %s (job %s)", studentID, activeID)
	}
	vp.pending[studentID] = job.ID
	vp.jobs[job.ID] = job
	vp.mutex.Unlock()

	select {
	case vp.JobQueue <- job:
		return job, nil
	default:
		vp.mutex.Lock()
		delete(vp.pending, studentID)
		delete(vp.jobs, job.ID)
		vp.mutex.Unlock()
		return nil, fmt.Errorf("verification queue is full")
	}
}

// GetJob returns a snapshot of a job's current state.
func (vp *VerificationProcessor) GetJob(id string) (VerificationJob, bool) {
	vp.mutex.Lock()
	defer vp.mutex.Unlock()
	job, ok := vp.jobs[id]
	if !ok {
		return VerificationJob{}, false
	}
	return *job, true
}

// Stop cancels the active run and waits for the worker to exit.
func (vp *VerificationProcessor) Stop() {
	log.Println("Stopping verification worker...")
	vp.cancel()
	close(vp.JobQueue)
	vp.wg.Wait()
	log.Println("Verification worker stopped")
}

func (vp *VerificationProcessor) worker(ctx context.Context) {
	defer vp.wg.Done()

	for {
		select {
		case job, ok := <-vp.JobQueue:
			if !ok {
				log.Println("Verification worker stopping: job queue closed")
				return
			}
			vp.runJob(ctx, job)
		case <-ctx.Done():
			log.Println("Verification worker stopping: context canceled")
			return
		}
	}
}

func (vp *VerificationProcessor) runJob(ctx context.Context, job *VerificationJob) {
	vp.setStatus(job, StatusRunning, "")
	log.Printf("Worker: verifying %s (job %s)", job.StudentName, job.ID)

	notify := func(success bool, message string) {
		vp.setMessage(job, message)
		vp.publish(job, success, message, false)
	}

	success, message := vp.Verifier.Verify(ctx, job.StudentID, job.StudentName, job.SessionID, notify)

	status := StatusFailed
	if success {
		status = StatusSucceeded
	}
	vp.finish(job, status, message)
	vp.publish(job, success, message, true)
	log.Printf("Worker: job %s finished: %s", job.ID, message)
}

func (vp *VerificationProcessor) setStatus(job *VerificationJob, status, message string) {
	vp.mutex.Lock()
	job.Status = status
	if message != "" {
		job.Message = message
	}
	vp.mutex.Unlock()
}

func (vp *VerificationProcessor) setMessage(job *VerificationJob, message string) {
	vp.mutex.Lock()
	job.Message = message
	vp.mutex.Unlock()
}

func (vp *VerificationProcessor) finish(job *VerificationJob, status, message string) {
	now := time.Now()
	vp.mutex.Lock()
	job.Status = status
	job.Message = message
	job.FinishedAt = &now
	delete(vp.pending, job.StudentID)
	vp.mutex.Unlock()
}

func (vp *VerificationProcessor) publish(job *VerificationJob, success bool, message string, terminal bool) {
	if vp.Hub == nil {
		return
	}
	vp.Hub.Broadcast(realtime.Event{
		Type:      "verification",
		JobID:     job.ID,
		StudentID: job.StudentID,
		Success:   success,
		Message:   message,
		Terminal:  terminal,
		Timestamp: time.Now().Unix(),
	})
}
