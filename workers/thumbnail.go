package workers

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/photomind/photomindbackend/media"
	"github.com/photomind/photomindbackend/repository"
)

type ThumbnailJob struct {
	PhotoID      string
	OriginalPath string
}

// ThumbnailProcessor generates photo thumbnails in the background so
// imports are not blocked on image resizing.
type ThumbnailProcessor struct {
	JobQueue  chan ThumbnailJob
	Repo      repository.PhotoRepositoryInterface
	Processor *media.Processor
	MaxSize   int
	Wg        sync.WaitGroup
	StopChan  chan struct{}
	Pending   map[string]bool
	Mutex     sync.Mutex
}

func NewThumbnailProcessor(repo repository.PhotoRepositoryInterface, processor *media.Processor, maxSize, queueSize, numWorkers int) *ThumbnailProcessor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	tp := &ThumbnailProcessor{
		JobQueue:  make(chan ThumbnailJob, queueSize),
		Repo:      repo,
		Processor: processor,
		MaxSize:   maxSize,
		StopChan:  make(chan struct{}),
		Pending:   make(map[string]bool),
	}
	tp.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go tp.worker(i)
	}
	log.Printf("Started %d thumbnail worker(s) with queue size %d", numWorkers, queueSize)
	return tp
}

func (tp *ThumbnailProcessor) worker(id int) {
	defer tp.Wg.Done()

	log.Printf("Thumbnail worker %d started", id)
	for {
		select {
		case job, ok := <-tp.JobQueue:
			if !ok {
				log.Printf("Thumbnail worker %d stopping: Job queue closed", id)
				return
			}

			log.Printf("Worker %d: Received thumbnail job for photo %s", id, job.PhotoID)
			if err := tp.Repo.MarkThumbnailProcessing(job.PhotoID); err != nil {
				log.Printf("Worker %d: ERROR marking thumbnail processing for %s: %v. Skipping job.", id, job.PhotoID, err)
				tp.Mutex.Lock()
				delete(tp.Pending, job.PhotoID)
				tp.Mutex.Unlock()
				continue
			}

			tp.processThumbnailJob(job)

			tp.Mutex.Lock()
			delete(tp.Pending, job.PhotoID)
			tp.Mutex.Unlock()

		case <-tp.StopChan:
			log.Printf("Thumbnail worker %d stopping: Stop signal received", id)
			return
		}
	}
}

// processThumbnailJob generates the thumbnail and records the result
func (tp *ThumbnailProcessor) processThumbnailJob(job ThumbnailJob) {
	var taskErr error
	var thumbPathPtr *string

	if _, statErr := os.Stat(job.OriginalPath); os.IsNotExist(statErr) {
		taskErr = fmt.Errorf("original file not found: %w", statErr)
		log.Printf("Worker: Skipping thumbnail job for photo %s: %v", job.PhotoID, taskErr)
	} else if statErr != nil {
		taskErr = fmt.Errorf("failed to stat original file: %w", statErr)
		log.Printf("Worker: ERROR stating file for photo %s: %v", job.PhotoID, taskErr)
	} else {
		img, openErr := imaging.Open(job.OriginalPath, imaging.AutoOrientation(true))
		if openErr != nil {
			taskErr = fmt.Errorf("failed to open original image: %w", openErr)
			log.Printf("Worker: ERROR %v", taskErr)
		} else {
			thumbPath, genErr := tp.Processor.GenerateThumbnail(img, job.OriginalPath, tp.MaxSize)
			if genErr != nil {
				taskErr = fmt.Errorf("thumbnail generation failed: %w", genErr)
				log.Printf("Worker: ERROR %v", taskErr)
			} else {
				thumbPathPtr = &thumbPath
				log.Printf("Worker: Generated thumbnail for photo %s", job.PhotoID)
			}
		}
	}

	if dbErr := tp.Repo.UpdateThumbnailResult(job.PhotoID, thumbPathPtr, taskErr); dbErr != nil {
		log.Printf("Worker: ERROR updating thumbnail result for photo %s: %v", job.PhotoID, dbErr)
	}
}

// QueuePhoto queues a thumbnail job if one is not already pending for
// the photo
func (tp *ThumbnailProcessor) QueuePhoto(photoID, originalPath string) bool {
	tp.Mutex.Lock()
	if tp.Pending[photoID] {
		tp.Mutex.Unlock()
		return false
	}

	tp.Pending[photoID] = true
	tp.Mutex.Unlock()

	select {
	case tp.JobQueue <- ThumbnailJob{PhotoID: photoID, OriginalPath: originalPath}:
		log.Printf("Queued thumbnail job for photo %s", photoID)
		return true
	default:
		log.Printf("WARNING: Thumbnail job queue full. Failed to queue photo %s", photoID)
		tp.Mutex.Lock()
		delete(tp.Pending, photoID)
		tp.Mutex.Unlock()
		return false
	}
}

func (tp *ThumbnailProcessor) Stop() {
	log.Println("Stopping thumbnail workers...")
	close(tp.StopChan)
	tp.Wg.Wait()
	log.Println("All thumbnail workers stopped")
}
