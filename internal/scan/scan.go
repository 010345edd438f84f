package scan

import (
	"context"
	"encoding/json"
	"log"
	"time"

	clamd "github.com/dutchcoders/go-clamd"
	"github.com/nats-io/nats.go"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/events"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/services"
)

// Worker virus-scans uploaded blobs. It consumes files.uploaded, streams
// the blob through clamd, deletes infected content and records the
// verdict on the metadata row.
type Worker struct {
	records services.FileRecordStore
	blobs   services.BlobStore
	clam    *clamd.Clamd
}

func NewWorker(records services.FileRecordStore, blobs services.BlobStore, clamURL string) *Worker {
	return &Worker{
		records: records,
		blobs:   blobs,
		clam:    clamd.NewClamd(clamURL),
	}
}

// Start subscribes the worker on the bus. Messages are acked even when a
// scan fails; a stuck scanner must not wedge redelivery forever.
func (w *Worker) Start(bus *events.Bus) error {
	_, err := bus.Subscribe(events.SubjectFileUploaded, "file-scanner", func(msg *nats.Msg) {
		var event events.FileUploadedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Println("[SCAN] Dropping malformed event:", err)
			events.Ack(msg)
			return
		}
		w.Scan(context.Background(), event)
		events.Ack(msg)
	})
	if err != nil {
		return err
	}
	log.Println("[SCAN] Subscribed to", events.SubjectFileUploaded)
	return nil
}

// Scan runs one blob through clamd and records the verdict.
func (w *Worker) Scan(ctx context.Context, event events.FileUploadedEvent) {
	rc, err := w.blobs.Get(ctx, event.ObjectName)
	if err != nil {
		log.Println("[SCAN] Failed to fetch blob for scanning:", err)
		return
	}
	defer rc.Close()

	response, err := w.clam.ScanStream(rc, make(chan bool))
	if err != nil {
		log.Println("[SCAN] Scan failed:", err)
		return
	}

	status := "clean"
	for res := range response {
		if res.Status == clamd.RES_FOUND {
			log.Printf("[SCAN] Virus detected in %s: %s", event.FileID, res.Description)
			status = "infected"

			// infected content never stays in the bucket
			if err := w.blobs.Delete(ctx, event.ObjectName); err != nil {
				log.Println("[SCAN] Failed to delete infected blob:", err)
				return
			}
		}
	}

	if err := w.records.UpdateScanStatus(ctx, event.FileID, status, time.Now().UTC()); err != nil {
		log.Println("[SCAN] Failed to update scan status:", err)
		return
	}
	log.Printf("[SCAN] Finished %s: %s", event.FileID, status)
}
