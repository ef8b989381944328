package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/metrics"
	"github.com/franckalain/wastedetect/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FirestoreDB implements the Store interface on a Firestore collection
type FirestoreDB struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreDB connects with the given service-account key. An empty
// projectID is read from the key file. An empty credentialsFile falls back
// to application default credentials, or to the emulator when
// FIRESTORE_EMULATOR_HOST is set.
func NewFirestoreDB(ctx context.Context, projectID, credentialsFile, collection string) (*FirestoreDB, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating firestore client: %w", err)
	}

	log.Infof("Firestore initialized with %s, collection %s", credentialsFile, collection)
	return &FirestoreDB{client: client, collection: collection}, nil
}

// AddWasteRecord adds a document; the timestamp is assigned by the server.
func (f *FirestoreDB) AddWasteRecord(ctx context.Context, rec *models.WasteRecord) (string, error) {
	doc := *rec
	doc.Timestamp = time.Time{} // zero means serverTimestamp

	start := time.Now()
	ref, _, err := f.client.Collection(f.collection).Add(ctx, doc)
	metrics.ObserveUpstream("firestore", start, err)
	if err != nil {
		return "", apperr.New(apperr.PersistenceFailure, fmt.Errorf("error adding document: %w", err))
	}

	rec.ID = ref.ID
	return ref.ID, nil
}

// GetRecentWasteRecords queries the collection by descending timestamp
func (f *FirestoreDB) GetRecentWasteRecords(ctx context.Context, limit int) ([]*models.WasteRecord, error) {
	iter := f.client.Collection(f.collection).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	results := []*models.WasteRecord{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, apperr.New(apperr.PersistenceFailure, fmt.Errorf("error listing documents: %w", err))
		}

		var rec models.WasteRecord
		if err := snap.DataTo(&rec); err != nil {
			return nil, apperr.New(apperr.PersistenceFailure, fmt.Errorf("error decoding document %s: %w", snap.Ref.ID, err))
		}
		rec.ID = snap.Ref.ID
		results = append(results, &rec)
	}
	return results, nil
}

// Close closes the Firestore client
func (f *FirestoreDB) Close() error {
	return f.client.Close()
}
