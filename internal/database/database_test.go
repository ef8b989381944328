package database

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franckalain/wastedetect/internal/models"
	"github.com/google/uuid"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "waste.db"))
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteAddAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	db.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	img := []byte{0xFF, 0xD8, 0xFF, 0x00, 0x01, 0x02}
	var ids []string
	for _, wt := range []string{"Plastic", "Glass", "Paper"} {
		rec := &models.WasteRecord{
			WasteType: wt,
			Quantity:  "2",
			Location:  "Park",
			Date:      "2024-05-01",
			ImageData: EncodeDataURI("image/jpeg", img),
		}
		id, err := db.AddWasteRecord(ctx, rec)
		if err != nil {
			t.Fatalf("AddWasteRecord: %v", err)
		}
		if id == "" || rec.ID != id || rec.Timestamp.IsZero() {
			t.Fatalf("record not updated: %+v", rec)
		}
		ids = append(ids, id)
	}
	if ids[0] == ids[1] {
		t.Fatal("ids must be unique")
	}

	recs, err := db.GetRecentWasteRecords(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentWasteRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].WasteType != "Paper" || recs[1].WasteType != "Glass" {
		t.Errorf("order = %s, %s", recs[0].WasteType, recs[1].WasteType)
	}
	if !recs[0].Timestamp.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("timestamp = %v", recs[0].Timestamp)
	}

	_, data, err := DecodeDataURI(recs[0].ImageData)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if !bytes.Equal(data, img) {
		t.Error("stored image does not round-trip")
	}
}

// Runs against the Firestore emulator, e.g.
// gcloud emulators firestore start --host-port=localhost:8080
func TestFirestoreAddAndList(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()

	db, err := NewFirestoreDB(ctx, "wastedetect-test", "", "waste_records_"+uuid.NewString())
	if err != nil {
		t.Fatalf("NewFirestoreDB: %v", err)
	}
	defer db.Close()

	img := []byte{0x89, 'P', 'N', 'G', 0x00, 0xFF}
	stale := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for _, wt := range []string{"Plastic", "Glass", "Paper"} {
		rec := &models.WasteRecord{
			ID:        "client-chosen",
			WasteType: wt,
			Quantity:  "1",
			Location:  "Beach",
			Date:      "2024-06-01",
			ImageData: EncodeDataURI("image/png", img),
			Timestamp: stale,
		}
		id, err := db.AddWasteRecord(ctx, rec)
		if err != nil {
			t.Fatalf("AddWasteRecord: %v", err)
		}
		if id == "" || id == "client-chosen" || rec.ID != id {
			t.Fatalf("store did not assign the id: %q, %+v", id, rec)
		}
		ids = append(ids, id)
		time.Sleep(10 * time.Millisecond)
	}

	recs, err := db.GetRecentWasteRecords(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentWasteRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].WasteType != "Paper" || recs[1].WasteType != "Glass" {
		t.Errorf("order = %s, %s", recs[0].WasteType, recs[1].WasteType)
	}
	if recs[0].ID != ids[2] || recs[1].ID != ids[1] {
		t.Errorf("ids = %s, %s, want %s, %s", recs[0].ID, recs[1].ID, ids[2], ids[1])
	}
	for _, r := range recs {
		if r.Timestamp.IsZero() || !r.Timestamp.After(stale) {
			t.Errorf("timestamp %v was not set by the server", r.Timestamp)
		}
	}
	if !recs[0].Timestamp.After(recs[1].Timestamp) {
		t.Errorf("timestamps not descending: %v, %v", recs[0].Timestamp, recs[1].Timestamp)
	}

	mimeType, data, err := DecodeDataURI(recs[0].ImageData)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if mimeType != "image/png" || !bytes.Equal(data, img) {
		t.Error("stored image does not round-trip")
	}
}

func TestSQLiteEmptyList(t *testing.T) {
	db := newTestDB(t)
	recs, err := db.GetRecentWasteRecords(context.Background(), 20)
	if err != nil {
		t.Fatalf("GetRecentWasteRecords: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", recs)
	}
}

func TestSQLiteReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waste.db")
	db, err := NewSQLiteDB(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddWasteRecord(context.Background(), &models.WasteRecord{WasteType: "Metal"}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	recs, err := db.GetRecentWasteRecords(context.Background(), 10)
	if err != nil || len(recs) != 1 {
		t.Fatalf("after reopen: %v, %v", recs, err)
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	data := []byte("\x89PNG\r\n\x1a\n\x00\xff binary")
	uri := EncodeDataURI("image/png", data)
	if uri[:22] != "data:image/png;base64," {
		t.Fatalf("prefix = %q", uri[:22])
	}
	mimeType, got, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if mimeType != "image/png" || !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: %s %q", mimeType, got)
	}
}

func TestDecodeDataURIErrors(t *testing.T) {
	for _, s := range []string{
		"image/png;base64,AAAA",
		"data:image/png;base64",
		"data:image/png,AAAA",
		"data:image/png;base64,!!!",
	} {
		if _, _, err := DecodeDataURI(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}
