package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// every pooled connection to :memory: would get its own empty database
	db.SetMaxOpenConns(1)

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestGeneratedRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewGeneratedRepository(db)
		record := models.NewGeneratedRecord("Titration", models.GeneratedProtocolHandle{ProtocolID: "17", GeneratedContentLength: 2048})

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if record.ID() == "" {
			t.Fatal("record ID should be set after creation")
		}

		retrieved, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}

		if retrieved.ProtocolID() != "17" {
			t.Errorf("expected protocol id 17, got %s", retrieved.ProtocolID())
		}

		if retrieved.Title() != "Titration" {
			t.Errorf("expected title 'Titration', got %s", retrieved.Title())
		}

		if retrieved.ContentLength() != 2048 {
			t.Errorf("expected content length 2048, got %d", retrieved.ContentLength())
		}

		if !retrieved.CreatedAt().Equal(record.CreatedAt()) {
			t.Errorf("expected created_at %v, got %v", record.CreatedAt(), retrieved.CreatedAt())
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewGeneratedRepository(db)
		record := models.NewGeneratedRecord("Titration", models.GeneratedProtocolHandle{})

		if err := repo.Create(record); err == nil {
			t.Fatal("expected validation error for empty protocol id")
		}

		if record.ID() != "" {
			t.Error("record ID should stay empty when the insert is rejected")
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewGeneratedRepository(db).Get("nonexistent-id")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewGeneratedRepository(db)
		base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

		for i, id := range []models.ProtocolID{"1", "2", "3"} {
			record := models.RestoreGeneratedRecord("", id, "Protokoll "+id.String(), 10, base.Add(time.Duration(i)*time.Hour))
			if err := repo.Create(record); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		records, err := repo.List(0)
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}

		if records[0].ProtocolID() != "3" {
			t.Errorf("expected newest record first, got %s", records[0].ProtocolID())
		}

		limited, err := repo.List(2)
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}

		if len(limited) != 2 {
			t.Errorf("expected 2 records, got %d", len(limited))
		}

		byProtocol, err := repo.ListByProtocol("2")
		if err != nil {
			t.Fatalf("failed to list by protocol: %v", err)
		}

		if len(byProtocol) != 1 || byProtocol[0].Title() != "Protokoll 2" {
			t.Errorf("expected one record for protocol 2, got %d", len(byProtocol))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewGeneratedRepository(db)
		record := models.NewGeneratedRecord("Titration", models.GeneratedProtocolHandle{ProtocolID: "17"})

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if err := repo.Delete(record.ID()); err != nil {
			t.Fatalf("failed to delete record: %v", err)
		}

		if _, err := repo.Get(record.ID()); err == nil {
			t.Error("expected error when getting deleted record")
		}

		if err := repo.Delete(record.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestDownloadRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewDownloadRepository(db)
		record := models.NewDownloadRecord("17", models.ArtifactPDF, "/tmp/Titration_protokoll.pdf", 5120)

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create download: %v", err)
		}

		retrieved, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get download: %v", err)
		}

		if retrieved.Kind() != models.ArtifactPDF {
			t.Errorf("expected kind pdf, got %s", retrieved.Kind())
		}

		if retrieved.Path() != "/tmp/Titration_protokoll.pdf" {
			t.Errorf("unexpected path %s", retrieved.Path())
		}

		if retrieved.Size() != 5120 {
			t.Errorf("expected size 5120, got %d", retrieved.Size())
		}
	})

	t.Run("Bulk Archive Without Protocol", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewDownloadRepository(db)
		record := models.NewDownloadRecord("", models.ArtifactLaTeX, "/tmp/protokolle_latex_2024-03-15.zip", 1)

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create bulk download: %v", err)
		}

		retrieved, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get download: %v", err)
		}

		if retrieved.ProtocolID() != "" {
			t.Errorf("expected empty protocol id, got %s", retrieved.ProtocolID())
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewDownloadRepository(db)

		if err := repo.Create(models.NewDownloadRecord("17", "docx", "/tmp/x.docx", 1)); err == nil {
			t.Error("expected validation error for unknown kind")
		}

		if err := repo.Create(models.NewDownloadRecord("17", models.ArtifactPDF, "", 1)); err == nil {
			t.Error("expected validation error for empty path")
		}
	})

	t.Run("List & Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewDownloadRepository(db)
		first := models.NewDownloadRecord("1", models.ArtifactPDF, "/tmp/a.pdf", 1)
		second := models.NewDownloadRecord("2", models.ArtifactPDF, "/tmp/b.pdf", 2)

		for _, r := range []*models.DownloadRecord{first, second} {
			if err := repo.Create(r); err != nil {
				t.Fatalf("failed to create download: %v", err)
			}
		}

		if err := repo.Delete(first.ID()); err != nil {
			t.Fatalf("failed to delete download: %v", err)
		}

		records, err := repo.List(10)
		if err != nil {
			t.Fatalf("failed to list downloads: %v", err)
		}

		if len(records) != 1 || records[0].ID() != second.ID() {
			t.Errorf("expected only the second download to remain, got %d records", len(records))
		}
	})
}

func TestHistory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	h := NewHistory(db)

	if err := h.RecordGenerated("Titration", models.GeneratedProtocolHandle{ProtocolID: "17", GeneratedContentLength: 900}); err != nil {
		t.Fatalf("failed to record generated protocol: %v", err)
	}

	if err := h.RecordDownload("17", models.ArtifactPDF, "/tmp/Titration_protokoll.pdf", 4096); err != nil {
		t.Fatalf("failed to record download: %v", err)
	}

	if err := h.RecordGenerated("Leer", models.GeneratedProtocolHandle{}); err == nil {
		t.Error("expected error for a handle without protocol id")
	}

	generated, err := h.Generated().List(10)
	if err != nil {
		t.Fatalf("failed to list generated: %v", err)
	}

	if len(generated) != 1 || generated[0].ContentLength() != 900 {
		t.Errorf("expected one generated record with length 900, got %d records", len(generated))
	}

	downloads, err := h.Downloads().List(10)
	if err != nil {
		t.Fatalf("failed to list downloads: %v", err)
	}

	if len(downloads) != 1 || downloads[0].Size() != 4096 {
		t.Errorf("expected one download of 4096 bytes, got %d records", len(downloads))
	}
}
