package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/alvifsandana/qms-be/internal/models"
)

// NCRServiceProvider defines the interface for NCR record services.
type NCRServiceProvider interface {
	GetAll() ([]models.NCRRecord, error)
	Get(id string) (models.NCRRecord, error)
	Create(number, title string) (models.NCRRecord, error)
	Delete(id string) error
	SetAttachment(id string, fileName *string) error
}

// NCRService provides business logic for non-conformance reports.
type NCRService struct {
	db *sql.DB
}

// NewNCRService creates a new NCRService.
func NewNCRService(db *sql.DB) *NCRService {
	return &NCRService{db: db}
}

// GetAll retrieves all NCR records, newest first.
func (s *NCRService) GetAll() ([]models.NCRRecord, error) {
	rows, err := s.db.Query("SELECT id, number, title, status, attachment, created_at FROM ncr_records ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.NCRRecord
	for rows.Next() {
		var rec models.NCRRecord
		if err := rows.Scan(&rec.ID, &rec.Number, &rec.Title, &rec.Status, &rec.Attachment, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get retrieves a single NCR record by ID.
func (s *NCRService) Get(id string) (models.NCRRecord, error) {
	var rec models.NCRRecord
	row := s.db.QueryRow("SELECT id, number, title, status, attachment, created_at FROM ncr_records WHERE id = ?", id)
	err := row.Scan(&rec.ID, &rec.Number, &rec.Title, &rec.Status, &rec.Attachment, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.NCRRecord{}, fmt.Errorf("NCR record with ID %s not found", id)
		}
		return models.NCRRecord{}, err
	}
	return rec, nil
}

// Create inserts a new NCR record.
func (s *NCRService) Create(number, title string) (models.NCRRecord, error) {
	if number == "" {
		return models.NCRRecord{}, fmt.Errorf("record number is required")
	}

	rec := models.NCRRecord{
		ID:     uuid.New().String(),
		Number: number,
		Title:  title,
		Status: "open",
	}

	stmt, err := s.db.Prepare("INSERT INTO ncr_records(id, number, title, status) VALUES(?, ?, ?, ?)")
	if err != nil {
		return models.NCRRecord{}, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(rec.ID, rec.Number, rec.Title, rec.Status); err != nil {
		return models.NCRRecord{}, err
	}
	return s.Get(rec.ID)
}

// Delete removes an NCR record.
func (s *NCRService) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM ncr_records WHERE id = ?", id)
	return err
}

// SetAttachment links or clears the stored file name for a record.
func (s *NCRService) SetAttachment(id string, fileName *string) error {
	_, err := s.db.Exec("UPDATE ncr_records SET attachment = ? WHERE id = ?", fileName, id)
	return err
}
