package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"ClinicLink360/models"
	"ClinicLink360/util"
)

// FileService stores binary attachments as MedicalFile nodes linked to
// their owning Observation via HAS_FILE.
type FileService struct {
	graph    GraphStore
	ids      *IDAllocator
	maxBytes int64
	now      func() time.Time
}

func NewFileService(graph GraphStore, ids *IDAllocator, maxBytes int64) *FileService {
	if maxBytes <= 0 {
		maxBytes = util.DefaultMaxFileSizeBytes
	}
	return &FileService{graph: graph, ids: ids, maxBytes: maxBytes, now: time.Now}
}

const (
	storeFileCypher = `
MATCH (o:Observation {id: $observationId})
CREATE (mf:MedicalFile {id: $id, filename: $filename, file_type: $fileType,
        file_size: $fileSize, file_data: $fileData, upload_date: $uploadDate,
        description: $description})
MERGE (o)-[:HAS_FILE]->(mf)
RETURN mf.id AS id`

	retrieveFileCypher = `
MATCH (mf:MedicalFile {id: $id})
OPTIONAL MATCH (o:Observation)-[:HAS_FILE]->(mf)
RETURN mf.id AS id, mf.filename AS filename, mf.file_type AS fileType,
       mf.file_size AS fileSize, mf.file_data AS fileData,
       mf.upload_date AS uploadDate, mf.description AS description,
       o.id AS observationId`

	deleteFileCypher = `
MATCH (mf:MedicalFile {id: $id})
DETACH DELETE mf
RETURN 1 AS deleted`

	filesByObservationCypher = `
MATCH (o:Observation {id: $observationId})
OPTIONAL MATCH (o)-[:HAS_FILE]->(mf:MedicalFile)
RETURN mf.id AS id, mf.filename AS filename, mf.file_type AS fileType,
       mf.file_size AS fileSize, mf.upload_date AS uploadDate,
       mf.description AS description
ORDER BY uploadDate DESC`

	listFilesCypher = `
MATCH (mf:MedicalFile)
OPTIONAL MATCH (o:Observation)-[:HAS_FILE]->(mf)
RETURN mf.id AS id, mf.filename AS filename, mf.file_type AS fileType,
       mf.file_size AS fileSize, mf.upload_date AS uploadDate,
       mf.description AS description, o.id AS observationId
ORDER BY uploadDate DESC`
)

/*
* Store a binary payload against an observation.
* The node and its HAS_FILE edge are created in one statement, so a
* missing observation leaves nothing behind and reports NotFound.
 */
func (s *FileService) StoreFile(ctx context.Context, observationID int64, filename, fileType string, payload []byte, description string) (int64, error) {
	if int64(len(payload)) > s.maxBytes {
		return 0, fmt.Errorf("%d bytes over %d limit: %w", len(payload), s.maxBytes, util.ErrPayloadTooLarge)
	}
	if fileType == "" {
		fileType = mime.TypeByExtension(filepath.Ext(filename))
		if fileType == "" {
			fileType = filepath.Ext(filename)
		}
	}
	id, err := s.ids.NextID(ctx, util.LabelMedicalFile)
	if err != nil {
		return 0, err
	}
	rows, err := s.graph.ExecWrite(ctx, storeFileCypher, map[string]any{
		"id":            id,
		"observationId": observationID,
		"filename":      filename,
		"fileType":      fileType,
		"fileSize":      int64(len(payload)),
		"fileData":      payload,
		"uploadDate":    s.now().UTC().Format(time.RFC3339),
		"description":   description,
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("observation %d: %w", observationID, util.ErrNotFound)
	}
	return id, nil
}

func (s *FileService) RetrieveFile(ctx context.Context, fileID int64) (*models.MedicalFile, error) {
	rows, err := s.graph.ExecRead(ctx, retrieveFileCypher, map[string]any{"id": fileID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file %d: %w", fileID, util.ErrNotFound)
	}
	return fileFromRow(rows[0], true), nil
}

// DeleteFile removes the node and its relationship. Deleting an id that
// is already gone reports NotFound, which repeated callers treat as
// success-after-the-fact rather than a failure.
func (s *FileService) DeleteFile(ctx context.Context, fileID int64) error {
	rows, err := s.graph.ExecWrite(ctx, deleteFileCypher, map[string]any{"id": fileID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("file %d: %w", fileID, util.ErrNotFound)
	}
	return nil
}

func (s *FileService) FilesByObservation(ctx context.Context, observationID int64) ([]models.MedicalFile, error) {
	rows, err := s.graph.ExecRead(ctx, filesByObservationCypher, map[string]any{"observationId": observationID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("observation %d: %w", observationID, util.ErrNotFound)
	}
	files := []models.MedicalFile{}
	for _, row := range rows {
		if row["id"] == nil {
			continue
		}
		f := fileFromRow(row, false)
		f.ObservationID = observationID
		files = append(files, *f)
	}
	return files, nil
}

// ListFiles returns the metadata inventory, newest upload first,
// payloads excluded.
func (s *FileService) ListFiles(ctx context.Context) ([]models.MedicalFile, error) {
	rows, err := s.graph.ExecRead(ctx, listFilesCypher, nil)
	if err != nil {
		return nil, err
	}
	files := []models.MedicalFile{}
	for _, row := range rows {
		files = append(files, *fileFromRow(row, false))
	}
	return files, nil
}

func fileFromRow(row map[string]any, withPayload bool) *models.MedicalFile {
	f := &models.MedicalFile{
		ID:          asInt64(row["id"]),
		Filename:    asString(row["filename"]),
		FileType:    asString(row["fileType"]),
		FileSize:    asInt64(row["fileSize"]),
		Description: asString(row["description"]),
	}
	if oid, ok := row["observationId"]; ok && oid != nil {
		f.ObservationID = asInt64(oid)
	}
	if ts, err := time.Parse(time.RFC3339, asString(row["uploadDate"])); err == nil {
		f.UploadDate = ts
	}
	if withPayload {
		if data, ok := row["fileData"].([]byte); ok {
			f.FileData = data
		}
	}
	return f
}
