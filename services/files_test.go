package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"ClinicLink360/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFilesFixture(t *testing.T, maxBytes int64) (*FileService, int64) {
	t.Helper()
	ctx := context.Background()
	graph := newFakeGraph()
	alloc := NewIDAllocator(graph)
	clinical := NewClinicalService(graph, alloc)

	clinic, err := clinical.CreateClinic(ctx, "Sunshine Health Center", "12 Harbor St")
	require.NoError(t, err)
	dept, err := clinical.CreateDepartment(ctx, clinic.ID, "Cardiology")
	require.NoError(t, err)
	doc, err := clinical.CreateDoctor(ctx, dept.ID, "Anna", "Johnson")
	require.NoError(t, err)
	pat, err := clinical.CreatePatient(ctx, "Lars", "Nilsson", doc.ID)
	require.NoError(t, err)
	appt, err := clinical.CreateAppointment(ctx, doc.ID, pat.ID, "2024-03-01")
	require.NoError(t, err)
	obs, err := clinical.CreateObservation(ctx, appt.ID, "x_ray", "chest x-ray")
	require.NoError(t, err)

	return NewFileService(graph, alloc, maxBytes), obs.ID
}

func TestStoreAndRetrieveFile(t *testing.T) {
	ctx := context.Background()
	svc, obsID := newFilesFixture(t, 1024)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	payload := []byte("fake scan bytes")
	fileID, err := svc.StoreFile(ctx, obsID, "scan.png", "", payload, "chest scan")
	require.NoError(t, err)

	file, err := svc.RetrieveFile(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, "scan.png", file.Filename)
	assert.Equal(t, "image/png", file.FileType)
	assert.Equal(t, int64(len(payload)), file.FileSize)
	assert.True(t, bytes.Equal(payload, file.FileData))
	assert.Equal(t, obsID, file.ObservationID)
	assert.Equal(t, 2024, file.UploadDate.Year())
}

func TestStoreFileOverLimit(t *testing.T) {
	ctx := context.Background()
	svc, obsID := newFilesFixture(t, 8)

	_, err := svc.StoreFile(ctx, obsID, "scan.png", "", []byte("way over the limit"), "")
	assert.ErrorIs(t, err, util.ErrPayloadTooLarge)
}

func TestStoreFileMissingObservation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFilesFixture(t, 1024)

	_, err := svc.StoreFile(ctx, 999, "scan.png", "", []byte("x"), "")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestDeleteFileTwice(t *testing.T) {
	ctx := context.Background()
	svc, obsID := newFilesFixture(t, 1024)

	fileID, err := svc.StoreFile(ctx, obsID, "scan.png", "", []byte("x"), "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(ctx, fileID))
	assert.ErrorIs(t, svc.DeleteFile(ctx, fileID), util.ErrNotFound)

	_, err = svc.RetrieveFile(ctx, fileID)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestFilesByObservation(t *testing.T) {
	ctx := context.Background()
	svc, obsID := newFilesFixture(t, 1024)

	_, err := svc.StoreFile(ctx, obsID, "scan.png", "", []byte("x"), "first")
	require.NoError(t, err)
	_, err = svc.StoreFile(ctx, obsID, "notes.pdf", "application/pdf", []byte("y"), "second")
	require.NoError(t, err)

	files, err := svc.FilesByObservation(ctx, obsID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	for _, f := range files {
		assert.Nil(t, f.FileData)
		assert.Equal(t, obsID, f.ObservationID)
	}

	_, err = svc.FilesByObservation(ctx, 999)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestListFilesExcludesPayloads(t *testing.T) {
	ctx := context.Background()
	svc, obsID := newFilesFixture(t, 1024)

	_, err := svc.StoreFile(ctx, obsID, "scan.png", "", []byte("x"), "")
	require.NoError(t, err)

	files, err := svc.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Nil(t, files[0].FileData)
	assert.Equal(t, "scan.png", files[0].Filename)
}
