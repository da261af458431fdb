package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langgol/internal/models"
	"langgol/internal/pdf"
)

type fakeHistoryRepo struct {
	records map[string]*models.History
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{records: map[string]*models.History{}}
}

func (r *fakeHistoryRepo) Save(email string, h *models.History) error {
	cp := *h
	r.records[email] = &cp
	return nil
}

func (r *fakeHistoryRepo) Load(email string) (*models.History, error) {
	h, ok := r.records[email]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

type fakePDF struct {
	last pdf.ReportData
}

func (f *fakePDF) GenerateReport(data pdf.ReportData) (string, error) {
	f.last = data
	return "/tmp/report.pdf", nil
}

func sampleHistory() *models.History {
	return &models.History{
		Chat: []models.ChatMessage{
			{Sender: "user", Text: "My rice leaves have brown spots", Timestamp: 1700000000000},
			{Sender: "model", Text: "That could be brown spot disease", Timestamp: 1700000001000},
		},
		Live: []models.LiveHistoryItem{
			{User: "How much urea per acre?", Model: "Around 60 kg", Timestamp: 1700000002000},
		},
		Image: []models.ImageHistoryItem{
			{
				ImageDataURL: "data:image/jpeg;base64,/9j/4AAQ",
				Analysis:     "Leaf blight, early stage",
				Timestamp:    1700000003000,
				FileName:     "leaf.jpg",
			},
		},
	}
}

func TestHistory_SaveLoadRoundTrip(t *testing.T) {
	svc := NewHistoryService(newFakeHistoryRepo(), &fakePDF{})
	saved := sampleHistory()

	require.NoError(t, svc.Save("Farmer@Example.com", saved))

	// emails are normalized, so any casing loads the same record
	got, found, err := svc.Load("farmer@example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, saved, got)
}

func TestHistory_LoadMissingReturnsSentinel(t *testing.T) {
	svc := NewHistoryService(newFakeHistoryRepo(), &fakePDF{})

	got, found, err := svc.Load("nobody@example.com")
	require.NoError(t, err)
	assert.False(t, found)
	require.NotNil(t, got)
	assert.Empty(t, got.Chat)
	assert.Empty(t, got.Live)
	assert.Empty(t, got.Image)
}

func TestHistory_SaveNilStoresEmpty(t *testing.T) {
	repo := newFakeHistoryRepo()
	svc := NewHistoryService(repo, &fakePDF{})

	require.NoError(t, svc.Save("farmer@example.com", nil))
	got, found, err := svc.Load("farmer@example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.EmptyHistory(), got)
}

func TestHistory_ExportPDF(t *testing.T) {
	repo := newFakeHistoryRepo()
	gen := &fakePDF{}
	svc := NewHistoryService(repo, gen)
	require.NoError(t, svc.Save("farmer@example.com", sampleHistory()))

	path, err := svc.ExportPDF("farmer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/report.pdf", path)
	assert.Equal(t, "farmer@example.com", gen.last.Email)
	require.NotNil(t, gen.last.History)
	assert.Len(t, gen.last.History.Chat, 2)

	// exporting a fresh account renders the empty sentinel
	_, err = svc.ExportPDF("nobody@example.com")
	require.NoError(t, err)
	assert.NotNil(t, gen.last.History)
}
