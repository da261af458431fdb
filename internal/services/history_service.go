package services

import (
	"time"

	"langgol/internal/models"
	"langgol/internal/pdf"
	"langgol/internal/repositories"
)

type HistoryService interface {
	Save(email string, history *models.History) error
	// Load reports found=false for accounts that never saved; the returned
	// history is then the empty sentinel, never nil.
	Load(email string) (*models.History, bool, error)
	ExportPDF(email string) (string, error)
}

type historyService struct {
	repo repositories.HistoryRepository
	pdf  pdf.Generator
}

func NewHistoryService(repo repositories.HistoryRepository, gen pdf.Generator) HistoryService {
	return &historyService{repo: repo, pdf: gen}
}

func (s *historyService) Save(email string, history *models.History) error {
	if history == nil {
		history = models.EmptyHistory()
	}
	return s.repo.Save(normalizeEmail(email), history)
}

func (s *historyService) Load(email string) (*models.History, bool, error) {
	h, err := s.repo.Load(normalizeEmail(email))
	if err != nil {
		return nil, false, err
	}
	if h == nil {
		return models.EmptyHistory(), false, nil
	}
	return h, true, nil
}

func (s *historyService) ExportPDF(email string) (string, error) {
	email = normalizeEmail(email)
	h, _, err := s.Load(email)
	if err != nil {
		return "", err
	}
	return s.pdf.GenerateReport(pdf.ReportData{
		Email:     email,
		History:   h,
		CreatedAt: time.Now(),
	})
}
